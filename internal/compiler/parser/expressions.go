package parser

import (
	"fmt"

	"github.com/parley-lang/parley/internal/compiler/ast"
	"github.com/parley-lang/parley/internal/compiler/lexer"
)

// Expression parsing using recursive descent / precedence climbing
//
// Expression grammar (from lowest to highest precedence):
// expression → logicalOr
// logicalOr  → logicalAnd ( "or" logicalAnd )*
// logicalAnd → equality ( "and" equality )*
// equality   → comparison ( ( "==" | "!=" ) comparison )*
// comparison → term ( ( ">" | ">=" | "<" | "<=" ) term )*
// term       → factor ( ( "+" | "-" ) factor )*
// factor     → unary ( ( "*" | "/" ) unary )*
// unary      → ( "-" | "not" ) unary | primary
// primary    → NUMBER | STRING | VARIABLE
//            | IDENTIFIER "(" arguments? ")" | "(" expression ")"
//
// All binary operators are left-associative.

// parseExpression is the entry point for expression parsing
func (p *Parser) parseExpression() ast.Expression {
	return p.parseLogicalOr()
}

// parseLogicalOr handles logical OR expressions
func (p *Parser) parseLogicalOr() ast.Expression {
	expr := p.parseLogicalAnd()
	if expr == nil {
		return nil
	}

	for p.match(lexer.TOKEN_OR) {
		operator := p.previous()
		right := p.parseLogicalAnd()
		if right == nil {
			return expr // Return what we have so far
		}
		expr = &ast.LogicalExpr{
			Left:     expr,
			Operator: operator.Lexeme,
			Right:    right,
			Loc:      ast.TokenLocation(operator),
		}
	}

	return expr
}

// parseLogicalAnd handles logical AND expressions
func (p *Parser) parseLogicalAnd() ast.Expression {
	expr := p.parseEquality()
	if expr == nil {
		return nil
	}

	for p.match(lexer.TOKEN_AND) {
		operator := p.previous()
		right := p.parseEquality()
		if right == nil {
			return expr // Return what we have so far
		}
		expr = &ast.LogicalExpr{
			Left:     expr,
			Operator: operator.Lexeme,
			Right:    right,
			Loc:      ast.TokenLocation(operator),
		}
	}

	return expr
}

// parseEquality handles equality operators (==, !=)
func (p *Parser) parseEquality() ast.Expression {
	expr := p.parseComparison()
	if expr == nil {
		return nil
	}

	for p.match(lexer.TOKEN_EQ, lexer.TOKEN_NEQ) {
		operator := p.previous()
		right := p.parseComparison()
		if right == nil {
			return expr // Return what we have so far
		}
		expr = &ast.BinaryExpr{
			Left:     expr,
			Operator: operator.Lexeme,
			Right:    right,
			Loc:      ast.TokenLocation(operator),
		}
	}

	return expr
}

// parseComparison handles comparison operators (<, >, <=, >=)
func (p *Parser) parseComparison() ast.Expression {
	expr := p.parseTerm()
	if expr == nil {
		return nil
	}

	for p.match(lexer.TOKEN_LT, lexer.TOKEN_GT, lexer.TOKEN_LE, lexer.TOKEN_GE) {
		operator := p.previous()
		right := p.parseTerm()
		if right == nil {
			return expr // Return what we have so far
		}
		expr = &ast.BinaryExpr{
			Left:     expr,
			Operator: operator.Lexeme,
			Right:    right,
			Loc:      ast.TokenLocation(operator),
		}
	}

	return expr
}

// parseTerm handles addition and subtraction
func (p *Parser) parseTerm() ast.Expression {
	expr := p.parseFactor()
	if expr == nil {
		return nil
	}

	for p.match(lexer.TOKEN_PLUS, lexer.TOKEN_MINUS) {
		operator := p.previous()
		right := p.parseFactor()
		if right == nil {
			return expr // Return what we have so far
		}
		expr = &ast.BinaryExpr{
			Left:     expr,
			Operator: operator.Lexeme,
			Right:    right,
			Loc:      ast.TokenLocation(operator),
		}
	}

	return expr
}

// parseFactor handles multiplication and division
func (p *Parser) parseFactor() ast.Expression {
	expr := p.parseUnary()
	if expr == nil {
		return nil
	}

	for p.match(lexer.TOKEN_STAR, lexer.TOKEN_SLASH) {
		operator := p.previous()
		right := p.parseUnary()
		if right == nil {
			return expr // Return what we have so far
		}
		expr = &ast.BinaryExpr{
			Left:     expr,
			Operator: operator.Lexeme,
			Right:    right,
			Loc:      ast.TokenLocation(operator),
		}
	}

	return expr
}

// parseUnary handles unary operators (-, not)
func (p *Parser) parseUnary() ast.Expression {
	if p.match(lexer.TOKEN_MINUS, lexer.TOKEN_NOT) {
		operator := p.previous()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &ast.UnaryExpr{
			Operator: operator.Lexeme,
			Operand:  operand,
			Loc:      ast.TokenLocation(operator),
		}
	}

	return p.parsePrimary()
}

// parsePrimary handles literals, variables, function calls, and grouping
func (p *Parser) parsePrimary() ast.Expression {
	switch {
	case p.match(lexer.TOKEN_NUMBER, lexer.TOKEN_STRING):
		token := p.previous()
		return &ast.LiteralExpr{
			Value: token.Literal,
			Loc:   ast.TokenLocation(token),
		}

	case p.match(lexer.TOKEN_VARIABLE):
		token := p.previous()
		return &ast.VariableExpr{
			Name: token.Literal.(string),
			Loc:  ast.TokenLocation(token),
		}

	case p.match(lexer.TOKEN_IDENTIFIER):
		token := p.previous()
		if p.match(lexer.TOKEN_LPAREN) {
			return p.finishCallExpr(token)
		}
		// Bare identifiers are not values; variables need the $ sigil.
		p.error(token, fmt.Sprintf("Expected '(' after '%s'; variables are written with a '$' prefix", token.Lexeme))
		return nil

	case p.match(lexer.TOKEN_LPAREN):
		token := p.previous()
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		closing := p.consume(lexer.TOKEN_RPAREN, "Expected ')' after expression")
		if closing.Type == lexer.TOKEN_ERROR {
			return nil
		}
		return &ast.ParenExpr{
			Expr: expr,
			Loc:  ast.TokenLocation(token),
		}

	default:
		p.error(p.peek(), "Expected expression")
		return nil
	}
}

// finishCallExpr parses a call's argument list. The opening parenthesis
// has already been consumed; name is the identifier token before it.
func (p *Parser) finishCallExpr(name lexer.Token) ast.Expression {
	var args []ast.Expression
	if !p.check(lexer.TOKEN_RPAREN) {
		parsed, ok := p.parseArguments()
		if !ok {
			return nil
		}
		args = parsed
	}

	closing := p.consume(lexer.TOKEN_RPAREN, "Expected ')' after arguments")
	if closing.Type == lexer.TOKEN_ERROR {
		return nil
	}

	return &ast.CallExpr{
		Name: name.Lexeme,
		Args: args,
		Loc:  ast.TokenLocation(name),
	}
}

// parseArguments parses a comma-separated expression list. It reports
// false if any argument fails to parse.
func (p *Parser) parseArguments() ([]ast.Expression, bool) {
	var args []ast.Expression

	for {
		arg := p.parseExpression()
		if arg == nil {
			return nil, false
		}
		args = append(args, arg)

		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}

	return args, true
}
