package parser

import (
	"fmt"

	"github.com/parley-lang/parley/internal/compiler/ast"
	"github.com/parley-lang/parley/internal/compiler/lexer"
)

// Parser transforms a stream of tokens into an Abstract Syntax Tree (AST)
type Parser struct {
	tokens  []lexer.Token
	current int
	errors  []ast.ParseError
}

// New creates a new parser for the given token stream
func New(tokens []lexer.Token) *Parser {
	return &Parser{
		tokens:  tokens,
		current: 0,
		errors:  make([]ast.ParseError, 0),
	}
}

// Compile tokenizes and parses source in one call. Lexical errors abort the
// parse: they are converted into the script's error list and no steps are
// produced, since a token stream with holes in it is not worth parsing.
func Compile(source string) (*ast.Script, []ast.ParseError) {
	tokens, lexErrors := lexer.New(source).ScanTokens()
	if len(lexErrors) > 0 {
		errors := make([]ast.ParseError, len(lexErrors))
		for i, le := range lexErrors {
			errors[i] = ast.ParseError{
				Message: le.Message,
				Line:    le.Line,
				Column:  le.Column,
			}
		}
		return &ast.Script{
			Steps:  make(map[string]*ast.Step),
			Order:  make([]string, 0),
			Errors: errors,
		}, errors
	}
	return New(tokens).Parse()
}

// Parse parses the token stream and returns the script and any errors.
// The returned script contains every step that parsed cleanly; callers are
// expected to inspect the error list before executing.
func (p *Parser) Parse() (*ast.Script, []ast.ParseError) {
	script := &ast.Script{
		Steps: make(map[string]*ast.Step),
		Order: make([]string, 0),
	}

	p.skipNewlines()
	for !p.isAtEnd() {
		if step := p.parseStep(); step != nil {
			if _, exists := script.Steps[step.Name]; exists {
				p.errorAt(step.Loc, fmt.Sprintf("Duplicate step name: %s", step.Name))
			} else {
				script.Order = append(script.Order, step.Name)
			}
			// Later definition wins on duplicates
			script.Steps[step.Name] = step
			if script.EntryStep == "" {
				script.EntryStep = step.Name
			}
		}
		p.skipNewlines()
	}

	script.Errors = p.errors
	return script, p.errors
}

// parseStep parses one 'Step <name>' header and its body. Returns nil if
// the step was malformed; the parser has already synchronized to the next
// step boundary in that case.
func (p *Parser) parseStep() *ast.Step {
	stepToken := p.consume(lexer.TOKEN_STEP, "Expected 'Step' keyword")
	if stepToken.Type == lexer.TOKEN_ERROR {
		p.synchronizePastStep()
		return nil
	}

	nameToken := p.consume(lexer.TOKEN_IDENTIFIER, "Expected step name after 'Step'")
	if nameToken.Type == lexer.TOKEN_ERROR {
		p.synchronize()
		return nil
	}

	if !p.check(lexer.TOKEN_NEWLINE) && !p.isAtEnd() {
		p.error(p.peek(), "Expected newline after step name")
		p.synchronize()
		return nil
	}

	step := &ast.Step{
		Name:       nameToken.Lexeme,
		Statements: make([]ast.Statement, 0),
		Branches:   make([]ast.Branch, 0),
		Loc:        ast.TokenLocation(stepToken),
	}

	p.skipNewlines()
	for !p.check(lexer.TOKEN_STEP) && !p.isAtEnd() {
		stmt := p.parseStatement()
		if stmt == nil {
			p.synchronize()
			return nil
		}

		p.hoist(step, stmt)

		if !p.check(lexer.TOKEN_NEWLINE) && !p.isAtEnd() {
			p.error(p.peek(), "Expected newline after statement")
			p.synchronize()
			return nil
		}
		p.skipNewlines()
	}

	return step
}

// hoist attaches a parsed statement to its step. Branch, Silence and
// Default become step routing metadata; everything else stays in the
// statement sequence, with Exit additionally flipping the exit flag.
func (p *Parser) hoist(step *ast.Step, stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.BranchStmt:
		step.Branches = append(step.Branches, ast.Branch{
			Intent: s.Intent,
			Target: s.Target,
			Loc:    s.Loc,
		})
	case *ast.SilenceStmt:
		step.SilenceTarget = s.Target
	case *ast.DefaultStmt:
		step.DefaultTarget = s.Target
	case *ast.ExitStmt:
		step.IsExit = true
		step.Statements = append(step.Statements, stmt)
	default:
		step.Statements = append(step.Statements, stmt)
	}
}

// parseStatement dispatches on the leading keyword. Returns nil after
// recording an error when the statement is malformed.
func (p *Parser) parseStatement() ast.Statement {
	switch p.peek().Type {
	case lexer.TOKEN_SPEAK:
		return p.parseSpeak()
	case lexer.TOKEN_LISTEN:
		return p.parseListen()
	case lexer.TOKEN_BRANCH:
		return p.parseBranch()
	case lexer.TOKEN_SILENCE:
		return p.parseSilence()
	case lexer.TOKEN_DEFAULT:
		return p.parseDefault()
	case lexer.TOKEN_EXIT:
		token := p.advance()
		return &ast.ExitStmt{Loc: ast.TokenLocation(token)}
	case lexer.TOKEN_GOTO:
		return p.parseGoto()
	case lexer.TOKEN_SET:
		return p.parseSet()
	case lexer.TOKEN_IF:
		return p.parseIf()
	case lexer.TOKEN_WHILE:
		return p.parseWhile()
	case lexer.TOKEN_CALL:
		return p.parseCall()
	default:
		p.error(p.peek(), fmt.Sprintf("Unexpected token: %s", describeToken(p.peek())))
		return nil
	}
}

// parseSpeak parses: Speak Expr
func (p *Parser) parseSpeak() ast.Statement {
	token := p.advance()
	value := p.parseExpression()
	if value == nil {
		return nil
	}
	return &ast.SpeakStmt{Value: value, Loc: ast.TokenLocation(token)}
}

// parseListen parses: Listen (NUMBER (',' NUMBER)?)?
func (p *Parser) parseListen() ast.Statement {
	token := p.advance()
	stmt := &ast.ListenStmt{Loc: ast.TokenLocation(token)}

	if p.check(lexer.TOKEN_NUMBER) {
		begin := numberTokenValue(p.advance())
		stmt.BeginTimeout = &begin

		if p.match(lexer.TOKEN_COMMA) {
			endToken := p.consume(lexer.TOKEN_NUMBER, "Expected end timeout after ',' in 'Listen'")
			if endToken.Type == lexer.TOKEN_ERROR {
				return nil
			}
			end := numberTokenValue(endToken)
			stmt.EndTimeout = &end
		}
	}

	return stmt
}

// parseBranch parses: Branch STRING ','? IDENTIFIER
func (p *Parser) parseBranch() ast.Statement {
	token := p.advance()

	intentToken := p.consume(lexer.TOKEN_STRING, "Expected intent string after 'Branch'")
	if intentToken.Type == lexer.TOKEN_ERROR {
		return nil
	}

	// The comma between intent and target is optional
	p.match(lexer.TOKEN_COMMA)

	targetToken := p.consume(lexer.TOKEN_IDENTIFIER, "Expected target step name in 'Branch'")
	if targetToken.Type == lexer.TOKEN_ERROR {
		return nil
	}

	return &ast.BranchStmt{
		Intent: intentToken.Literal.(string),
		Target: targetToken.Lexeme,
		Loc:    ast.TokenLocation(token),
	}
}

// parseSilence parses: Silence IDENTIFIER
func (p *Parser) parseSilence() ast.Statement {
	token := p.advance()
	targetToken := p.consume(lexer.TOKEN_IDENTIFIER, "Expected target step name after 'Silence'")
	if targetToken.Type == lexer.TOKEN_ERROR {
		return nil
	}
	return &ast.SilenceStmt{Target: targetToken.Lexeme, Loc: ast.TokenLocation(token)}
}

// parseDefault parses: Default IDENTIFIER
func (p *Parser) parseDefault() ast.Statement {
	token := p.advance()
	targetToken := p.consume(lexer.TOKEN_IDENTIFIER, "Expected target step name after 'Default'")
	if targetToken.Type == lexer.TOKEN_ERROR {
		return nil
	}
	return &ast.DefaultStmt{Target: targetToken.Lexeme, Loc: ast.TokenLocation(token)}
}

// parseGoto parses: Goto IDENTIFIER
func (p *Parser) parseGoto() ast.Statement {
	token := p.advance()
	targetToken := p.consume(lexer.TOKEN_IDENTIFIER, "Expected step name after 'Goto'")
	if targetToken.Type == lexer.TOKEN_ERROR {
		return nil
	}
	return &ast.GotoStmt{Target: targetToken.Lexeme, Loc: ast.TokenLocation(token)}
}

// parseSet parses: Set VARIABLE '=' Expr
func (p *Parser) parseSet() ast.Statement {
	token := p.advance()

	varToken := p.consume(lexer.TOKEN_VARIABLE, "Expected variable after 'Set'")
	if varToken.Type == lexer.TOKEN_ERROR {
		return nil
	}

	if p.consume(lexer.TOKEN_ASSIGN, "Expected '=' after variable in 'Set'").Type == lexer.TOKEN_ERROR {
		return nil
	}

	value := p.parseExpression()
	if value == nil {
		return nil
	}

	return &ast.SetStmt{
		Name:  varToken.Literal.(string),
		Value: value,
		Loc:   ast.TokenLocation(token),
	}
}

// parseIf parses: If Expr NEWLINE Block ('Else' NEWLINE Block)? 'EndIf'
func (p *Parser) parseIf() ast.Statement {
	token := p.advance()

	cond := p.parseExpression()
	if cond == nil {
		return nil
	}

	if p.consume(lexer.TOKEN_NEWLINE, "Expected newline after 'If' condition").Type == lexer.TOKEN_ERROR {
		return nil
	}

	thenBlock, ok := p.parseBlock(lexer.TOKEN_ELSE, lexer.TOKEN_ENDIF)
	if !ok {
		return nil
	}

	var elseBlock []ast.Statement
	if p.match(lexer.TOKEN_ELSE) {
		if p.consume(lexer.TOKEN_NEWLINE, "Expected newline after 'Else'").Type == lexer.TOKEN_ERROR {
			return nil
		}
		elseBlock, ok = p.parseBlock(lexer.TOKEN_ENDIF)
		if !ok {
			return nil
		}
	}

	if p.consume(lexer.TOKEN_ENDIF, "Expected 'EndIf' to close 'If'").Type == lexer.TOKEN_ERROR {
		return nil
	}

	return &ast.IfStmt{
		Cond: cond,
		Then: thenBlock,
		Else: elseBlock,
		Loc:  ast.TokenLocation(token),
	}
}

// parseWhile parses: While Expr NEWLINE Block 'EndWhile'
func (p *Parser) parseWhile() ast.Statement {
	token := p.advance()

	cond := p.parseExpression()
	if cond == nil {
		return nil
	}

	if p.consume(lexer.TOKEN_NEWLINE, "Expected newline after 'While' condition").Type == lexer.TOKEN_ERROR {
		return nil
	}

	body, ok := p.parseBlock(lexer.TOKEN_ENDWHILE)
	if !ok {
		return nil
	}

	if p.consume(lexer.TOKEN_ENDWHILE, "Expected 'EndWhile' to close 'While'").Type == lexer.TOKEN_ERROR {
		return nil
	}

	return &ast.WhileStmt{
		Cond: cond,
		Body: body,
		Loc:  ast.TokenLocation(token),
	}
}

// parseBlock parses newline-separated statements until one of the
// terminator tokens. Hitting EOF or a 'Step' header first means the block
// was never closed; the false return propagates the failure so the caller
// can report its own missing-terminator error.
func (p *Parser) parseBlock(terminators ...lexer.TokenType) ([]ast.Statement, bool) {
	statements := make([]ast.Statement, 0)

	p.skipNewlines()
	for !p.isAtEnd() {
		for _, terminator := range terminators {
			if p.check(terminator) {
				return statements, true
			}
		}
		if p.check(lexer.TOKEN_STEP) {
			return statements, true
		}

		stmt := p.parseStatement()
		if stmt == nil {
			return nil, false
		}

		switch stmt.(type) {
		case *ast.BranchStmt, *ast.SilenceStmt, *ast.DefaultStmt:
			p.errorAt(stmt.Location(), "Branch, Silence and Default are only allowed at the top level of a step")
			return nil, false
		}
		statements = append(statements, stmt)

		if !p.check(lexer.TOKEN_NEWLINE) && !p.isAtEnd() {
			terminated := false
			for _, terminator := range terminators {
				if p.check(terminator) {
					terminated = true
					break
				}
			}
			if !terminated {
				p.error(p.peek(), "Expected newline after statement")
				return nil, false
			}
			return statements, true
		}
		p.skipNewlines()
	}

	return statements, true
}

// parseCall parses: Call IDENTIFIER ('(' ArgList? ')')? ('=' VARIABLE)?
func (p *Parser) parseCall() ast.Statement {
	token := p.advance()

	nameToken := p.consume(lexer.TOKEN_IDENTIFIER, "Expected service name after 'Call'")
	if nameToken.Type == lexer.TOKEN_ERROR {
		return nil
	}

	stmt := &ast.CallStmt{
		Service: nameToken.Lexeme,
		Args:    make([]ast.Expression, 0),
		Loc:     ast.TokenLocation(token),
	}

	if p.match(lexer.TOKEN_LPAREN) {
		if !p.check(lexer.TOKEN_RPAREN) {
			args, ok := p.parseArguments()
			if !ok {
				return nil
			}
			stmt.Args = args
		}
		if p.consume(lexer.TOKEN_RPAREN, "Expected ')' after service arguments").Type == lexer.TOKEN_ERROR {
			return nil
		}
	}

	if p.match(lexer.TOKEN_ASSIGN) {
		varToken := p.consume(lexer.TOKEN_VARIABLE, "Expected result variable after '=' in 'Call'")
		if varToken.Type == lexer.TOKEN_ERROR {
			return nil
		}
		stmt.ResultVar = varToken.Literal.(string)
	}

	return stmt
}

// Helper methods

// peek returns the current token without consuming it
func (p *Parser) peek() lexer.Token {
	if len(p.tokens) == 0 {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	if p.current >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current]
}

// previous returns the most recently consumed token
func (p *Parser) previous() lexer.Token {
	if len(p.tokens) == 0 || p.current == 0 {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	return p.tokens[p.current-1]
}

// advance consumes the current token and returns it
func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

// check returns true if the current token matches the given type
func (p *Parser) check(tokenType lexer.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == tokenType
}

// match consumes the token if it matches any of the given types
func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// consume advances if the next token matches, otherwise reports an error
func (p *Parser) consume(tokenType lexer.TokenType, message string) lexer.Token {
	if p.check(tokenType) {
		return p.advance()
	}

	p.error(p.peek(), message)
	return lexer.Token{Type: lexer.TOKEN_ERROR}
}

// isAtEnd returns true if we've reached the end of the token stream
func (p *Parser) isAtEnd() bool {
	return p.current >= len(p.tokens) || p.tokens[p.current].Type == lexer.TOKEN_EOF
}

// skipNewlines consumes any run of NEWLINE tokens
func (p *Parser) skipNewlines() {
	for p.check(lexer.TOKEN_NEWLINE) {
		p.advance()
	}
}

// synchronizePastStep skips past the current token before synchronizing,
// used when the failure happened on a 'Step' boundary itself
func (p *Parser) synchronizePastStep() {
	p.advance()
	p.synchronize()
}

// numberTokenValue widens a NUMBER token's literal to float64
func numberTokenValue(token lexer.Token) float64 {
	switch v := token.Literal.(type) {
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return 0
}

// describeToken renders a token for error messages
func describeToken(token lexer.Token) string {
	if token.Type == lexer.TOKEN_EOF {
		return "end of file"
	}
	if token.Type == lexer.TOKEN_NEWLINE {
		return "newline"
	}
	return fmt.Sprintf("'%s'", token.Lexeme)
}
