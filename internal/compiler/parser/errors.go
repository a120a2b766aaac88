// Package parser implements the Parley script parser, transforming token streams into Abstract Syntax Trees (ASTs).
// It uses recursive descent parsing with panic mode error recovery: on a syntax
// error the offending step is dropped, the error is recorded, and parsing
// resumes at the next 'Step' keyword.
package parser

import (
	"github.com/parley-lang/parley/internal/compiler/ast"
	"github.com/parley-lang/parley/internal/compiler/lexer"
)

// NewParseError creates a parse error located at the given token
func NewParseError(message string, token lexer.Token) ast.ParseError {
	return ast.ParseError{
		Message: message,
		Line:    token.Line,
		Column:  token.Column,
	}
}

// error records a parse error at the given token
func (p *Parser) error(token lexer.Token, message string) {
	p.errors = append(p.errors, NewParseError(message, token))
}

// errorAt records a parse error at an arbitrary source location
func (p *Parser) errorAt(loc ast.SourceLocation, message string) {
	p.errors = append(p.errors, ast.ParseError{
		Message: message,
		Line:    loc.Line,
		Column:  loc.Column,
	})
}

// synchronize discards tokens until the next step boundary so that one
// malformed step does not take the rest of the script down with it
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.check(lexer.TOKEN_STEP) {
			return
		}
		p.advance()
	}
}
