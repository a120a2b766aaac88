// Package ast defines the Abstract Syntax Tree (AST) node types for Parley dialogue scripts.
// It provides structures for representing scripts, steps, statements, and expressions.
//
// A Script is immutable once the parser returns it and may be shared freely
// across concurrently running sessions.
package ast

import (
	"fmt"

	"github.com/parley-lang/parley/internal/compiler/lexer"
)

// SourceLocation tracks the position of an AST node in source code
type SourceLocation struct {
	Line   int // Line number (1-indexed)
	Column int // Column number (1-indexed)
}

// TokenLocation builds a SourceLocation from a token
func TokenLocation(token lexer.Token) SourceLocation {
	return SourceLocation{
		Line:   token.Line,
		Column: token.Column,
	}
}

// Node is the base interface for all AST nodes
type Node interface {
	Location() SourceLocation
	node()
}

// Statement is the interface for all statement nodes
type Statement interface {
	Node
	stmtNode()
}

// Expression is the interface for all expression nodes
type Expression interface {
	Node
	exprNode()
}

// ParseError records a syntax problem found while parsing. Errors are
// accumulated on the Script rather than aborting the parse, so a script
// with a broken step still yields the steps that parsed cleanly.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

// Error implements the error interface
func (e ParseError) Error() string {
	return fmt.Sprintf("Parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// Script is the root node of the AST: an ordered collection of steps.
type Script struct {
	// Steps maps step name to its definition. Step names are unique and
	// case-sensitive; on a duplicate definition the later one wins.
	Steps map[string]*Step
	// Order holds step names in declaration order.
	Order []string
	// EntryStep is the name of the first step encountered, or "" for an
	// empty script.
	EntryStep string
	// Errors collects everything the parser recovered from.
	Errors []ParseError
}

func (s *Script) node() {}

// Location returns the source location of the script's first step.
func (s *Script) Location() SourceLocation {
	if len(s.Order) > 0 {
		if step, ok := s.Steps[s.Order[0]]; ok {
			return step.Loc
		}
	}
	return SourceLocation{Line: 1, Column: 1}
}

// Lookup returns the named step, if it exists.
func (s *Script) Lookup(name string) (*Step, bool) {
	step, ok := s.Steps[name]
	return step, ok
}

// StepsInOrder returns the steps in declaration order.
func (s *Script) StepsInOrder() []*Step {
	steps := make([]*Step, 0, len(s.Order))
	for _, name := range s.Order {
		if step, ok := s.Steps[name]; ok {
			steps = append(steps, step)
		}
	}
	return steps
}

// Branch routes a recognized intent to a target step.
type Branch struct {
	Intent string // Intent literal as written in the script
	Target string // Name of the step to transfer to
	Loc    SourceLocation
}

// Step is a named node in the dialogue graph.
//
// Branch, Silence and Default declarations are hoisted out of the statement
// sequence at parse time: Statements never contains them.
type Step struct {
	Name       string
	Statements []Statement
	// Branches in source order; duplicates are preserved and the first
	// match wins at dispatch time.
	Branches []Branch
	// SilenceTarget is the step receiving silent input, "" if none.
	SilenceTarget string
	// DefaultTarget is the step receiving unmatched input, "" if none.
	DefaultTarget string
	// IsExit is true iff the step contains an Exit statement at the top level.
	IsExit bool
	Loc    SourceLocation
}

func (s *Step) node() {}

// Location returns the source location of the step header.
func (s *Step) Location() SourceLocation {
	return s.Loc
}

// Intents returns the intent literals offered by the step's branches,
// in source order, duplicates preserved.
func (s *Step) Intents() []string {
	intents := make([]string, len(s.Branches))
	for i, b := range s.Branches {
		intents[i] = b.Intent
	}
	return intents
}

// WaitsForInput reports whether the step suspends for user input after its
// statements run: it must contain a Listen statement or offer at least one
// branch or handler.
func (s *Step) WaitsForInput() bool {
	if len(s.Branches) > 0 || s.SilenceTarget != "" || s.DefaultTarget != "" {
		return true
	}
	for _, stmt := range s.Statements {
		if _, ok := stmt.(*ListenStmt); ok {
			return true
		}
	}
	return false
}
