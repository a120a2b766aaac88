// Package format pretty-prints Parley dialogue scripts into a canonical
// form: two-space indentation, one blank line between steps, routing
// declarations (Branch, Silence, Default) grouped at the end of each step.
package format

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/parley-lang/parley/internal/compiler/ast"
	"github.com/parley-lang/parley/internal/compiler/parser"
)

// Formatter formats Parley source code
type Formatter struct {
	config *Config
	buf    *bytes.Buffer
	indent int
}

// New creates a new Formatter with the given configuration
func New(config *Config) *Formatter {
	if config == nil {
		config = DefaultConfig()
	}
	return &Formatter{
		config: config,
		buf:    new(bytes.Buffer),
		indent: 0,
	}
}

// Format formats Parley source code and returns the formatted result.
// Re-lexing the result yields the same tokens as the input, newlines
// aside, so formatting never changes what a script does.
func (f *Formatter) Format(source string) (string, error) {
	script, parseErrors := parser.Compile(source)
	if len(parseErrors) > 0 {
		return "", fmt.Errorf("parse errors: %v", parseErrors)
	}

	f.buf.Reset()
	f.indent = 0

	f.formatScript(script)

	return f.buf.String(), nil
}

// FormatFile formats a Parley source file
func FormatFile(path string, config *Config) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	formatter := New(config)
	return formatter.Format(string(content))
}

// formatScript formats all steps in declaration order
func (f *Formatter) formatScript(script *ast.Script) {
	steps := script.StepsInOrder()
	for i, step := range steps {
		f.formatStep(step)

		// Blank line between steps (except after the last one)
		if i < len(steps)-1 {
			f.buf.WriteString("\n")
		}
	}
}

// formatStep formats one step: header, statements, then the hoisted
// routing declarations
func (f *Formatter) formatStep(step *ast.Step) {
	f.buf.WriteString("Step ")
	f.buf.WriteString(step.Name)
	f.buf.WriteString("\n")
	f.indent++

	for _, stmt := range step.Statements {
		f.formatStatement(stmt)
	}

	for _, branch := range step.Branches {
		f.writeIndent()
		f.buf.WriteString("Branch ")
		f.writeQuoted(branch.Intent)
		f.buf.WriteString(", ")
		f.buf.WriteString(branch.Target)
		f.buf.WriteString("\n")
	}

	if step.SilenceTarget != "" {
		f.writeIndent()
		f.buf.WriteString("Silence ")
		f.buf.WriteString(step.SilenceTarget)
		f.buf.WriteString("\n")
	}

	if step.DefaultTarget != "" {
		f.writeIndent()
		f.buf.WriteString("Default ")
		f.buf.WriteString(step.DefaultTarget)
		f.buf.WriteString("\n")
	}

	f.indent--
}

// formatStatement formats a single statement at the current indent
func (f *Formatter) formatStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.SpeakStmt:
		f.writeIndent()
		f.buf.WriteString("Speak ")
		f.formatExpression(s.Value)
		f.buf.WriteString("\n")

	case *ast.ListenStmt:
		f.writeIndent()
		f.buf.WriteString("Listen")
		if s.BeginTimeout != nil {
			f.buf.WriteString(" ")
			f.buf.WriteString(formatTimeout(*s.BeginTimeout))
			if s.EndTimeout != nil {
				f.buf.WriteString(", ")
				f.buf.WriteString(formatTimeout(*s.EndTimeout))
			}
		}
		f.buf.WriteString("\n")

	case *ast.SetStmt:
		f.writeIndent()
		f.buf.WriteString("Set $")
		f.buf.WriteString(s.Name)
		f.buf.WriteString(" = ")
		f.formatExpression(s.Value)
		f.buf.WriteString("\n")

	case *ast.GotoStmt:
		f.writeIndent()
		f.buf.WriteString("Goto ")
		f.buf.WriteString(s.Target)
		f.buf.WriteString("\n")

	case *ast.CallStmt:
		f.writeIndent()
		f.buf.WriteString("Call ")
		f.buf.WriteString(s.Service)
		if len(s.Args) > 0 {
			f.buf.WriteString("(")
			for i, arg := range s.Args {
				if i > 0 {
					f.buf.WriteString(", ")
				}
				f.formatExpression(arg)
			}
			f.buf.WriteString(")")
		}
		if s.ResultVar != "" {
			f.buf.WriteString(" = $")
			f.buf.WriteString(s.ResultVar)
		}
		f.buf.WriteString("\n")

	case *ast.IfStmt:
		f.writeIndent()
		f.buf.WriteString("If ")
		f.formatExpression(s.Cond)
		f.buf.WriteString("\n")
		f.indent++
		for _, inner := range s.Then {
			f.formatStatement(inner)
		}
		f.indent--
		if s.Else != nil {
			f.writeIndent()
			f.buf.WriteString("Else\n")
			f.indent++
			for _, inner := range s.Else {
				f.formatStatement(inner)
			}
			f.indent--
		}
		f.writeIndent()
		f.buf.WriteString("EndIf\n")

	case *ast.WhileStmt:
		f.writeIndent()
		f.buf.WriteString("While ")
		f.formatExpression(s.Cond)
		f.buf.WriteString("\n")
		f.indent++
		for _, inner := range s.Body {
			f.formatStatement(inner)
		}
		f.indent--
		f.writeIndent()
		f.buf.WriteString("EndWhile\n")

	case *ast.ExitStmt:
		f.writeIndent()
		f.buf.WriteString("Exit\n")
	}
}

// formatExpression writes an expression. Parentheses are emitted only
// where the source had them; grouping survives the parse as ParenExpr
// nodes, so precedence never needs to be reconstructed here.
func (f *Formatter) formatExpression(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		f.formatLiteral(e.Value)

	case *ast.VariableExpr:
		f.buf.WriteString("$")
		f.buf.WriteString(e.Name)

	case *ast.BinaryExpr:
		f.formatExpression(e.Left)
		f.buf.WriteString(" ")
		f.buf.WriteString(e.Operator)
		f.buf.WriteString(" ")
		f.formatExpression(e.Right)

	case *ast.LogicalExpr:
		f.formatExpression(e.Left)
		f.buf.WriteString(" ")
		f.buf.WriteString(e.Operator)
		f.buf.WriteString(" ")
		f.formatExpression(e.Right)

	case *ast.UnaryExpr:
		f.buf.WriteString(e.Operator)
		if e.Operator == "not" {
			f.buf.WriteString(" ")
		}
		f.formatExpression(e.Operand)

	case *ast.CallExpr:
		f.buf.WriteString(e.Name)
		f.buf.WriteString("(")
		for i, arg := range e.Args {
			if i > 0 {
				f.buf.WriteString(", ")
			}
			f.formatExpression(arg)
		}
		f.buf.WriteString(")")

	case *ast.ParenExpr:
		f.buf.WriteString("(")
		f.formatExpression(e.Expr)
		f.buf.WriteString(")")
	}
}

// formatLiteral writes a literal value in re-lexable form
func (f *Formatter) formatLiteral(value interface{}) {
	switch v := value.(type) {
	case string:
		f.writeQuoted(v)
	case int64:
		f.buf.WriteString(strconv.FormatInt(v, 10))
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		// Keep the decimal point so the literal re-lexes as a float
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		f.buf.WriteString(s)
	default:
		f.buf.WriteString(fmt.Sprintf("%v", v))
	}
}

// writeQuoted writes a double-quoted string with escapes restored
func (f *Formatter) writeQuoted(s string) {
	f.buf.WriteString("\"")
	for _, r := range s {
		switch r {
		case '"':
			f.buf.WriteString("\\\"")
		case '\\':
			f.buf.WriteString("\\\\")
		case '\n':
			f.buf.WriteString("\\n")
		case '\t':
			f.buf.WriteString("\\t")
		default:
			f.buf.WriteRune(r)
		}
	}
	f.buf.WriteString("\"")
}

// formatTimeout renders a Listen timeout, printing whole numbers
// without a decimal point
func formatTimeout(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writeIndent writes the current indentation level
func (f *Formatter) writeIndent() {
	spaces := f.indent * f.config.IndentSize
	f.buf.WriteString(strings.Repeat(" ", spaces))
}
