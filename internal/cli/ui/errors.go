package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of a message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ SCENARIO NOT FOUND: hospial
//	   Cannot find scenario 'hospial'.
//
//	   Did you mean: hospital?
//
//	   → List scenarios: parley scenarios
//	   → Get help: parley chat --help
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var headerColor, bodyColor *color.Color
	var symbol string

	switch opts.Level {
	case ErrorLevelError:
		headerColor = color.New(color.FgRed, color.Bold)
		bodyColor = color.New(color.FgRed)
		symbol = "❌"
	case ErrorLevelWarning:
		headerColor = color.New(color.FgYellow, color.Bold)
		bodyColor = color.New(color.FgYellow)
		symbol = "⚠️"
	case ErrorLevelInfo:
		headerColor = color.New(color.FgCyan, color.Bold)
		bodyColor = color.New(color.FgCyan)
		symbol = "ℹ️"
	}

	if opts.NoColor {
		headerColor.DisableColor()
		bodyColor.DisableColor()
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
		bodyColor.Fprintf(&b, "   %s\n", opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow := color.New(color.FgYellow)
		if opts.NoColor {
			yellow.DisableColor()
		}
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := color.New(color.FgCyan)
		if opts.NoColor {
			cyan.DisableColor()
		}
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// ScenarioNotFoundError creates a standardized scenario not found error
func ScenarioNotFoundError(scenarioID string, suggestions []string, noColor bool) string {
	opts := ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "SCENARIO NOT FOUND",
		Problem:     fmt.Sprintf("Cannot find scenario '%s'.", scenarioID),
		Suggestions: suggestions,
		HelpCommands: []string{
			"List scenarios: parley scenarios",
			"Get help: parley chat --help",
		},
		NoColor: noColor,
	}
	return FormatError(opts)
}

// Warning creates a standardized warning message
func Warning(message string, suggestions []string, noColor bool) string {
	opts := ErrorOptions{
		Level:       ErrorLevelWarning,
		Problem:     message,
		Suggestions: suggestions,
		NoColor:     noColor,
	}
	return FormatError(opts)
}

// Info creates a standardized info message
func Info(message string, noColor bool) string {
	opts := ErrorOptions{
		Level:   ErrorLevelInfo,
		Problem: message,
		NoColor: noColor,
	}
	return FormatError(opts)
}

// Diagnostic is a source-anchored problem report. Line and Column are
// 1-based, matching what the parser produces.
type Diagnostic struct {
	Line    int
	Column  int
	Message string
}

// RenderDiagnostics writes each diagnostic with the offending source line
// and a caret under the reported column
//
// Example output:
//
//	greeting.dsl:4:9: Expected step name after 'Goto'
//	    Goto
//	        ^
func RenderDiagnostics(w io.Writer, filename, source string, diags []Diagnostic, noColor bool) {
	lines := strings.Split(source, "\n")

	locColor := color.New(color.Bold)
	msgColor := color.New(color.FgRed, color.Bold)
	caretColor := color.New(color.FgRed, color.Bold)
	if noColor {
		locColor.DisableColor()
		msgColor.DisableColor()
		caretColor.DisableColor()
	}

	for _, d := range diags {
		locColor.Fprintf(w, "%s:%d:%d: ", filename, d.Line, d.Column)
		msgColor.Fprintln(w, d.Message)

		if d.Line < 1 || d.Line > len(lines) {
			continue
		}
		srcLine := lines[d.Line-1]
		fmt.Fprintf(w, "    %s\n", srcLine)

		col := d.Column
		if col < 1 {
			col = 1
		}
		// The error may point just past the end of the line (a missing
		// argument, for example).
		if col > len(srcLine)+1 {
			col = len(srcLine) + 1
		}
		caretColor.Fprintf(w, "    %s^\n", strings.Repeat(" ", col-1))
	}
}
