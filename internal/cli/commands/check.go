package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parley-lang/parley/internal/cli/ui"
	"github.com/parley-lang/parley/internal/compiler/ast"
	"github.com/parley-lang/parley/internal/compiler/parser"
)

var checkJSON bool

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Check dialogue scripts for errors",
		Long: `Parse dialogue scripts (.dsl) and report syntax errors and
transfers to steps that do not exist.

Examples:
  parley check                  # Check all .dsl files under the current directory
  parley check hospital.dsl     # Check one script
  parley check examples/        # Check every script in a directory
  parley check --json           # Machine-readable output`,
		RunE: runCheck,
	}

	cmd.Flags().BoolVar(&checkJSON, "json", false, "Output results in JSON format")

	return cmd
}

// checkIssue is one reported problem, JSON-ready for --json output.
type checkIssue struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	files, err := resolveScriptFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .dsl files found")
	}

	var issues []checkIssue
	for _, file := range files {
		source, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		diags := checkScript(string(source))
		if len(diags) == 0 {
			continue
		}

		if !checkJSON {
			ui.RenderDiagnostics(cmd.ErrOrStderr(), file, string(source), diags, false)
		}
		for _, d := range diags {
			issues = append(issues, checkIssue{
				File:    file,
				Line:    d.Line,
				Column:  d.Column,
				Message: d.Message,
			})
		}
	}

	if checkJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(struct {
			Success bool         `json:"success"`
			Checked int          `json:"checked"`
			Issues  []checkIssue `json:"issues"`
		}{
			Success: len(issues) == 0,
			Checked: len(files),
			Issues:  issues,
		}); err != nil {
			return err
		}
	}

	if len(issues) > 0 {
		return fmt.Errorf("found %d problem(s)", len(issues))
	}

	if !checkJSON {
		ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("%d script(s) OK", len(files)), false)
	}
	return nil
}

// checkScript parses source and reports syntax errors. When the parse is
// clean it additionally reports transfers to undefined steps, since those
// only surface at runtime otherwise.
func checkScript(source string) []ui.Diagnostic {
	script, parseErrors := parser.Compile(source)
	if len(parseErrors) > 0 {
		diags := make([]ui.Diagnostic, len(parseErrors))
		for i, pe := range parseErrors {
			diags[i] = ui.Diagnostic{Line: pe.Line, Column: pe.Column, Message: pe.Message}
		}
		return diags
	}
	return undefinedTargets(script)
}

// targetRef is one step transfer found while walking a script.
type targetRef struct {
	name string
	loc  ast.SourceLocation
	kind string
}

// undefinedTargets reports every Branch, Silence, Default, and Goto that
// names a step the script does not define.
func undefinedTargets(script *ast.Script) []ui.Diagnostic {
	var diags []ui.Diagnostic

	for _, step := range script.StepsInOrder() {
		var refs []targetRef
		for _, br := range step.Branches {
			refs = append(refs, targetRef{name: br.Target, loc: br.Loc, kind: "Branch"})
		}
		// Silence and Default hoist onto the step without their own
		// locations; point at the step header.
		if step.SilenceTarget != "" {
			refs = append(refs, targetRef{name: step.SilenceTarget, loc: step.Loc, kind: "Silence"})
		}
		if step.DefaultTarget != "" {
			refs = append(refs, targetRef{name: step.DefaultTarget, loc: step.Loc, kind: "Default"})
		}
		refs = append(refs, gotoTargets(step.Statements)...)

		for _, ref := range refs {
			if _, ok := script.Lookup(ref.name); ok {
				continue
			}
			msg := fmt.Sprintf("%s target %q is not a step", ref.kind, ref.name)
			if suggestions := ui.FindSimilar(ref.name, script.Order, nil); len(suggestions) > 0 {
				msg += fmt.Sprintf(" (did you mean %q?)", suggestions[0])
			}
			diags = append(diags, ui.Diagnostic{
				Line:    ref.loc.Line,
				Column:  ref.loc.Column,
				Message: msg,
			})
		}
	}

	return diags
}

// gotoTargets collects Goto transfers, descending into If and While bodies.
func gotoTargets(stmts []ast.Statement) []targetRef {
	var refs []targetRef
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.GotoStmt:
			refs = append(refs, targetRef{name: s.Target, loc: s.Loc, kind: "Goto"})
		case *ast.IfStmt:
			refs = append(refs, gotoTargets(s.Then)...)
			refs = append(refs, gotoTargets(s.Else)...)
		case *ast.WhileStmt:
			refs = append(refs, gotoTargets(s.Body)...)
		}
	}
	return refs
}
