package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/parley-lang/parley/internal/cli/ui"
	"github.com/parley-lang/parley/internal/compiler/parser"
	"github.com/parley-lang/parley/internal/interpreter"
)

var (
	runVars   []string
	runRemote bool
	runModel  string
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script.dsl>",
		Short: "Run a dialogue script interactively",
		Long: `Run a single dialogue script in the terminal. The script is
parsed, a session is started, and your input drives it until an Exit
step is reached. Type /quit to leave early.

Examples:
  parley run hospital.dsl
  parley run hospital.dsl --var name=Ada
  parley run hospital.dsl --remote --model gpt-4o-mini`,
		Args: cobra.ExactArgs(1),
		RunE: runRun,
	}

	cmd.Flags().StringArrayVar(&runVars, "var", nil, "Initial session variable (key=value, repeatable)")
	cmd.Flags().BoolVar(&runRemote, "remote", false, "Use the LLM-backed intent recognizer (needs OPENAI_API_KEY)")
	cmd.Flags().StringVar(&runModel, "model", "", "Model for --remote recognition")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	file := args[0]

	source, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	script, parseErrors := parser.Compile(string(source))
	if len(parseErrors) > 0 {
		diags := make([]ui.Diagnostic, len(parseErrors))
		for i, pe := range parseErrors {
			diags[i] = ui.Diagnostic{Line: pe.Line, Column: pe.Column, Message: pe.Message}
		}
		ui.RenderDiagnostics(cmd.ErrOrStderr(), file, string(source), diags, false)
		return fmt.Errorf("%s has %d error(s)", file, len(parseErrors))
	}

	vars, err := parseVarFlags(runVars)
	if err != nil {
		return err
	}

	scenarioID := strings.TrimSuffix(filepath.Base(file), ".dsl")
	recognizer := buildRecognizer(cmd, scenarioID, runRemote, runModel)
	eng := interpreter.New(script, recognizer, nil)

	ui.Header(cmd.OutOrStdout(), scenarioID, false)
	return runDialogue(cmd, eng, uuid.NewString(), vars, runRemote)
}
