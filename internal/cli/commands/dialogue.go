package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/parley-lang/parley/internal/cli/ui"
	"github.com/parley-lang/parley/internal/intent"
	"github.com/parley-lang/parley/internal/interpreter"
	"github.com/parley-lang/parley/internal/session"
)

// quitCommand ends an interactive dialogue without finishing it.
const quitCommand = "/quit"

// runDialogue drives one session over the command's stdin and stdout until
// the dialogue reaches a terminal state, the user types /quit, or stdin
// closes.
func runDialogue(cmd *cobra.Command, eng *interpreter.Interpreter, sessionID string, vars map[string]interface{}, showSpinner bool) error {
	out := cmd.OutOrStdout()

	eng.CreateSession(sessionID, vars)
	defer eng.RemoveSession(sessionID)

	output := eng.Start(cmd.Context(), sessionID)
	printBotOutput(cmd, output)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	youColor := color.New(color.FgGreen, color.Bold)

	for output.State == session.StateWaitingInput {
		youColor.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		if text == quitCommand {
			return nil
		}

		if showSpinner {
			spinner := ui.NewSpinner(out, ui.SpinnerOptions{Message: "Thinking..."})
			spinner.Start()
			output = eng.ProcessInput(cmd.Context(), sessionID, text)
			spinner.Stop()
		} else {
			output = eng.ProcessInput(cmd.Context(), sessionID, text)
		}
		printBotOutput(cmd, output)
	}

	if output.State == session.StateError {
		return fmt.Errorf("dialogue failed: %s", output.Message)
	}

	ui.WriteSuccess(out, "Dialogue finished", false)
	return nil
}

// printBotOutput renders one engine response. Multi-line messages keep
// their line breaks, with continuation lines aligned under the first.
func printBotOutput(cmd *cobra.Command, output interpreter.Output) {
	out := cmd.OutOrStdout()
	botColor := color.New(color.FgCyan, color.Bold)
	dimColor := color.New(color.FgHiBlack)

	if output.Message != "" {
		lines := strings.Split(output.Message, "\n")
		botColor.Fprint(out, "Bot: ")
		fmt.Fprintln(out, lines[0])
		for _, line := range lines[1:] {
			fmt.Fprintf(out, "     %s\n", line)
		}
	}

	if output.WaitingForInput && len(output.AvailableIntents) > 0 {
		dimColor.Fprintf(out, "(expecting: %s)\n", strings.Join(output.AvailableIntents, ", "))
	}
}

// buildRecognizer picks the recognizer for an interactive session. Remote
// recognition needs OPENAI_API_KEY; without it we warn and fall back to
// the local recognizer.
func buildRecognizer(cmd *cobra.Command, scenarioID string, remote bool, model string) intent.Recognizer {
	if remote {
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey != "" {
			return intent.NewRemote(intent.RemoteConfig{
				APIKey: apiKey,
				Model:  model,
			})
		}
		fmt.Fprint(cmd.ErrOrStderr(), ui.Warning("OPENAI_API_KEY is not set; using local intent recognition", nil, false))
	}
	return intent.NewLocalForScenario(scenarioID)
}

// parseVarFlags turns repeated --var key=value flags into the session's
// initial variables.
func parseVarFlags(pairs []string) (map[string]interface{}, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	vars := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", pair)
		}
		vars[key] = value
	}
	return vars, nil
}
