package commands

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/parley-lang/parley/internal/cli/ui"
	"github.com/parley-lang/parley/internal/interpreter"
	"github.com/parley-lang/parley/internal/scenario"
)

var (
	chatDir    string
	chatVars   []string
	chatRemote bool
	chatModel  string
)

// NewChatCommand creates the chat command
func NewChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [scenario]",
		Short: "Chat with a scenario from the catalog",
		Long: `Start an interactive dialogue with one of the bundled scenarios.
With no argument, pick from the catalog. Type /quit to leave.

Examples:
  parley chat                   # Pick a scenario interactively
  parley chat hospital          # Start the hospital scenario
  parley chat theater --remote  # LLM-backed intent recognition`,
		Args: cobra.MaximumNArgs(1),
		RunE: runChat,
	}

	cmd.Flags().StringVar(&chatDir, "dir", "examples", "Directory holding scripts and the scenario manifest")
	cmd.Flags().StringArrayVar(&chatVars, "var", nil, "Initial session variable (key=value, repeatable)")
	cmd.Flags().BoolVar(&chatRemote, "remote", false, "Use the LLM-backed intent recognizer (needs OPENAI_API_KEY)")
	cmd.Flags().StringVar(&chatModel, "model", "", "Model for --remote recognition")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	manager := scenario.NewManager(chatDir, nil)
	if err := manager.Load(); err != nil {
		return err
	}

	catalog := manager.Enabled()
	if len(catalog) == 0 {
		return fmt.Errorf("no scenarios found in %s", chatDir)
	}

	var selected *scenario.Scenario
	if len(args) == 1 {
		s, err := manager.Get(args[0])
		if err != nil {
			if errors.Is(err, scenario.ErrScenarioNotFound) {
				ids := make([]string, len(catalog))
				for i, c := range catalog {
					ids[i] = c.ID
				}
				fmt.Fprint(cmd.ErrOrStderr(), ui.ScenarioNotFoundError(args[0], ui.FindSimilar(args[0], ids, nil), false))
			}
			return err
		}
		selected = s
	} else {
		picked, err := pickScenario(catalog)
		if err != nil {
			return err
		}
		selected = picked
	}

	script, err := manager.CompiledScript(selected.ID)
	if err != nil {
		return err
	}

	vars, err := parseVarFlags(chatVars)
	if err != nil {
		return err
	}

	recognizer := buildRecognizer(cmd, selected.ID, chatRemote, chatModel)
	eng := interpreter.New(script, recognizer, nil)

	ui.Header(cmd.OutOrStdout(), fmt.Sprintf("%s %s", selected.Icon, selected.Name), false)
	if selected.Description != "" {
		fmt.Fprintln(cmd.OutOrStdout(), selected.Description)
	}
	fmt.Fprintln(cmd.OutOrStdout())

	return runDialogue(cmd, eng, uuid.NewString(), vars, chatRemote)
}

// pickScenario prompts for a scenario from the catalog.
func pickScenario(catalog []*scenario.Scenario) (*scenario.Scenario, error) {
	options := make([]string, len(catalog))
	for i, s := range catalog {
		options[i] = fmt.Sprintf("%s %s - %s", s.Icon, s.Name, s.Description)
	}

	var index int
	prompt := &survey.Select{
		Message:  "Pick a scenario:",
		Options:  options,
		PageSize: 10,
	}
	if err := survey.AskOne(prompt, &index); err != nil {
		return nil, err
	}

	return catalog[index], nil
}
