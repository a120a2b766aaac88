package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/parley-lang/parley/internal/cli/ui"
	"github.com/parley-lang/parley/internal/scenario"
)

var scenariosDir string

// NewScenariosCommand creates the scenarios command
func NewScenariosCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the scenario catalog",
		Long: `List every enabled scenario in the scripts directory, with the
step count of each script (or its parse status).

Examples:
  parley scenarios
  parley scenarios --dir scripts/`,
		RunE: runScenarios,
	}

	cmd.Flags().StringVar(&scenariosDir, "dir", "examples", "Directory holding scripts and the scenario manifest")

	return cmd
}

func runScenarios(cmd *cobra.Command, args []string) error {
	manager := scenario.NewManager(scenariosDir, nil)
	if err := manager.Load(); err != nil {
		return err
	}

	catalog := manager.Enabled()
	if len(catalog) == 0 {
		return fmt.Errorf("no scenarios found in %s", scenariosDir)
	}

	out := cmd.OutOrStdout()
	ui.Header(out, fmt.Sprintf("Scenarios in %s", scenariosDir), false)

	table := ui.NewTable(out, []string{"ID", "NAME", "STEPS", "SCRIPT"}, nil)
	for _, s := range catalog {
		steps := "parse error"
		if script, err := manager.CompiledScript(s.ID); err == nil {
			steps = strconv.Itoa(len(script.Order))
		}
		table.AddRow(s.ID, s.Name, steps, s.Script)
	}
	table.Render()

	return nil
}
