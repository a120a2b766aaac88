// Package commands implements the parley CLI: script checking and
// formatting, interactive dialogue sessions, the chat server, and the
// language server.
package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/parley-lang/parley/internal/cli/ui"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "parley",
		Short: "Parley dialogue scripting language and tooling",
		Long: color.CyanString(`Parley - Scripted Dialogue Engine

Parley runs conversational scenarios written in a small dialogue DSL.
Scripts declare steps that speak, listen, and branch on recognized
intents; the engine executes them per session, locally or behind the
chat server.

Features:
  • Step-based dialogue scripts with branching on intents
  • Local TF-IDF intent recognition, optional LLM-backed recognizer
  • Interactive terminal chat and an HTTP/WebSocket server
  • Formatter, linter, and LSP for editing scripts`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewFmtCommand())
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewChatCommand())
	rootCmd.AddCommand(NewScenariosCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewLSPCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the Parley version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			table := ui.NewKeyValueTable(cmd.OutOrStdout(), false)
			table.AddRow("Parley version", Version)
			table.AddRow("Git commit", GitCommit)
			table.AddRow("Build date", BuildDate)
			table.AddRow("Go version", goVer)
			table.Render()
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
