package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/parley-lang/parley/internal/format"
	"github.com/parley-lang/parley/internal/utils"
)

var (
	fmtWrite  bool
	fmtCheck  bool
	fmtConfig string
)

// NewFmtCommand creates the fmt command
func NewFmtCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt [files...]",
		Short: "Format dialogue scripts",
		Long: `Format dialogue scripts (.dsl) using the configured style rules.

By default, shows a diff preview of what would change without modifying files.
Use --write to apply formatting changes, or --check to verify formatting.

Examples:
  parley fmt                    # Show diff for all .dsl files
  parley fmt --write            # Format and save all files
  parley fmt --check            # Exit with error if not formatted
  parley fmt hospital.dsl       # Format specific file`,
		RunE: runFmt,
	}

	cmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "Write formatted output to files")
	cmd.Flags().BoolVarP(&fmtCheck, "check", "c", false, "Check if files are formatted (exit 1 if not)")
	cmd.Flags().StringVar(&fmtConfig, "config", ".parley-format.yml", "Path to formatting config file")

	return cmd
}

func runFmt(cmd *cobra.Command, args []string) error {
	config, err := format.LoadConfig(fmtConfig)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	files, err := resolveScriptFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .dsl files found")
	}

	hasChanges := false
	errorCount := 0

	titleColor := color.New(color.FgCyan, color.Bold)
	successColor := color.New(color.FgGreen)
	errorColor := color.New(color.FgRed, color.Bold)

	formatter := format.New(config)
	for _, file := range files {
		original, err := os.ReadFile(file)
		if err != nil {
			errorColor.Fprintf(cmd.ErrOrStderr(), "Error reading %s: %v\n", file, err)
			errorCount++
			continue
		}

		formatted, err := formatter.Format(string(original))
		if err != nil {
			errorColor.Fprintf(cmd.ErrOrStderr(), "Error formatting %s: %v\n", file, err)
			errorCount++
			continue
		}

		diff := format.Diff(string(original), formatted)
		if !diff.Changed {
			if !fmtCheck {
				successColor.Fprintf(cmd.OutOrStdout(), "✓ %s (no changes)\n", file)
			}
			continue
		}

		hasChanges = true

		if fmtCheck {
			errorColor.Fprintf(cmd.ErrOrStderr(), "✗ %s needs formatting\n", file)
		} else if fmtWrite {
			if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
				errorColor.Fprintf(cmd.ErrOrStderr(), "Error writing %s: %v\n", file, err)
				errorCount++
				continue
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✓ %s formatted\n", file)
		} else {
			titleColor.Fprintf(cmd.OutOrStdout(), "\n=== %s ===\n", file)
			fmt.Fprintln(cmd.OutOrStdout(), diff.String())
		}
	}

	if !fmtWrite && !fmtCheck && hasChanges {
		fmt.Fprintf(cmd.OutOrStdout(), "\n")
		titleColor.Fprintf(cmd.OutOrStdout(), "Run 'parley fmt --write' to apply changes\n")
	}

	if fmtCheck && hasChanges {
		return fmt.Errorf("files need formatting")
	}

	if errorCount > 0 {
		return fmt.Errorf("%d files had errors", errorCount)
	}

	return nil
}

// resolveScriptFiles expands the given paths into .dsl files. Directories
// are walked recursively; no arguments means the current directory.
func resolveScriptFiles(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	var files []string
	for _, pattern := range patterns {
		info, err := os.Stat(pattern)
		if err == nil && info.IsDir() {
			found, err := utils.FindScriptFiles(pattern)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %s", pattern)
		}
		for _, match := range matches {
			if filepath.Ext(match) == ".dsl" {
				files = append(files, match)
			}
		}
	}

	// Remove duplicates, preserving order.
	seen := make(map[string]bool)
	unique := files[:0]
	for _, file := range files {
		if !seen[file] {
			seen[file] = true
			unique = append(unique, file)
		}
	}

	return unique, nil
}
