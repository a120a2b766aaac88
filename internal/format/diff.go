package format

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// DiffResult represents the difference between original and formatted
// script source
type DiffResult struct {
	Original  string
	Formatted string
	Changed   bool
}

// Diff compares original and formatted source and returns the difference
func Diff(original, formatted string) *DiffResult {
	return &DiffResult{
		Original:  original,
		Formatted: formatted,
		Changed:   original != formatted,
	}
}

// linePair holds the original and formatted text at one line position
type linePair struct {
	number    int
	original  string
	formatted string
}

// changedLines pairs up lines positionally and returns the ones that differ
func (d *DiffResult) changedLines() []linePair {
	originalLines := strings.Split(d.Original, "\n")
	formattedLines := strings.Split(d.Formatted, "\n")

	maxLines := len(originalLines)
	if len(formattedLines) > maxLines {
		maxLines = len(formattedLines)
	}

	var pairs []linePair
	for i := 0; i < maxLines; i++ {
		pair := linePair{number: i + 1}
		if i < len(originalLines) {
			pair.original = originalLines[i]
		}
		if i < len(formattedLines) {
			pair.formatted = formattedLines[i]
		}
		if pair.original != pair.formatted {
			pairs = append(pairs, pair)
		}
	}
	return pairs
}

// String returns a human-readable diff with color highlighting
func (d *DiffResult) String() string {
	if !d.Changed {
		return color.GreenString("No changes needed")
	}

	var buf bytes.Buffer

	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	for _, pair := range d.changedLines() {
		cyan.Fprintf(&buf, "@@ Line %d @@\n", pair.number)
		if pair.original != "" {
			red.Fprintf(&buf, "- %s\n", pair.original)
		}
		if pair.formatted != "" {
			green.Fprintf(&buf, "+ %s\n", pair.formatted)
		}
	}

	return buf.String()
}

// UnifiedDiff returns a unified diff format string
func (d *DiffResult) UnifiedDiff(filename string) string {
	if !d.Changed {
		return ""
	}

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "--- a/%s\n", filename)
	fmt.Fprintf(&buf, "+++ b/%s\n", filename)

	for _, pair := range d.changedLines() {
		fmt.Fprintf(&buf, "@@ -%d +%d @@\n", pair.number, pair.number)
		if pair.original != "" {
			fmt.Fprintf(&buf, "-%s\n", pair.original)
		}
		if pair.formatted != "" {
			fmt.Fprintf(&buf, "+%s\n", pair.formatted)
		}
	}

	return buf.String()
}
