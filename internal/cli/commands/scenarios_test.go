package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestScenariosCommand(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()
	scenariosDir = "examples"
	t.Cleanup(func() { scenariosDir = "examples" })

	dir := writeCatalog(t)

	cmd := NewScenariosCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--dir", dir})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("scenarios failed: %v", err)
	}

	listing := out.String()
	for _, want := range []string{"ID", "NAME", "STEPS", "SCRIPT"} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing missing header %q:\n%s", want, listing)
		}
	}

	lines := strings.Split(listing, "\n")
	rowFor := func(id string) string {
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), id) {
				return line
			}
		}
		t.Fatalf("no row for %q in listing:\n%s", id, listing)
		return ""
	}

	greeting := rowFor("greeting")
	if !strings.Contains(greeting, "1") || !strings.Contains(greeting, "greeting.dsl") {
		t.Errorf("unexpected greeting row: %q", greeting)
	}

	theater := rowFor("theater")
	if !strings.Contains(theater, "2") || !strings.Contains(theater, "theater.dsl") {
		t.Errorf("unexpected theater row: %q", theater)
	}

	// Unparseable scripts are listed, with the status in the steps column.
	broken := rowFor("broken")
	if !strings.Contains(broken, "parse error") {
		t.Errorf("unexpected broken row: %q", broken)
	}

	if strings.Contains(listing, "secret") || strings.Contains(listing, "Secret") {
		t.Errorf("disabled scenario should not be listed:\n%s", listing)
	}

	// Catalog order: manifest entries first, discovered scripts last.
	if strings.Index(listing, "greeting") > strings.Index(listing, "theater") {
		t.Error("greeting should sort before theater")
	}
	if strings.Index(listing, "theater") > strings.Index(listing, "broken") {
		t.Error("declared scenarios should sort before discovered ones")
	}
}

func TestScenariosCommandEmptyDir(t *testing.T) {
	scenariosDir = "examples"
	t.Cleanup(func() { scenariosDir = "examples" })

	cmd := NewScenariosCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--dir", t.TempDir()})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for empty catalog")
	}
	if !strings.Contains(err.Error(), "no scenarios found") {
		t.Errorf("unexpected error: %v", err)
	}
}
