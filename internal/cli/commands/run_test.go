package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func resetRunFlags(t *testing.T) {
	t.Helper()
	runVars = nil
	runRemote = false
	runModel = ""
	t.Cleanup(func() {
		runVars = nil
		runRemote = false
		runModel = ""
	})
}

func TestRunCommandFinishes(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()
	resetRunFlags(t)

	dir := t.TempDir()
	file := writeScript(t, dir, "greet.dsl", "Step only\n  Speak $name\n  Exit\n")

	cmd := NewRunCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{file, "--var", "name=Ada"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("run failed: %v\nstderr: %s", err, errOut.String())
	}

	transcript := out.String()
	for _, want := range []string{"greet", "Bot: Ada", "Dialogue finished"} {
		if !strings.Contains(transcript, want) {
			t.Errorf("transcript missing %q:\n%s", want, transcript)
		}
	}
}

func TestRunCommandParseError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()
	resetRunFlags(t)

	dir := t.TempDir()
	file := writeScript(t, dir, "broken.dsl", "Step broken\n  Speak\n")

	cmd := NewRunCommand()
	var errOut bytes.Buffer
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{file})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for broken script")
	}
	if !strings.Contains(err.Error(), "error(s)") {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(errOut.String(), file+":2:") {
		t.Errorf("expected diagnostic location on stderr, got %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "^") {
		t.Errorf("expected caret under the error, got %q", errOut.String())
	}
}

func TestRunCommandMissingFile(t *testing.T) {
	resetRunFlags(t)

	cmd := NewRunCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "nope.dsl")})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunCommandBadVarFlag(t *testing.T) {
	resetRunFlags(t)

	dir := t.TempDir()
	file := writeScript(t, dir, "greet.dsl", "Step only\n  Speak \"Hi\"\n  Exit\n")

	cmd := NewRunCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{file, "--var", "malformed"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for malformed --var")
	}
	if !strings.Contains(err.Error(), "expected key=value") {
		t.Errorf("unexpected error: %v", err)
	}
}
