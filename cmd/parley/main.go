package main

import (
	"os"

	"github.com/parley-lang/parley/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
