// Package main is the entry point for the skillup CLI.
package main

import (
	"os"

	"github.com/thoreinstein/skillup/cmd/skillup/commands"
	skuperrors "github.com/thoreinstein/skillup/internal/errors"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(skuperrors.CodeFor(err))
	}
}
