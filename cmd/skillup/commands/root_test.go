package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	var buf bytes.Buffer
	cmd.SetErr(&buf)
	cmd.SetOut(&buf)
	return cmd
}

func TestSetupLoggingRejectsQuietAndVerbose(t *testing.T) {
	origQuiet, origVerbosity := quiet, verbosity
	t.Cleanup(func() { quiet, verbosity = origQuiet, origVerbosity })

	quiet = true
	verbosity = 1

	if err := setupLogging(newTestCommand()); err == nil {
		t.Error("setupLogging() with --quiet and --verbose: expected error")
	}
}

func TestSetupLoggingDefaults(t *testing.T) {
	origQuiet, origVerbosity := quiet, verbosity
	origFormat, origFile := logFormat, logFile
	t.Cleanup(func() {
		quiet, verbosity = origQuiet, origVerbosity
		logFormat, logFile = origFormat, origFile
	})

	quiet = false
	verbosity = 0
	logFormat = "text"
	logFile = ""

	cmd := newTestCommand()
	if err := setupLogging(cmd); err != nil {
		t.Fatalf("setupLogging() error = %v", err)
	}
	if cmd.Context() == nil {
		t.Error("setupLogging() did not attach a context")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	joined := strings.Join(names, " ")
	for _, want := range []string{"plan", "apply", "list", "install", "backup"} {
		if !strings.Contains(joined, want) {
			t.Errorf("root command missing %q subcommand: %v", want, names)
		}
	}
}

func TestFilterScopes(t *testing.T) {
	scopes := searchScopes()

	all, err := filterScopes(scopes, "")
	if err != nil {
		t.Fatalf("filterScopes(\"\") error = %v", err)
	}
	if len(all) != len(scopes) {
		t.Errorf("filterScopes(\"\") narrowed the list")
	}

	users, err := filterScopes(scopes, "user")
	if err != nil {
		t.Fatalf("filterScopes(user) error = %v", err)
	}
	for _, s := range users {
		if s.Name != "user" {
			t.Errorf("filterScopes(user) returned scope %q", s.Name)
		}
	}

	if _, err := filterScopes(scopes, "galaxy"); err == nil {
		t.Error("filterScopes(galaxy): expected error")
	}
}
