// Package prompt provides interactive CLI prompts for user input.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/thoreinstein/skillup/internal/artifact"
)

// Sentinel errors for installation selection.
var (
	ErrNoInstallations    = errors.New("no installations to select from")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// SelectInstallation picks one installed copy when an artifact exists at
// multiple scopes. With a single candidate it auto-selects; on a TTY it
// opens a fuzzy finder; otherwise it falls back to a numbered prompt.
func SelectInstallation(installs []artifact.Installed) (*artifact.Installed, error) {
	if len(installs) == 0 {
		return nil, ErrNoInstallations
	}
	if len(installs) == 1 {
		return &installs[0], nil
	}

	idx, err := fuzzyfinder.Find(
		installs,
		func(i int) string {
			return fmt.Sprintf("%s [%s] %s", installs[i].Name, installs[i].Scope.Name, installs[i].Dir)
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			inst := installs[i]
			return fmt.Sprintf("Scope: %s\nDir: %s\nVersion: %s\n\n%s",
				inst.Scope.Name, inst.Dir, inst.Version, inst.Description)
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, ErrSelectionCancelled
		}
		// Fall back to a plain prompt when no TTY is available.
		return selectWithIO(os.Stdin, os.Stderr, installs)
	}

	return &installs[idx], nil
}

// selectWithIO is the non-TTY selection path, split out for testing.
func selectWithIO(r io.Reader, w io.Writer, installs []artifact.Installed) (*artifact.Installed, error) {
	fmt.Fprintf(w, "Artifact %q is installed at multiple scopes:\n", installs[0].Name)
	for i, inst := range installs {
		fmt.Fprintf(w, "  [%d] %s (%s)\n", i+1, inst.Scope.Name, inst.Dir)
	}
	fmt.Fprintf(w, "Select [1]: ")

	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return nil, ErrSelectionCancelled
	}

	input := strings.TrimSpace(scanner.Text())
	if input == "" {
		return &installs[0], nil
	}

	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(installs) {
		return nil, errors.Wrapf(ErrInvalidSelection, "%q", input)
	}

	return &installs[n-1], nil
}
