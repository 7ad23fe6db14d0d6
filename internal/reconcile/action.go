// Package reconcile plans and executes safe updates of installed skill
// artifacts.
//
// Planning is a single-shot decision function over the version
// comparison, the change set, and the local modification report; it never
// touches the filesystem. Execution consumes the plan as an immutable
// value and performs the chosen action with fail-closed backups and
// metadata commits that happen only after every file write has succeeded.
package reconcile

import "github.com/cockroachdb/errors"

// Action is an update strategy the executor can perform.
type Action string

const (
	// Skip leaves the installation untouched.
	Skip Action = "skip"

	// UpdateInPlace replaces the installed tree with the candidate.
	UpdateInPlace Action = "update-in-place"

	// BackupThenUpdate backs up the full installed tree, then updates in place.
	BackupThenUpdate Action = "backup-then-update"

	// Merge writes candidate files except where the user has edited,
	// preserving edited files on disk.
	Merge Action = "merge"

	// SideBySide installs the candidate into a versioned sibling
	// directory, leaving the existing installation fully untouched.
	SideBySide Action = "side-by-side"
)

// ErrUnknownAction indicates an action string that names no strategy.
var ErrUnknownAction = errors.New("unknown action")

// ParseAction converts a CLI-supplied string into an Action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case Skip, UpdateInPlace, BackupThenUpdate, Merge, SideBySide:
		return Action(s), nil
	default:
		return "", errors.Wrapf(ErrUnknownAction, "%q", s)
	}
}

// Destructive reports whether the action overwrites or deletes any file
// of the existing installation.
func (a Action) Destructive() bool {
	switch a {
	case Skip, SideBySide:
		return false
	default:
		return true
	}
}
