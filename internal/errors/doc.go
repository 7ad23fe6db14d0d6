// Package errors provides CLI-boundary error conventions for skillup.
//
// Domain sentinels live next to the code that produces them (for example
// artifact.ErrNotInstalled and backup.ErrBackupFailed) and are checked
// with errors.Is. This package only carries what the CLI needs to turn an
// error chain into process behavior: exit code constants following Unix
// conventions and the [ExitError] wrapper that commands use to attach a
// code and an actionable suggestion:
//
//	err := skuperrors.NewUserError(reconcile.ErrInconsistentOverride,
//	    "re-run with --force to overwrite user edits")
//	var exitErr *skuperrors.ExitError
//	if errors.As(err, &exitErr) {
//	    os.Exit(exitErr.Code)
//	}
package errors
