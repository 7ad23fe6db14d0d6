// Package logging provides structured logging for skillup on top of log/slog.
//
// The package supplies a TTY-optimized text handler with color support, a
// JSON handler for machine consumption, and a multi-handler for writing
// to the terminal and a log file at once. Commands derive their logger
// from verbosity flags via [LevelFromVerbosity] and pass it through the
// command context with [NewContext].
package logging
