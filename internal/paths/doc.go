// Package paths centralizes filesystem path resolution for skillup.
//
// It knows the well-known file names inside an installed artifact (the
// SKILL.md marker, the metadata sidecar, the execute lock), the default
// install roots for the user and project scopes, and the XDG-based
// locations for config, data, and backups. No other package should
// construct environment-dependent paths directly.
package paths
