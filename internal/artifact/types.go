// Package artifact defines the installed-artifact and candidate data
// model and the locator that discovers installed copies across scopes.
package artifact

import (
	"time"

	"github.com/thoreinstein/skillup/internal/hash"
)

// Scope is an installation root under which artifacts may independently
// exist, e.g. the user-level skill directory or a project-local one.
type Scope struct {
	// Name identifies the scope in output ("user", "project").
	Name string

	// Root is the directory containing one subdirectory per artifact.
	Root string
}

// Installed describes one installed copy of a named artifact.
type Installed struct {
	// Name is the artifact identity; also its directory name under the scope root.
	Name string

	// Scope is where this copy was found.
	Scope Scope

	// Dir is the absolute path of the artifact directory.
	Dir string

	// Version is the installed version: the sidecar's recorded version
	// when present, otherwise the marker frontmatter's version.
	Version string

	// Description comes from the marker frontmatter, for display.
	Description string

	// FileHashes is the current on-disk hash manifest.
	FileHashes map[string]string

	// OriginalFileHashes is the baseline manifest captured at the last
	// reconciliation. Nil when no sidecar exists.
	OriginalFileHashes map[string]string

	// UpdatedAt is the last reconciliation time, zero when no sidecar exists.
	UpdatedAt time.Time
}

// HasBaseline reports whether a local-modification baseline is available.
func (a *Installed) HasBaseline() bool {
	return a.OriginalFileHashes != nil
}

// Candidate is a newly generated or fetched artifact awaiting
// reconciliation. It is immutable input: produced once per attempt and
// discarded after use.
type Candidate struct {
	// Name is the artifact identity.
	Name string

	// Version is the candidate version string.
	Version string

	// Content maps slash-separated relative paths to file contents.
	Content map[string][]byte
}

// Hashes returns the candidate's digest manifest.
func (c *Candidate) Hashes() map[string]string {
	return hash.HashContent(c.Content)
}

// Marker is the typed frontmatter of a SKILL.md marker file.
type Marker struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
}
