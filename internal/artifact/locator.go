package artifact

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/skillup/internal/hash"
	"github.com/thoreinstein/skillup/internal/metadata"
	"github.com/thoreinstein/skillup/internal/paths"
	"github.com/thoreinstein/skillup/pkg/frontmatter"
)

// ErrNotInstalled indicates no installed copy of the artifact was found
// in any requested scope. It is reported, not fatal: callers may offer a
// fresh install instead.
var ErrNotInstalled = errors.New("artifact not installed")

// Locator finds installed copies of named artifacts. It is read-only: no
// call mutates the scanned trees.
type Locator struct {
	excludes []string
	logger   *slog.Logger
}

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithExcludes sets the manifest exclude list.
func WithExcludes(excludes []string) LocatorOption {
	return func(l *Locator) {
		l.excludes = excludes
	}
}

// WithLogger sets the locator's logger.
func WithLogger(logger *slog.Logger) LocatorOption {
	return func(l *Locator) {
		l.logger = logger
	}
}

// NewLocator creates a Locator with the default exclude list and a
// warn-level stderr logger.
func NewLocator(opts ...LocatorOption) *Locator {
	l := &Locator{
		excludes: paths.DefaultExcludes(),
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		})),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// UserScope returns the user-level scope.
func UserScope() Scope {
	return Scope{Name: "user", Root: paths.UserSkillRoot()}
}

// ProjectScope returns the project-level scope rooted at projectRoot.
func ProjectScope(projectRoot string) Scope {
	return Scope{Name: "project", Root: paths.ProjectSkillRoot(projectRoot)}
}

// Locate searches the given scopes for installed copies of name.
// An artifact may be installed at multiple scope levels simultaneously;
// the result preserves scope order. An empty result is not an error.
func (l *Locator) Locate(name string, scopes []Scope) ([]Installed, error) {
	if name == "" {
		return nil, errors.New("artifact name is required")
	}

	var found []Installed
	for _, scope := range scopes {
		if scope.Root == "" {
			continue
		}

		inst, ok, err := l.load(name, scope)
		if err != nil {
			return nil, errors.Wrapf(err, "loading %s from %s scope", name, scope.Name)
		}
		if ok {
			l.logger.Debug("located installed artifact",
				"name", name,
				"scope", scope.Name,
				"dir", inst.Dir)
			found = append(found, *inst)
		}
	}

	return found, nil
}

// load reads one installed copy from a scope. ok is false when the scope
// does not contain the artifact (no directory, or no marker file).
func (l *Locator) load(name string, scope Scope) (*Installed, bool, error) {
	dir := filepath.Join(scope.Root, name)

	marker, ok, err := readMarker(dir)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	inst := &Installed{
		Name:        name,
		Scope:       scope,
		Dir:         dir,
		Version:     marker.Version,
		Description: marker.Description,
	}

	inst.FileHashes, err = hash.Manifest(dir, l.excludes)
	if err != nil {
		return nil, false, err
	}

	md, err := metadata.Load(dir)
	if err != nil {
		return nil, false, err
	}
	if md != nil {
		inst.OriginalFileHashes = md.OriginalFileHashes
		inst.UpdatedAt = md.UpdatedAt
		if md.Version != "" {
			inst.Version = md.Version
		}
	}

	return inst, true, nil
}

// List returns every installed artifact under a scope, sorted by the
// directory listing order of the scope root.
func (l *Locator) List(scope Scope) ([]Installed, error) {
	if scope.Root == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(scope.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading scope root %s", scope.Root)
	}

	var out []Installed
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		inst, ok, err := l.load(entry.Name(), scope)
		if err != nil {
			l.logger.Warn("skipping unreadable artifact",
				"name", entry.Name(),
				"scope", scope.Name,
				"error", err)
			continue
		}
		if ok {
			out = append(out, *inst)
		}
	}

	return out, nil
}

// readMarker parses the SKILL.md frontmatter in dir. ok is false when the
// marker file does not exist.
func readMarker(dir string) (*Marker, bool, error) {
	data, err := os.ReadFile(paths.MarkerPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "reading marker file")
	}

	var marker Marker
	if _, err := frontmatter.Parse(bytes.NewReader(data), &marker); err != nil {
		return nil, false, errors.Wrapf(err, "parsing %s", paths.MarkerName)
	}

	return &marker, true, nil
}
