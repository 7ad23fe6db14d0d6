package artifact

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/skillup/internal/hash"
	"github.com/thoreinstein/skillup/internal/paths"
	"github.com/thoreinstein/skillup/pkg/fileutil"
	"github.com/thoreinstein/skillup/pkg/frontmatter"
)

// ErrNoMarker indicates the candidate directory lacks a SKILL.md marker.
var ErrNoMarker = errors.New("candidate has no marker file")

// LoadCandidate reads a generated or exported skill tree from dir into an
// in-memory Candidate. The artifact name comes from the marker
// frontmatter when set, otherwise from the directory's base name; the
// version comes from the marker frontmatter. Files matching the exclude
// list are not loaded.
func LoadCandidate(dir string, excludes []string) (*Candidate, error) {
	markerData, err := os.ReadFile(paths.MarkerPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNoMarker, "no %s in %s", paths.MarkerName, dir)
		}
		return nil, errors.Wrap(err, "reading marker file")
	}

	var marker Marker
	if _, err := frontmatter.MustParse(bytes.NewReader(markerData), &marker); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", paths.MarkerName)
	}

	cand := &Candidate{
		Name:    marker.Name,
		Version: marker.Version,
		Content: make(map[string][]byte),
	}
	if cand.Name == "" {
		cand.Name = filepath.Base(filepath.Clean(dir))
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walking %s", path)
		}
		if path == dir {
			return nil
		}

		if hash.Excluded(d.Name(), excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		data, err := fileutil.ReadFileWithLimit(path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return errors.Wrapf(err, "relativizing %s", path)
		}
		cand.Content[filepath.ToSlash(rel)] = data

		return nil
	})
	if err != nil {
		return nil, err
	}

	return cand, nil
}
