// Package modified detects user-introduced local edits to an installed
// artifact by comparing current on-disk hashes against the baseline
// captured at the last reconciliation.
package modified

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/skillup/internal/hash"
)

// Report lists paths the user has touched since the last reconciliation.
type Report struct {
	// Edited paths exist on disk with a digest differing from the
	// baseline, or exist on disk without any baseline entry (a file the
	// user added post-install). Sorted by path.
	Edited []string

	// Deleted paths exist in the baseline but are gone from disk. They are
	// reported separately because the reconciliation policy treats
	// deletions differently from edits. Sorted by path.
	Deleted []string
}

// Empty reports whether no user modifications were detected.
func (r Report) Empty() bool {
	return len(r.Edited) == 0 && len(r.Deleted) == 0
}

// EditedSet returns the edited paths as a lookup set.
func (r Report) EditedSet() map[string]bool {
	set := make(map[string]bool, len(r.Edited))
	for _, p := range r.Edited {
		set[p] = true
	}
	return set
}

// Detect re-hashes the artifact directory and compares it against the
// baseline manifest.
//
// A nil baseline means no sidecar was present: detection returns an empty
// report, favoring a clean update over blocking the user.
func Detect(dir string, baseline map[string]string, excludes []string) (Report, error) {
	if baseline == nil {
		return Report{}, nil
	}

	current, err := hash.Manifest(dir, excludes)
	if err != nil {
		return Report{}, errors.Wrap(err, "hashing installed tree")
	}

	return Compare(current, baseline), nil
}

// Compare classifies the difference between a current manifest and a
// baseline manifest without touching the filesystem.
func Compare(current, baseline map[string]string) Report {
	var report Report

	for path, digest := range current {
		orig, ok := baseline[path]
		if !ok || orig != digest {
			report.Edited = append(report.Edited, path)
		}
	}
	for path := range baseline {
		if _, ok := current[path]; !ok {
			report.Deleted = append(report.Deleted, path)
		}
	}

	sort.Strings(report.Edited)
	sort.Strings(report.Deleted)

	return report
}
