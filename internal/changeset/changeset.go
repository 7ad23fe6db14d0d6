// Package changeset diffs two file-hash manifests into per-file change
// records.
package changeset

import (
	"fmt"
	"sort"
)

// Category classifies the difference for a single path between the
// installed manifest and the candidate manifest.
type Category string

const (
	// Added means the path exists only in the candidate.
	Added Category = "added"
	// Modified means the path exists in both with different digests.
	Modified Category = "modified"
	// Removed means the path exists only in the installed manifest.
	Removed Category = "removed"
	// Unchanged means the path exists in both with equal digests.
	Unchanged Category = "unchanged"
)

// Record describes the change for one path. InstalledHash and
// CandidateHash are empty when the path is absent from the respective
// manifest. UserModified is filled in by the planner from the local
// modification report; the diff itself never sets it.
type Record struct {
	Path          string
	Category      Category
	InstalledHash string
	CandidateHash string
	UserModified  bool
}

// Diff computes the change records over the union of both manifests,
// sorted by path. It is a pure map operation: deterministic and
// order-independent.
func Diff(installed, candidate map[string]string) []Record {
	paths := make(map[string]struct{}, len(installed)+len(candidate))
	for p := range installed {
		paths[p] = struct{}{}
	}
	for p := range candidate {
		paths[p] = struct{}{}
	}

	records := make([]Record, 0, len(paths))
	for p := range paths {
		ih, inInstalled := installed[p]
		ch, inCandidate := candidate[p]

		rec := Record{
			Path:          p,
			InstalledHash: ih,
			CandidateHash: ch,
		}
		switch {
		case !inInstalled:
			rec.Category = Added
		case !inCandidate:
			rec.Category = Removed
		case ih != ch:
			rec.Category = Modified
		default:
			rec.Category = Unchanged
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Path < records[j].Path
	})

	return records
}

// Tally holds per-category counts for a change set.
type Tally struct {
	Added     int
	Modified  int
	Removed   int
	Unchanged int
}

// Count tallies the records by category.
func Count(records []Record) Tally {
	var t Tally
	for _, rec := range records {
		switch rec.Category {
		case Added:
			t.Added++
		case Modified:
			t.Modified++
		case Removed:
			t.Removed++
		case Unchanged:
			t.Unchanged++
		}
	}
	return t
}

// String renders the tally as a short summary, e.g. "2 added, 1 modified, 0 removed".
func (t Tally) String() string {
	return fmt.Sprintf("%d added, %d modified, %d removed", t.Added, t.Modified, t.Removed)
}

// HasChanges reports whether any record is not Unchanged.
func (t Tally) HasChanges() bool {
	return t.Added > 0 || t.Modified > 0 || t.Removed > 0
}
