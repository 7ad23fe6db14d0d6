package reconcile

import (
	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/skillup/internal/artifact"
	"github.com/thoreinstein/skillup/internal/changeset"
	"github.com/thoreinstein/skillup/internal/modified"
	"github.com/thoreinstein/skillup/internal/paths"
	"github.com/thoreinstein/skillup/internal/version"
)

// PrepareInput bundles the inputs for one full planning pass.
type PrepareInput struct {
	// Installed is the copy being reconciled, as returned by the locator.
	Installed artifact.Installed

	// Candidate is the new artifact supplied by the generator or importer.
	Candidate *artifact.Candidate

	// Excludes is the manifest exclude list; defaults apply when nil.
	Excludes []string

	// Override and Force are passed through to the planner.
	Override Action
	Force    bool
}

// Prepare runs the full classification pipeline in its required order:
// version comparison, manifest diff, local modification detection, then
// planning. Any classification failure aborts before a plan exists, so
// nothing is ever written on the strength of partial analysis.
func Prepare(in PrepareInput) (*Plan, error) {
	if in.Candidate == nil {
		return nil, errors.New("candidate is required")
	}
	excludes := in.Excludes
	if excludes == nil {
		excludes = paths.DefaultExcludes()
	}

	cmp := version.Compare(in.Installed.Version, in.Candidate.Version)

	diff := changeset.Diff(in.Installed.FileHashes, in.Candidate.Hashes())

	report, err := modified.Detect(in.Installed.Dir, in.Installed.OriginalFileHashes, excludes)
	if err != nil {
		return nil, errors.Wrap(err, "detecting local modifications")
	}

	return PlanUpdate(PlanInput{
		Installed:     in.Installed,
		Comparison:    cmp,
		ChangeSet:     diff,
		Modifications: report,
		Override:      in.Override,
		Force:         in.Force,
	})
}
