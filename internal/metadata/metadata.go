// Package metadata persists per-artifact reconciliation state in a JSON
// sidecar file co-located with the installed artifact.
//
// The sidecar travels with the artifact directory, so moving or copying
// an install carries its reconciliation history. Absence of the sidecar
// is not an error: it means no local-modification baseline is available,
// and detection degrades to an empty report in favor of a clean update.
package metadata

import (
	"encoding/json"
	"os"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/skillup/internal/paths"
	"github.com/thoreinstein/skillup/pkg/fileutil"
)

// ErrCorrupt indicates the sidecar exists but could not be parsed.
// A corrupt sidecar is an error rather than a missing baseline so that
// user edits keep their overwrite protection.
var ErrCorrupt = errors.New("corrupt metadata sidecar")

// Metadata is the typed form of the sidecar. It is the only shape in
// which sidecar state crosses the store boundary; no untyped maps leak
// past here.
type Metadata struct {
	// Version is the artifact version recorded at the last reconciliation.
	Version string `json:"version"`

	// OriginalFileHashes is the hash manifest captured at the last
	// reconciliation. It is the baseline the local modification detector
	// compares current on-disk hashes against.
	OriginalFileHashes map[string]string `json:"originalFileHashes"`

	// UpdatedAt is when the sidecar was last written.
	UpdatedAt time.Time `json:"updatedAt"`
}

// Load reads the sidecar from an artifact directory.
// A missing sidecar returns (nil, nil); a present but unparsable sidecar
// returns ErrCorrupt.
func Load(artifactDir string) (*Metadata, error) {
	data, err := os.ReadFile(paths.SidecarPath(artifactDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading metadata sidecar")
	}

	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "parsing %s: %v", paths.SidecarName, err)
	}

	return &md, nil
}

// Save writes the sidecar atomically into an artifact directory.
// If md.UpdatedAt is zero it is set to the current UTC time.
func Save(artifactDir string, md *Metadata) error {
	if md == nil {
		return errors.New("metadata is required")
	}
	if md.UpdatedAt.IsZero() {
		md.UpdatedAt = time.Now().UTC()
	}
	if err := fileutil.AtomicWriteJSON(paths.SidecarPath(artifactDir), md); err != nil {
		return errors.Wrap(err, "writing metadata sidecar")
	}
	return nil
}
