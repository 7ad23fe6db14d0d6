package backup

import (
	"io/fs"
	"time"

	"github.com/cockroachdb/errors"
)

// ManifestVersion is the manifest format version for forward compatibility.
const ManifestVersion = 1

// DefaultRetentionCount is the default number of backups retained per artifact.
const DefaultRetentionCount = 5

// manifestName is the per-backup manifest file. The dot-prefixed name
// keeps it from colliding with artifact files, so the rest of the backup
// directory stays a plain copy of the pre-update tree.
const manifestName = ".skillup-manifest.json"

// Sentinel errors for backup operations.
var (
	// ErrBackupFailed indicates backup creation did not complete. No
	// partial backup directory is left behind, and the caller must not
	// proceed with a destructive update.
	ErrBackupFailed = errors.New("backup failed")

	// ErrBackupNotFound indicates no backup exists with the requested ID.
	ErrBackupNotFound = errors.New("backup not found")

	// ErrBackupCorrupted indicates backup file integrity verification
	// failed: a file's digest no longer matches the manifest.
	ErrBackupCorrupted = errors.New("backup corrupted")
)

// Manifest describes one backup of an artifact tree.
// It is stored as .skillup-manifest.json in the backup directory.
type Manifest struct {
	// Version is the manifest format version.
	Version int `json:"version"`

	// CreatedAt is when the backup was created.
	CreatedAt time.Time `json:"created_at"`

	// Artifact is the name of the backed-up artifact.
	Artifact string `json:"artifact"`

	// SourceDir is the installation directory the backup was taken from.
	SourceDir string `json:"source_dir"`

	// Files contains metadata for each backed-up file.
	Files []File `json:"files"`

	// ToolVersion is the skillup version that created this backup.
	ToolVersion string `json:"tool_version"`

	// ID is the backup directory name (<artifact>_<timestamp>).
	// Populated when loading from disk but not stored in JSON.
	ID string `json:"-"`
}

// File contains metadata for a single backed-up file.
type File struct {
	// RelPath is the path relative to both the source tree and the backup directory.
	RelPath string `json:"rel_path"`

	// Digest is the truncated SHA-256 digest of the file contents.
	Digest string `json:"digest"`

	// Mode is the file's permission bits.
	Mode fs.FileMode `json:"mode"`
}
