package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// AppName is used for config, data, and backup directory naming.
const AppName = "skillup"

// Well-known file names inside an installed artifact directory.
const (
	// MarkerName is the file that identifies a directory as a skill artifact.
	MarkerName = "SKILL.md"

	// SidecarName is the reconciliation metadata sidecar. It travels with
	// the artifact so a moved or copied install keeps its history.
	SidecarName = ".skillup.json"

	// LockName is the lock file held for the duration of an execute step.
	LockName = ".skillup.lock"
)

// AuditLogName is the JSON-lines audit log under the backup root.
const AuditLogName = "audit.log"

// Sentinel errors for path resolution.
var (
	// ErrHomeDirNotFound indicates the user's home directory could not be determined.
	ErrHomeDirNotFound = errors.New("home directory not found")

	// ErrInvalidPath indicates the provided path is malformed or invalid.
	ErrInvalidPath = errors.New("invalid path")
)

// DefaultDirPerm is the default permission for newly created directories (private).
const DefaultDirPerm = 0o700

// defaultExcludes are file and directory names skipped when hashing or
// copying an artifact tree: VCS metadata, OS artifacts, generated caches,
// and skillup's own bookkeeping files.
var defaultExcludes = []string{
	".git",
	".svn",
	".hg",
	".DS_Store",
	"Thumbs.db",
	"__pycache__",
	"*.pyc",
	SidecarName,
	LockName,
}

// DefaultExcludes returns a copy of the default manifest exclude list.
func DefaultExcludes() []string {
	out := make([]string, len(defaultExcludes))
	copy(out, defaultExcludes)
	return out
}

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm (0700) is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// Home returns the user's home directory, or an empty string on error.
// Use ResolveHome for proper error handling.
func Home() string {
	h, _ := ResolveHome()
	return h
}

// ResolveHome returns the user's home directory.
// Returns ErrHomeDirNotFound if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// ConfigDir returns the skillup config directory.
// On Linux: ~/.config/skillup
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DataDir returns the skillup data directory.
// On Linux: ~/.local/share/skillup
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// BackupRoot returns the default root directory for artifact backups.
// Returns: <DataDir>/backups/
func BackupRoot() string {
	return filepath.Join(DataDir(), "backups")
}

// UserSkillRoot returns the user-level install root for skill artifacts.
// Returns: ~/.claude/skills
func UserSkillRoot() string {
	home := Home()
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".claude", "skills")
}

// ProjectSkillRoot returns the project-level install root under projectRoot.
// Returns: <projectRoot>/.claude/skills
// Returns an empty string for an empty projectRoot.
func ProjectSkillRoot(projectRoot string) string {
	if projectRoot == "" {
		return ""
	}
	return filepath.Join(projectRoot, ".claude", "skills")
}

// SidecarPath returns the metadata sidecar path inside an artifact directory.
func SidecarPath(artifactDir string) string {
	return filepath.Join(artifactDir, SidecarName)
}

// LockPath returns the lock file path inside an artifact directory.
func LockPath(artifactDir string) string {
	return filepath.Join(artifactDir, LockName)
}

// MarkerPath returns the marker file path inside an artifact directory.
func MarkerPath(artifactDir string) string {
	return filepath.Join(artifactDir, MarkerName)
}
