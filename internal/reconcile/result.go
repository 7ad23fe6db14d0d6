package reconcile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/skillup/internal/paths"
)

// Result is the terminal record of one executed reconciliation. It states
// explicitly which paths were overwritten versus preserved versus backed
// up, and is appended to the audit log.
type Result struct {
	Artifact    string    `json:"artifact"`
	ActionTaken Action    `json:"action_taken"`
	Success     bool      `json:"success"`
	CompletedAt time.Time `json:"completed_at"`

	// UpdatedPaths were written or deleted by the action.
	UpdatedPaths []string `json:"updated_paths"`

	// PreservedPaths were deliberately left untouched.
	PreservedPaths []string `json:"preserved_paths"`

	// BackupPath is the backup directory created by BackupThenUpdate.
	BackupPath string `json:"backup_path,omitempty"`

	// InstallDir is where the action wrote; for SideBySide this is the
	// new sibling directory.
	InstallDir string `json:"install_dir,omitempty"`

	// Error is the failure message when Success is false.
	Error string `json:"error,omitempty"`
}

// appendAudit appends the result as one JSON line to the audit log under
// the backup root.
func appendAudit(backupRoot string, res *Result) error {
	if err := os.MkdirAll(backupRoot, 0o755); err != nil {
		return errors.Wrap(err, "creating backup root")
	}

	data, err := json.Marshal(res)
	if err != nil {
		return errors.Wrap(err, "marshaling result")
	}
	data = append(data, '\n')

	f, err := os.OpenFile(filepath.Join(backupRoot, paths.AuditLogName),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "opening audit log")
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return errors.Wrap(err, "writing audit log")
	}

	return nil
}
