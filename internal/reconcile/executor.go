package reconcile

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/skillup/internal/artifact"
	"github.com/thoreinstein/skillup/internal/backup"
	"github.com/thoreinstein/skillup/internal/changeset"
	"github.com/thoreinstein/skillup/internal/hash"
	"github.com/thoreinstein/skillup/internal/logging"
	"github.com/thoreinstein/skillup/internal/metadata"
	"github.com/thoreinstein/skillup/pkg/fileutil"
)

// Sentinel errors for execution.
var (
	// ErrInstallDirMissing indicates the installation directory vanished
	// between planning and execution.
	ErrInstallDirMissing = errors.New("installation directory missing")

	// ErrStalePlan indicates the installed tree changed between planning
	// and execution. The executor fails rather than silently overwriting
	// files the plan never saw.
	ErrStalePlan = errors.New("installed tree changed since planning")

	// ErrTargetExists indicates the side-by-side target directory already exists.
	ErrTargetExists = errors.New("side-by-side target already exists")
)

// Executor performs reconciliation actions. Execution is synchronous and
// single-artifact; the lock file guards against concurrent invocations on
// the same installation.
type Executor struct {
	backups *backup.Manager
	logger  *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithBackupManager sets the backup manager used by BackupThenUpdate.
func WithBackupManager(m *backup.Manager) ExecutorOption {
	return func(e *Executor) {
		e.backups = m
	}
}

// WithExecutorLogger sets the executor's logger.
func WithExecutorLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an Executor with a default backup manager.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		backups: backup.NewManager(),
		logger:  logging.NewDiscard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute performs the plan's action against the candidate and returns
// the terminal result. The plan is treated as an immutable snapshot;
// before any destructive write the executor re-validates that the tree
// still matches what the plan recorded.
//
// Metadata is committed only after all file writes for the action have
// succeeded, so persisted state never disagrees with the disk.
func (e *Executor) Execute(plan *Plan, cand *artifact.Candidate) (*Result, error) {
	if plan == nil {
		return nil, errors.New("plan is required")
	}
	if cand == nil && plan.Action != Skip {
		return nil, errors.New("candidate is required")
	}

	res := &Result{
		Artifact:    plan.Artifact,
		ActionTaken: plan.Action,
		InstallDir:  plan.InstallDir,
	}

	err := e.run(plan, cand, res)

	res.Success = err == nil
	res.CompletedAt = time.Now().UTC()
	if err != nil {
		res.Error = err.Error()
	}

	if auditErr := appendAudit(e.backups.RootDir(), res); auditErr != nil {
		e.logger.Warn("failed to append audit log entry", "error", auditErr)
	}

	return res, err
}

func (e *Executor) run(plan *Plan, cand *artifact.Candidate, res *Result) error {
	if plan.Action == Skip {
		res.PreservedPaths = installedPaths(plan.ChangeSet)
		return nil
	}

	if _, err := os.Stat(plan.InstallDir); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrInstallDirMissing, "%s", plan.InstallDir)
		}
		return errors.Wrap(err, "checking installation directory")
	}

	release, err := acquireLock(plan.InstallDir)
	if err != nil {
		return err
	}
	defer release()

	e.logger.Debug("executing reconciliation",
		"artifact", plan.Artifact,
		"action", string(plan.Action),
		"dir", plan.InstallDir)

	switch plan.Action {
	case UpdateInPlace:
		return e.updateInPlace(plan, cand, res)
	case BackupThenUpdate:
		return e.backupThenUpdate(plan, cand, res)
	case Merge:
		return e.merge(plan, cand, res)
	case SideBySide:
		return e.sideBySide(plan, cand, res)
	default:
		return errors.Wrapf(ErrUnknownAction, "%q", plan.Action)
	}
}

// updateInPlace writes every candidate file into the installation,
// deletes files absent from the candidate, then commits the candidate's
// manifest as the new baseline.
func (e *Executor) updateInPlace(plan *Plan, cand *artifact.Candidate, res *Result) error {
	if err := e.verifyUnchanged(plan); err != nil {
		return err
	}

	updated, err := writeContent(plan.InstallDir, cand.Content)
	if err != nil {
		return err
	}

	for _, rec := range plan.ChangeSet {
		if rec.Category != changeset.Removed {
			continue
		}
		path := filepath.Join(plan.InstallDir, filepath.FromSlash(rec.Path))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "removing %s", rec.Path)
		}
		updated = append(updated, rec.Path)
	}
	sort.Strings(updated)
	res.UpdatedPaths = updated

	// All writes succeeded; only now does the baseline move.
	return metadata.Save(plan.InstallDir, &metadata.Metadata{
		Version:            cand.Version,
		OriginalFileHashes: cand.Hashes(),
	})
}

// backupThenUpdate copies the full installed tree into a timestamped
// backup, then updates in place. Backup failure is fatal: the update does
// not proceed.
func (e *Executor) backupThenUpdate(plan *Plan, cand *artifact.Candidate, res *Result) error {
	manifest, err := e.backups.Create(plan.Artifact, plan.InstallDir)
	if err != nil {
		return err
	}
	res.BackupPath = filepath.Join(e.backups.RootDir(), manifest.ID)

	e.logger.Info("created pre-update backup",
		"artifact", plan.Artifact,
		"backup", manifest.ID)

	return e.updateInPlace(plan, cand, res)
}

// merge writes candidate files except where the user has edited, leaving
// edited files untouched on disk. The baseline is updated only for the
// paths actually overwritten.
func (e *Executor) merge(plan *Plan, cand *artifact.Candidate, res *Result) error {
	overwritten := make(map[string]string)

	for _, rec := range plan.ChangeSet {
		if rec.UserModified {
			res.PreservedPaths = append(res.PreservedPaths, rec.Path)
			continue
		}

		switch rec.Category {
		case changeset.Added, changeset.Modified:
			if rec.Category == changeset.Modified && !plan.Forced {
				if err := verifyOnDisk(plan.InstallDir, rec); err != nil {
					return err
				}
			}
			data, ok := cand.Content[rec.Path]
			if !ok {
				return errors.Newf("candidate missing content for %s", rec.Path)
			}
			if err := writeFile(plan.InstallDir, rec.Path, data); err != nil {
				return err
			}
			res.UpdatedPaths = append(res.UpdatedPaths, rec.Path)
			overwritten[rec.Path] = hash.Content(data)
		default:
			// Unchanged and Removed files stay as they are; Merge never deletes.
			res.PreservedPaths = append(res.PreservedPaths, rec.Path)
		}
	}

	sort.Strings(res.UpdatedPaths)
	sort.Strings(res.PreservedPaths)

	md, err := metadata.Load(plan.InstallDir)
	if err != nil {
		return err
	}
	if md == nil {
		md = &metadata.Metadata{OriginalFileHashes: make(map[string]string)}
	}
	if md.OriginalFileHashes == nil {
		md.OriginalFileHashes = make(map[string]string)
	}
	for path, digest := range overwritten {
		md.OriginalFileHashes[path] = digest
	}
	md.Version = cand.Version
	md.UpdatedAt = time.Time{}

	return metadata.Save(plan.InstallDir, md)
}

// sideBySide installs the candidate into a versioned sibling directory.
// The existing installation and its metadata stay fully untouched.
func (e *Executor) sideBySide(plan *Plan, cand *artifact.Candidate, res *Result) error {
	target := filepath.Join(filepath.Dir(plan.InstallDir),
		plan.Artifact+"-"+cand.Version)

	if _, err := os.Stat(target); err == nil {
		return errors.Wrapf(ErrTargetExists, "%s", target)
	} else if !os.IsNotExist(err) {
		return errors.Wrap(err, "checking target directory")
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return errors.Wrap(err, "creating target directory")
	}

	updated, err := writeContent(target, cand.Content)
	if err != nil {
		return err
	}
	res.UpdatedPaths = updated
	res.PreservedPaths = installedPaths(plan.ChangeSet)
	res.InstallDir = target

	// The new installation gets a fresh baseline of its own.
	return metadata.Save(target, &metadata.Metadata{
		Version:            cand.Version,
		OriginalFileHashes: cand.Hashes(),
	})
}

// verifyUnchanged re-hashes the files the plan expects to overwrite or
// delete and fails when any differs from the plan's snapshot. Skipped for
// forced plans, where the caller explicitly accepted overwriting.
func (e *Executor) verifyUnchanged(plan *Plan) error {
	if plan.Forced {
		return nil
	}
	for _, rec := range plan.ChangeSet {
		if rec.UserModified || rec.InstalledHash == "" {
			continue
		}
		if err := verifyOnDisk(plan.InstallDir, rec); err != nil {
			return err
		}
	}
	return nil
}

// verifyOnDisk checks that one file still hashes to what the plan recorded.
func verifyOnDisk(dir string, rec changeset.Record) error {
	path := filepath.Join(dir, filepath.FromSlash(rec.Path))
	digest, err := hash.File(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errors.Wrapf(ErrStalePlan, "%s disappeared after planning", rec.Path)
		}
		return err
	}
	if digest != rec.InstalledHash {
		return errors.Wrapf(ErrStalePlan, "%s changed after planning", rec.Path)
	}
	return nil
}

// writeContent writes every entry of content under dir, sorted by path,
// and returns the written paths.
func writeContent(dir string, content map[string][]byte) ([]string, error) {
	paths := make([]string, 0, len(content))
	for path := range content {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := writeFile(dir, path, content[path]); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// writeFile atomically writes one relative path under dir.
func writeFile(dir, relPath string, data []byte) error {
	dst := filepath.Join(dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", relPath)
	}
	if err := fileutil.AtomicWriteFile(dst, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", relPath)
	}
	return nil
}

// installedPaths returns the sorted paths present in the installed
// manifest at planning time.
func installedPaths(records []changeset.Record) []string {
	var out []string
	for _, rec := range records {
		if rec.InstalledHash != "" {
			out = append(out, rec.Path)
		}
	}
	sort.Strings(out)
	return out
}
