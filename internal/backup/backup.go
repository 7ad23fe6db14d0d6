package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/skillup/internal/hash"
	"github.com/thoreinstein/skillup/internal/paths"
	"github.com/thoreinstein/skillup/pkg/fileutil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Manager handles backup creation, restoration, verification, and pruning.
// Backups live directly under the root as <artifact>_<timestamp>/
// directories so any external restore tool can read them as plain copies.
type Manager struct {
	rootDir        string
	retentionCount int
	excludes       []string
}

// Option configures a Manager.
type Option func(*Manager)

// WithBackupDir sets the root backup directory.
func WithBackupDir(dir string) Option {
	return func(m *Manager) {
		m.rootDir = dir
	}
}

// WithRetentionCount sets the number of backups to retain per artifact.
func WithRetentionCount(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.retentionCount = n
		}
	}
}

// NewManager creates a backup Manager with the given options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		rootDir:        paths.BackupRoot(),
		retentionCount: DefaultRetentionCount,
		// Only the lock file is excluded: the sidecar is part of the
		// pre-update state and must survive a restore.
		excludes: []string{paths.LockName},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RootDir returns the backup root directory.
func (m *Manager) RootDir() string {
	return m.rootDir
}

// Create copies the entire tree at srcDir into a new timestamped backup
// directory and writes its manifest. The operation is all-or-nothing: on
// any failure the partial directory is removed and ErrBackupFailed is
// returned, so a destructive update never proceeds on a half-copied
// backup.
func (m *Manager) Create(artifact, srcDir string) (*Manifest, error) {
	if artifact == "" {
		return nil, errors.New("artifact name is required")
	}
	if srcDir == "" {
		return nil, errors.New("source directory is required")
	}

	backupID, backupPath, err := m.reserve(artifact)
	if err != nil {
		return nil, errors.Wrap(ErrBackupFailed, err.Error())
	}

	files, err := m.copyTree(srcDir, backupPath)
	if err != nil {
		os.RemoveAll(backupPath)
		return nil, errors.Wrapf(ErrBackupFailed, "copying %s: %v", srcDir, err)
	}

	manifest := &Manifest{
		Version:     ManifestVersion,
		CreatedAt:   time.Now().UTC(),
		Artifact:    artifact,
		SourceDir:   srcDir,
		Files:       files,
		ToolVersion: Version,
		ID:          backupID,
	}

	if err := fileutil.AtomicWriteJSON(filepath.Join(backupPath, manifestName), manifest); err != nil {
		os.RemoveAll(backupPath)
		return nil, errors.Wrapf(ErrBackupFailed, "writing manifest: %v", err)
	}

	return manifest, nil
}

// reserve creates a fresh backup directory named <artifact>_<timestamp>,
// appending a numeric suffix when two backups land in the same second.
func (m *Manager) reserve(artifact string) (string, string, error) {
	if err := os.MkdirAll(m.rootDir, 0o755); err != nil {
		return "", "", errors.Wrap(err, "creating backup root")
	}

	base := fmt.Sprintf("%s_%s", artifact, time.Now().Format("20060102T150405"))
	for attempt := 0; attempt < 100; attempt++ {
		id := base
		if attempt > 0 {
			id = fmt.Sprintf("%s-%d", base, attempt+1)
		}
		path := filepath.Join(m.rootDir, id)
		err := os.Mkdir(path, 0o755)
		if err == nil {
			return id, path, nil
		}
		if !os.IsExist(err) {
			return "", "", errors.Wrap(err, "creating backup directory")
		}
	}
	return "", "", errors.New("could not reserve a unique backup directory")
}

// copyTree copies every regular file under srcDir into dstDir, preserving
// relative paths and permissions, and returns the file records.
func (m *Manager) copyTree(srcDir, dstDir string) ([]File, error) {
	var files []File

	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == srcDir {
			return nil
		}
		if hash.Excluded(d.Name(), m.excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(dstDir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}

		digest, mode, err := copyFile(path, dst)
		if err != nil {
			return err
		}
		files = append(files, File{
			RelPath: filepath.ToSlash(rel),
			Digest:  digest,
			Mode:    mode,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// Get returns the manifest for a specific backup ID.
func (m *Manager) Get(backupID string) (*Manifest, error) {
	if backupID == "" {
		return nil, errors.New("backup ID is required")
	}

	data, err := os.ReadFile(filepath.Join(m.rootDir, backupID, manifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrBackupNotFound, "backup %s", backupID)
		}
		return nil, errors.Wrap(err, "reading manifest")
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrap(err, "parsing manifest")
	}

	manifest.ID = backupID
	return &manifest, nil
}

// List returns available backups sorted newest first. When artifact is
// non-empty, only that artifact's backups are returned. An empty result
// is not an error.
func (m *Manager) List(artifact string) ([]Manifest, error) {
	entries, err := os.ReadDir(m.rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading backup root")
	}

	var manifests []Manifest
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if artifact != "" && !strings.HasPrefix(entry.Name(), artifact+"_") {
			continue
		}

		manifest, err := m.Get(entry.Name())
		if err != nil {
			// Skip directories without a readable manifest.
			continue
		}
		if artifact != "" && manifest.Artifact != artifact {
			continue
		}
		manifests = append(manifests, *manifest)
	}

	slices.SortFunc(manifests, func(a, b Manifest) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return manifests, nil
}

// Verify checks every file in a backup against its manifest digest.
func (m *Manager) Verify(backupID string) error {
	manifest, err := m.Get(backupID)
	if err != nil {
		return err
	}

	backupPath := filepath.Join(m.rootDir, backupID)
	for _, bf := range manifest.Files {
		digest, err := hash.File(filepath.Join(backupPath, bf.RelPath))
		if err != nil {
			return errors.Wrapf(err, "reading backup file %s", bf.RelPath)
		}
		if digest != bf.Digest {
			return errors.Wrapf(ErrBackupCorrupted, "file %s digest mismatch", bf.RelPath)
		}
	}

	return nil
}

// Restore copies a backup's tree into targetDir, verifying each file's
// integrity before writing it back. Existing files in targetDir are
// overwritten; files not present in the backup are left alone.
func (m *Manager) Restore(backupID, targetDir string) error {
	manifest, err := m.Get(backupID)
	if err != nil {
		return err
	}
	if targetDir == "" {
		targetDir = manifest.SourceDir
	}
	if targetDir == "" {
		return errors.New("target directory is required")
	}

	backupPath := filepath.Join(m.rootDir, backupID)
	for _, bf := range manifest.Files {
		src := filepath.Join(backupPath, bf.RelPath)

		digest, err := hash.File(src)
		if err != nil {
			return errors.Wrapf(err, "reading backup file %s", bf.RelPath)
		}
		if digest != bf.Digest {
			return errors.Wrapf(ErrBackupCorrupted, "file %s digest mismatch", bf.RelPath)
		}

		dst := filepath.Join(targetDir, filepath.FromSlash(bf.RelPath))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return errors.Wrapf(err, "creating directory for %s", bf.RelPath)
		}
		if _, _, err := copyFile(src, dst); err != nil {
			return errors.Wrapf(err, "restoring %s", bf.RelPath)
		}
		if err := os.Chmod(dst, bf.Mode); err != nil {
			return errors.Wrapf(err, "setting permissions for %s", bf.RelPath)
		}
	}

	return nil
}

// Prune removes old backups of an artifact beyond the retention count.
// Passing keep < 0 uses the manager's configured retention.
func (m *Manager) Prune(artifact string, keep int) error {
	if artifact == "" {
		return errors.New("artifact name is required")
	}
	if keep < 0 {
		keep = m.retentionCount
	}

	manifests, err := m.List(artifact)
	if err != nil {
		return err
	}

	// Already sorted newest first; delete everything beyond keep.
	for i := keep; i < len(manifests); i++ {
		if err := os.RemoveAll(filepath.Join(m.rootDir, manifests[i].ID)); err != nil {
			return errors.Wrapf(err, "removing backup %s", manifests[i].ID)
		}
	}

	return nil
}

// copyFile copies src to dst, returning the content digest and the source
// file's mode. dst inherits the source permissions.
func copyFile(src, dst string) (digest string, mode fs.FileMode, err error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return "", 0, errors.Wrap(err, "opening source file")
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return "", 0, errors.Wrap(err, "stat source file")
	}
	mode = srcInfo.Mode()

	data, err := io.ReadAll(srcFile)
	if err != nil {
		return "", 0, errors.Wrap(err, "reading source file")
	}

	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", 0, errors.Wrap(err, "writing destination file")
	}
	if err := os.Chmod(dst, mode); err != nil {
		return "", 0, errors.Wrap(err, "setting permissions")
	}

	return hash.Content(data), mode, nil
}
