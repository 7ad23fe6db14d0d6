package reconcile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/skillup/internal/artifact"
	"github.com/thoreinstein/skillup/internal/backup"
	"github.com/thoreinstein/skillup/internal/hash"
	"github.com/thoreinstein/skillup/internal/logging"
	"github.com/thoreinstein/skillup/internal/metadata"
	"github.com/thoreinstein/skillup/internal/modified"
	"github.com/thoreinstein/skillup/internal/paths"
)

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// installTree lays out an installed skill. When withBaseline is true a
// sidecar capturing the initial manifest is written, as a managed install
// would have.
func installTree(t *testing.T, version string, files map[string]string, withBaseline bool) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "my-skill")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeTree(t, dir, files)

	if withBaseline {
		manifest, err := hash.Manifest(dir, paths.DefaultExcludes())
		require.NoError(t, err)
		require.NoError(t, metadata.Save(dir, &metadata.Metadata{
			Version:            version,
			OriginalFileHashes: manifest,
		}))
	}
	return dir
}

// loadInstalled builds the Installed view the locator would produce.
func loadInstalled(t *testing.T, dir, markerVersion string) artifact.Installed {
	t.Helper()

	inst := artifact.Installed{
		Name:    "my-skill",
		Dir:     dir,
		Version: markerVersion,
	}

	manifest, err := hash.Manifest(dir, paths.DefaultExcludes())
	require.NoError(t, err)
	inst.FileHashes = manifest

	md, err := metadata.Load(dir)
	require.NoError(t, err)
	if md != nil {
		inst.OriginalFileHashes = md.OriginalFileHashes
		if md.Version != "" {
			inst.Version = md.Version
		}
	}
	return inst
}

func newCandidate(version string, files map[string]string) *artifact.Candidate {
	content := make(map[string][]byte, len(files))
	for rel, data := range files {
		content[rel] = []byte(data)
	}
	return &artifact.Candidate{Name: "my-skill", Version: version, Content: content}
}

func newTestExecutor(t *testing.T) (*Executor, *backup.Manager) {
	t.Helper()
	mgr := backup.NewManager(backup.WithBackupDir(t.TempDir()))
	e := NewExecutor(
		WithBackupManager(mgr),
		WithExecutorLogger(logging.ForTest(t)),
	)
	return e, mgr
}

func readFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestExecuteUpdateInPlaceNoSidecar(t *testing.T) {
	dir := installTree(t, "1.0.0", map[string]string{
		"SKILL.md": "# v1",
		"a.md":     "alpha",
		"old.md":   "obsolete",
	}, false)

	cand := newCandidate("1.1.0", map[string]string{
		"SKILL.md": "# v1.1",
		"a.md":     "alpha improved",
		"new.md":   "brand new",
	})

	plan, err := Prepare(PrepareInput{
		Installed: loadInstalled(t, dir, "1.0.0"),
		Candidate: cand,
	})
	require.NoError(t, err)
	require.Equal(t, UpdateInPlace, plan.Action)

	e, _ := newTestExecutor(t)
	res, err := e.Execute(plan, cand)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.BackupPath)

	assert.Equal(t, "# v1.1", readFile(t, dir, "SKILL.md"))
	assert.Equal(t, "brand new", readFile(t, dir, "new.md"))
	assert.NoFileExists(t, filepath.Join(dir, "old.md"))
	assert.Contains(t, res.UpdatedPaths, "old.md")

	// The sidecar now records the candidate as the baseline, so a fresh
	// detection pass over the updated tree reports nothing.
	md, err := metadata.Load(dir)
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, "1.1.0", md.Version)

	report, err := modified.Detect(dir, md.OriginalFileHashes, paths.DefaultExcludes())
	require.NoError(t, err)
	assert.True(t, report.Empty(), "post-update detection = %+v", report)

	// The lock does not outlive the execution.
	assert.NoFileExists(t, paths.LockPath(dir))
}

func TestExecuteBackupThenUpdate(t *testing.T) {
	dir := installTree(t, "1.0.0", map[string]string{
		"SKILL.md": "# v1",
		"b.md":     "original b",
	}, true)

	// The user edits b.md after installation.
	writeTree(t, dir, map[string]string{"b.md": "edited by user"})

	cand := newCandidate("1.1.0", map[string]string{
		"SKILL.md": "# v1.1",
		"b.md":     "upstream b",
	})

	plan, err := Prepare(PrepareInput{
		Installed: loadInstalled(t, dir, "1.0.0"),
		Candidate: cand,
	})
	require.NoError(t, err)
	require.Equal(t, BackupThenUpdate, plan.Action)
	require.True(t, plan.HasUserModifications)

	e, mgr := newTestExecutor(t)
	res, err := e.Execute(plan, cand)
	require.NoError(t, err)
	require.NotEmpty(t, res.BackupPath)

	// The backup holds the user's edit, the install dir the new version.
	backups, err := mgr.List("my-skill")
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, "edited by user",
		readFile(t, filepath.Join(mgr.RootDir(), backups[0].ID), "b.md"))
	assert.NoError(t, mgr.Verify(backups[0].ID))

	assert.Equal(t, "upstream b", readFile(t, dir, "b.md"))

	md, err := metadata.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", md.Version)
}

func TestExecuteBackupFailureAborts(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	dir := installTree(t, "1.0.0", map[string]string{
		"SKILL.md": "# v1",
		"b.md":     "original b",
	}, true)
	writeTree(t, dir, map[string]string{"b.md": "edited by user"})

	cand := newCandidate("1.1.0", map[string]string{
		"SKILL.md": "# v1.1",
		"b.md":     "upstream b",
	})

	plan, err := Prepare(PrepareInput{
		Installed: loadInstalled(t, dir, "1.0.0"),
		Candidate: cand,
	})
	require.NoError(t, err)
	require.Equal(t, BackupThenUpdate, plan.Action)

	// An unwritable backup root makes backup creation fail.
	root := filepath.Join(t.TempDir(), "backups")
	require.NoError(t, os.MkdirAll(root, 0o500))
	t.Cleanup(func() { os.Chmod(root, 0o700) })

	e := NewExecutor(
		WithBackupManager(backup.NewManager(backup.WithBackupDir(root))),
		WithExecutorLogger(logging.ForTest(t)),
	)

	res, err := e.Execute(plan, cand)
	require.Error(t, err)
	assert.ErrorIs(t, err, backup.ErrBackupFailed)
	assert.False(t, res.Success)

	// Nothing was overwritten.
	assert.Equal(t, "edited by user", readFile(t, dir, "b.md"))
}

func TestExecuteMergePreservesUserEdits(t *testing.T) {
	dir := installTree(t, "1.0.0", map[string]string{
		"SKILL.md": "# v1",
		"a.md":     "alpha",
		"notes.md": "Y",
	}, true)

	// The user edits notes.md after installation.
	writeTree(t, dir, map[string]string{"notes.md": "Y-edited"})

	cand := newCandidate("1.1.0", map[string]string{
		"SKILL.md": "# v1.1",
		"a.md":     "alpha improved",
		"notes.md": "Y-upstream",
	})

	plan, err := Prepare(PrepareInput{
		Installed: loadInstalled(t, dir, "1.0.0"),
		Candidate: cand,
		Override:  Merge,
	})
	require.NoError(t, err)
	require.Equal(t, Merge, plan.Action)

	e, _ := newTestExecutor(t)
	res, err := e.Execute(plan, cand)
	require.NoError(t, err)

	assert.Equal(t, "Y-edited", readFile(t, dir, "notes.md"))
	assert.Equal(t, "alpha improved", readFile(t, dir, "a.md"))
	assert.Contains(t, res.PreservedPaths, "notes.md")
	assert.Contains(t, res.UpdatedPaths, "a.md")
	assert.NotContains(t, res.UpdatedPaths, "notes.md")

	// The baseline moved only for the overwritten paths, so the preserved
	// edit is still recognized as a user modification afterward.
	md, err := metadata.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", md.Version)

	report, err := modified.Detect(dir, md.OriginalFileHashes, paths.DefaultExcludes())
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.md"}, report.Edited)
}

func TestExecuteMergeNeverDeletes(t *testing.T) {
	dir := installTree(t, "1.0.0", map[string]string{
		"SKILL.md": "# v1",
		"extra.md": "kept around",
	}, true)

	// The candidate drops extra.md.
	cand := newCandidate("1.1.0", map[string]string{
		"SKILL.md": "# v1.1",
	})

	plan, err := Prepare(PrepareInput{
		Installed: loadInstalled(t, dir, "1.0.0"),
		Candidate: cand,
		Override:  Merge,
	})
	require.NoError(t, err)

	e, _ := newTestExecutor(t)
	res, err := e.Execute(plan, cand)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "extra.md"))
	assert.Contains(t, res.PreservedPaths, "extra.md")
}

func TestExecuteSkip(t *testing.T) {
	dir := installTree(t, "1.1.0", map[string]string{
		"SKILL.md": "# v1.1",
		"a.md":     "alpha",
	}, true)

	cand := newCandidate("1.0.0", map[string]string{
		"SKILL.md": "# v1 older",
	})

	plan, err := Prepare(PrepareInput{
		Installed: loadInstalled(t, dir, "1.1.0"),
		Candidate: cand,
	})
	require.NoError(t, err)
	require.Equal(t, Skip, plan.Action)

	e, _ := newTestExecutor(t)
	res, err := e.Execute(plan, cand)
	require.NoError(t, err)

	assert.Empty(t, res.UpdatedPaths)
	assert.ElementsMatch(t, []string{"SKILL.md", "a.md"}, res.PreservedPaths)
	assert.Equal(t, "# v1.1", readFile(t, dir, "SKILL.md"))
}

func TestExecuteSideBySide(t *testing.T) {
	dir := installTree(t, "1.0.0", map[string]string{
		"SKILL.md": "# v1",
		"a.md":     "alpha",
	}, true)

	cand := newCandidate("2.0.0", map[string]string{
		"SKILL.md": "# v2",
		"a.md":     "alpha v2",
	})

	plan, err := Prepare(PrepareInput{
		Installed: loadInstalled(t, dir, "1.0.0"),
		Candidate: cand,
		Override:  SideBySide,
	})
	require.NoError(t, err)

	e, _ := newTestExecutor(t)
	res, err := e.Execute(plan, cand)
	require.NoError(t, err)

	target := filepath.Join(filepath.Dir(dir), "my-skill-2.0.0")
	assert.Equal(t, target, res.InstallDir)
	assert.Equal(t, "# v2", readFile(t, target, "SKILL.md"))

	// The original installation is fully untouched.
	assert.Equal(t, "# v1", readFile(t, dir, "SKILL.md"))
	md, err := metadata.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", md.Version)

	// The new installation has its own fresh baseline.
	newMD, err := metadata.Load(target)
	require.NoError(t, err)
	require.NotNil(t, newMD)
	assert.Equal(t, "2.0.0", newMD.Version)

	// A second run into the same target refuses to overwrite it.
	plan2, err := Prepare(PrepareInput{
		Installed: loadInstalled(t, dir, "1.0.0"),
		Candidate: cand,
		Override:  SideBySide,
	})
	require.NoError(t, err)
	_, err = e.Execute(plan2, cand)
	assert.ErrorIs(t, err, ErrTargetExists)
}

func TestExecuteLocked(t *testing.T) {
	dir := installTree(t, "1.0.0", map[string]string{"SKILL.md": "# v1"}, true)

	cand := newCandidate("1.1.0", map[string]string{"SKILL.md": "# v1.1"})
	plan, err := Prepare(PrepareInput{
		Installed: loadInstalled(t, dir, "1.0.0"),
		Candidate: cand,
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(paths.LockPath(dir), []byte("999"), 0o600))

	e, _ := newTestExecutor(t)
	res, err := e.Execute(plan, cand)
	assert.ErrorIs(t, err, ErrLocked)
	assert.False(t, res.Success)
	assert.Equal(t, "# v1", readFile(t, dir, "SKILL.md"))
}

func TestExecuteStalePlan(t *testing.T) {
	dir := installTree(t, "1.0.0", map[string]string{
		"SKILL.md": "# v1",
		"a.md":     "alpha",
	}, true)

	cand := newCandidate("1.1.0", map[string]string{
		"SKILL.md": "# v1.1",
		"a.md":     "alpha improved",
	})

	plan, err := Prepare(PrepareInput{
		Installed: loadInstalled(t, dir, "1.0.0"),
		Candidate: cand,
	})
	require.NoError(t, err)
	require.Equal(t, UpdateInPlace, plan.Action)

	// The tree changes between planning and execution.
	writeTree(t, dir, map[string]string{"a.md": "changed meanwhile"})

	e, _ := newTestExecutor(t)
	_, err = e.Execute(plan, cand)
	assert.ErrorIs(t, err, ErrStalePlan)

	// The racing edit survives.
	assert.Equal(t, "changed meanwhile", readFile(t, dir, "a.md"))
}

func TestExecuteInstallDirMissing(t *testing.T) {
	dir := installTree(t, "1.0.0", map[string]string{"SKILL.md": "# v1"}, true)

	cand := newCandidate("1.1.0", map[string]string{"SKILL.md": "# v1.1"})
	plan, err := Prepare(PrepareInput{
		Installed: loadInstalled(t, dir, "1.0.0"),
		Candidate: cand,
	})
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(dir))

	e, _ := newTestExecutor(t)
	_, err = e.Execute(plan, cand)
	assert.ErrorIs(t, err, ErrInstallDirMissing)
}

func TestExecuteAppendsAuditLog(t *testing.T) {
	dir := installTree(t, "1.0.0", map[string]string{"SKILL.md": "# v1"}, true)

	cand := newCandidate("1.1.0", map[string]string{"SKILL.md": "# v1.1"})
	plan, err := Prepare(PrepareInput{
		Installed: loadInstalled(t, dir, "1.0.0"),
		Candidate: cand,
	})
	require.NoError(t, err)

	e, mgr := newTestExecutor(t)
	_, err = e.Execute(plan, cand)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(mgr.RootDir(), paths.AuditLogName))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"artifact":"my-skill"`)
	assert.Contains(t, lines[0], `"success":true`)
}
