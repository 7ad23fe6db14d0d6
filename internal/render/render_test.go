package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/thoreinstein/skillup/internal/artifact"
	"github.com/thoreinstein/skillup/internal/backup"
	"github.com/thoreinstein/skillup/internal/changeset"
	"github.com/thoreinstein/skillup/internal/reconcile"
	"github.com/thoreinstein/skillup/internal/version"
)

func testPlan() *reconcile.Plan {
	return &reconcile.Plan{
		Artifact:   "my-skill",
		InstallDir: "/tmp/skills/my-skill",
		Action:     reconcile.BackupThenUpdate,
		Comparison: version.Comparison{Installed: "1.0.0", Candidate: "1.1.0", IsNewer: true},
		ChangeSet: []changeset.Record{
			{Path: "SKILL.md", Category: changeset.Modified, InstalledHash: "a", CandidateHash: "b"},
			{Path: "added.md", Category: changeset.Added, CandidateHash: "c"},
			{Path: "gone.md", Category: changeset.Removed, InstalledHash: "d"},
			{Path: "edited.md", Category: changeset.Modified, InstalledHash: "e", CandidateHash: "f", UserModified: true},
			{Path: "same.md", Category: changeset.Unchanged, InstalledHash: "g", CandidateHash: "g"},
		},
		HasUserModifications: true,
		Warnings:             []string{"user-modified files will be backed up before replacement: edited.md"},
	}
}

func TestPlan(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Plan(testPlan())
	out := buf.String()

	for _, want := range []string{
		"my-skill",
		"1.0.0 -> 1.1.0",
		"backup-then-update",
		"added.md",
		"gone.md",
		"(user-modified)",
		"warning:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Plan output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "same.md") {
		t.Errorf("Plan output lists unchanged file:\n%s", out)
	}
}

func TestPlanNoChanges(t *testing.T) {
	plan := &reconcile.Plan{
		Artifact:   "my-skill",
		Action:     reconcile.Skip,
		Comparison: version.Comparison{Installed: "1.0.0", Candidate: "1.0.0"},
		ChangeSet: []changeset.Record{
			{Path: "SKILL.md", Category: changeset.Unchanged, InstalledHash: "a", CandidateHash: "a"},
		},
	}

	var buf bytes.Buffer
	New(&buf).Plan(plan)
	if !strings.Contains(buf.String(), "No file changes.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestDiffs(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte("old line\n"), 0600); err != nil {
		t.Fatal(err)
	}

	plan := &reconcile.Plan{
		Artifact:   "my-skill",
		InstallDir: dir,
		ChangeSet: []changeset.Record{
			{Path: "SKILL.md", Category: changeset.Modified, InstalledHash: "a", CandidateHash: "b"},
		},
	}
	cand := &artifact.Candidate{
		Name:    "my-skill",
		Content: map[string][]byte{"SKILL.md": []byte("new line\n")},
	}

	var buf bytes.Buffer
	New(&buf).Diffs(plan, cand)
	out := buf.String()

	if !strings.Contains(out, "-old line") || !strings.Contains(out, "+new line") {
		t.Errorf("Diffs output missing hunks:\n%s", out)
	}
}

func TestDiffsBinary(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0x00, 0x01}, 0600); err != nil {
		t.Fatal(err)
	}

	plan := &reconcile.Plan{
		InstallDir: dir,
		ChangeSet: []changeset.Record{
			{Path: "blob.bin", Category: changeset.Modified, InstalledHash: "a", CandidateHash: "b"},
		},
	}
	cand := &artifact.Candidate{Content: map[string][]byte{"blob.bin": {0x02}}}

	var buf bytes.Buffer
	New(&buf).Diffs(plan, cand)
	if !strings.Contains(buf.String(), "binary file blob.bin differs") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestResult(t *testing.T) {
	res := &reconcile.Result{
		Artifact:       "my-skill",
		ActionTaken:    reconcile.Merge,
		Success:        true,
		UpdatedPaths:   []string{"a.md"},
		PreservedPaths: []string{"notes.md"},
		BackupPath:     "/data/backups/my-skill_20260828T101500",
	}

	var buf bytes.Buffer
	New(&buf).Result(res)
	out := buf.String()

	for _, want := range []string{"ok", "merge", "updated a.md", "preserved notes.md", "Backup:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Result output missing %q:\n%s", want, out)
		}
	}
}

func TestResultFailure(t *testing.T) {
	res := &reconcile.Result{
		Artifact:    "my-skill",
		ActionTaken: reconcile.UpdateInPlace,
		Error:       "installed tree changed since planning",
	}

	var buf bytes.Buffer
	New(&buf).Result(res)
	out := buf.String()
	if !strings.Contains(out, "failed") || !strings.Contains(out, "error:") {
		t.Errorf("output = %q", out)
	}
}

func TestInstalled(t *testing.T) {
	list := []artifact.Installed{
		{
			Name:               "managed",
			Version:            "1.0.0",
			Scope:              artifact.Scope{Name: "user"},
			OriginalFileHashes: map[string]string{"SKILL.md": "a"},
		},
		{Name: "unmanaged", Scope: artifact.Scope{Name: "project"}},
	}

	var buf bytes.Buffer
	New(&buf).Installed(list)
	out := buf.String()

	if !strings.Contains(out, "managed") || !strings.Contains(out, "1.0.0") {
		t.Errorf("output missing managed entry:\n%s", out)
	}
	if !strings.Contains(out, "(no baseline)") {
		t.Errorf("output missing no-baseline mark:\n%s", out)
	}
	if !strings.Contains(out, "(none)") {
		t.Errorf("output missing version placeholder:\n%s", out)
	}
}

func TestBackups(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Backups(nil)
	if !strings.Contains(buf.String(), "No backups found.") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	New(&buf).Backups([]backup.Manifest{
		{
			ID:        "my-skill_20260828T101500",
			CreatedAt: time.Date(2026, 8, 28, 10, 15, 0, 0, time.UTC),
			Files:     []backup.File{{RelPath: "SKILL.md"}},
		},
	})
	out := buf.String()
	if !strings.Contains(out, "my-skill_20260828T101500") || !strings.Contains(out, "1 files") {
		t.Errorf("output = %q", out)
	}
}
