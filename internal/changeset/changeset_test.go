package changeset

import (
	"reflect"
	"testing"
)

func TestDiff(t *testing.T) {
	installed := map[string]string{
		"SKILL.md":   "aaa",
		"a.md":       "old",
		"removed.md": "gone",
	}
	candidate := map[string]string{
		"SKILL.md": "aaa",
		"a.md":     "new",
		"added.md": "fresh",
	}

	got := Diff(installed, candidate)

	want := []Record{
		{Path: "SKILL.md", Category: Unchanged, InstalledHash: "aaa", CandidateHash: "aaa"},
		{Path: "a.md", Category: Modified, InstalledHash: "old", CandidateHash: "new"},
		{Path: "added.md", Category: Added, CandidateHash: "fresh"},
		{Path: "removed.md", Category: Removed, InstalledHash: "gone"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Diff() = %+v, want %+v", got, want)
	}
}

func TestDiffEmpty(t *testing.T) {
	if got := Diff(nil, nil); len(got) != 0 {
		t.Errorf("Diff(nil, nil) = %v, want empty", got)
	}

	got := Diff(nil, map[string]string{"SKILL.md": "x"})
	if len(got) != 1 || got[0].Category != Added {
		t.Errorf("Diff(nil, candidate) = %+v, want single Added record", got)
	}
}

func TestDiffDeterministic(t *testing.T) {
	installed := map[string]string{"c.md": "1", "a.md": "2", "b.md": "3"}
	candidate := map[string]string{"b.md": "3", "d.md": "4"}

	first := Diff(installed, candidate)
	for range 10 {
		if !reflect.DeepEqual(Diff(installed, candidate), first) {
			t.Fatal("Diff() order varies between runs")
		}
	}
	for i := 1; i < len(first); i++ {
		if first[i-1].Path >= first[i].Path {
			t.Fatalf("Diff() not sorted by path: %v", first)
		}
	}
}

func TestCount(t *testing.T) {
	records := []Record{
		{Path: "a", Category: Added},
		{Path: "b", Category: Added},
		{Path: "c", Category: Modified},
		{Path: "d", Category: Removed},
		{Path: "e", Category: Unchanged},
	}

	tally := Count(records)
	if tally.Added != 2 || tally.Modified != 1 || tally.Removed != 1 || tally.Unchanged != 1 {
		t.Errorf("Count() = %+v", tally)
	}
	if got, want := tally.String(), "2 added, 1 modified, 1 removed"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if !tally.HasChanges() {
		t.Error("HasChanges() = false, want true")
	}

	unchanged := Count([]Record{{Path: "a", Category: Unchanged}})
	if unchanged.HasChanges() {
		t.Error("HasChanges() = true for unchanged-only set")
	}
}
