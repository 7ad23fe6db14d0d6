// Package render formats plans, results, and listings for terminal output.
package render

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aymanbagabas/go-udiff"
	"github.com/fatih/color"

	"github.com/thoreinstein/skillup/internal/artifact"
	"github.com/thoreinstein/skillup/internal/backup"
	"github.com/thoreinstein/skillup/internal/changeset"
	"github.com/thoreinstein/skillup/internal/logging"
	"github.com/thoreinstein/skillup/internal/reconcile"
)

// Renderer writes human-readable reconciliation output.
type Renderer struct {
	w io.Writer

	header *color.Color
	add    *color.Color
	mod    *color.Color
	del    *color.Color
	warn   *color.Color
	errc   *color.Color
	faint  *color.Color
}

// New creates a Renderer for the given writer. Colors are enabled only
// when the writer supports them.
func New(w io.Writer) *Renderer {
	r := &Renderer{w: w}
	if logging.SupportsColor(w) {
		r.header = color.New(color.Bold)
		r.add = color.New(color.FgGreen)
		r.mod = color.New(color.FgYellow)
		r.del = color.New(color.FgRed)
		r.warn = color.New(color.FgYellow)
		r.errc = color.New(color.FgRed, color.Bold)
		r.faint = color.New(color.FgHiBlack)
	}
	return r
}

func (r *Renderer) paint(c *color.Color, s string) string {
	if c == nil {
		return s
	}
	return c.Sprint(s)
}

// Plan prints the plan: chosen action, version delta, per-file changes,
// and every accumulated warning. Warnings always print before any
// destructive action can run.
func (r *Renderer) Plan(plan *reconcile.Plan) {
	fmt.Fprintf(r.w, "%s %s\n", r.paint(r.header, "Artifact:"), plan.Artifact)
	fmt.Fprintf(r.w, "%s %s -> %s\n", r.paint(r.header, "Version:"),
		orNone(plan.Comparison.Installed), orNone(plan.Comparison.Candidate))
	fmt.Fprintf(r.w, "%s %s\n", r.paint(r.header, "Action:"), string(plan.Action))

	if tally := changeset.Count(plan.ChangeSet); tally.HasChanges() {
		fmt.Fprintf(r.w, "%s\n", r.paint(r.header, "Changes:"))
		for _, rec := range plan.ChangeSet {
			if rec.Category == changeset.Unchanged {
				continue
			}
			line := fmt.Sprintf("  %-9s %s", rec.Category, rec.Path)
			switch rec.Category {
			case changeset.Added:
				line = r.paint(r.add, line)
			case changeset.Modified:
				line = r.paint(r.mod, line)
			case changeset.Removed:
				line = r.paint(r.del, line)
			}
			if rec.UserModified {
				line += r.paint(r.warn, "  (user-modified)")
			}
			fmt.Fprintln(r.w, line)
		}
	} else {
		fmt.Fprintln(r.w, r.paint(r.faint, "No file changes."))
	}

	for _, w := range plan.Warnings {
		fmt.Fprintf(r.w, "%s %s\n", r.paint(r.warn, "warning:"), w)
	}
}

// Diffs prints a unified diff for every modified text file in the plan,
// comparing the on-disk installed content against the candidate.
func (r *Renderer) Diffs(plan *reconcile.Plan, cand *artifact.Candidate) {
	for _, rec := range plan.ChangeSet {
		if rec.Category != changeset.Modified {
			continue
		}

		installed, err := os.ReadFile(filepath.Join(plan.InstallDir, filepath.FromSlash(rec.Path)))
		if err != nil {
			fmt.Fprintf(r.w, "%s cannot read %s: %v\n", r.paint(r.warn, "warning:"), rec.Path, err)
			continue
		}
		candidate := cand.Content[rec.Path]

		if isBinary(installed) || isBinary(candidate) {
			fmt.Fprintf(r.w, "%s\n", r.paint(r.faint, fmt.Sprintf("binary file %s differs", rec.Path)))
			continue
		}

		diff := udiff.Unified(rec.Path, rec.Path, string(installed), string(candidate))
		fmt.Fprintln(r.w, diff)
	}
}

// Result prints the terminal record of one execution.
func (r *Renderer) Result(res *reconcile.Result) {
	status := r.paint(r.add, "ok")
	if !res.Success {
		status = r.paint(r.errc, "failed")
	}
	fmt.Fprintf(r.w, "%s %s (%s)\n", r.paint(r.header, "Result:"), status, string(res.ActionTaken))

	if res.BackupPath != "" {
		fmt.Fprintf(r.w, "%s %s\n", r.paint(r.header, "Backup:"), res.BackupPath)
	}
	for _, p := range res.UpdatedPaths {
		fmt.Fprintf(r.w, "  %s %s\n", r.paint(r.add, "updated"), p)
	}
	for _, p := range res.PreservedPaths {
		fmt.Fprintf(r.w, "  %s %s\n", r.paint(r.faint, "preserved"), p)
	}
	if res.Error != "" {
		fmt.Fprintf(r.w, "%s %s\n", r.paint(r.errc, "error:"), res.Error)
	}
}

// Installed prints an artifact listing, one line per installed copy.
func (r *Renderer) Installed(list []artifact.Installed) {
	if len(list) == 0 {
		fmt.Fprintln(r.w, "No artifacts installed.")
		return
	}
	for _, inst := range list {
		version := orNone(inst.Version)
		mark := ""
		if !inst.HasBaseline() {
			mark = r.paint(r.faint, "  (no baseline)")
		}
		fmt.Fprintf(r.w, "%-24s %-10s %s%s\n", inst.Name, version, inst.Scope.Name, mark)
	}
}

// Backups prints a backup listing, newest first.
func (r *Renderer) Backups(list []backup.Manifest) {
	if len(list) == 0 {
		fmt.Fprintln(r.w, "No backups found.")
		return
	}
	for _, m := range list {
		fmt.Fprintf(r.w, "%-40s %s  %d files\n",
			m.ID, m.CreatedAt.Local().Format("2006-01-02 15:04:05"), len(m.Files))
	}
}

// isBinary reports whether content looks like binary data.
func isBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
