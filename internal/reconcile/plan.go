package reconcile

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/skillup/internal/artifact"
	"github.com/thoreinstein/skillup/internal/changeset"
	"github.com/thoreinstein/skillup/internal/modified"
	"github.com/thoreinstein/skillup/internal/version"
)

// ErrInconsistentOverride indicates the caller requested an action the
// data contradicts without setting the force flag. It is surfaced for an
// explicit re-decision instead of silently downgrading to a safer action.
var ErrInconsistentOverride = errors.New("override inconsistent with detected state")

// PlanInput bundles everything the planner decides over.
type PlanInput struct {
	// Installed is the copy being reconciled.
	Installed artifact.Installed

	// Comparison is the installed-vs-candidate version ordering.
	Comparison version.Comparison

	// ChangeSet is the diff of the installed manifest against the candidate manifest.
	ChangeSet []changeset.Record

	// Modifications is the local modification report against the sidecar baseline.
	Modifications modified.Report

	// Override, when non-empty, requests a specific action instead of the
	// recommendation. It is validated against the data, not trusted.
	Override Action

	// Force permits an override that would discard user edits.
	Force bool
}

// Plan is the immutable outcome of one planning pass. The executor
// consumes it as a value and must not reinterpret the data behind it.
type Plan struct {
	Artifact   string
	InstallDir string

	// Action is the chosen update strategy.
	Action Action

	Comparison version.Comparison
	ChangeSet  []changeset.Record

	// HasUserModifications reports whether any installed file was edited
	// by the user since the last reconciliation.
	HasUserModifications bool

	// UserDeleted lists files the user removed since the last reconciliation.
	UserDeleted []string

	// Warnings accumulates every notice produced during planning. The
	// caller must surface them before any destructive action runs.
	Warnings []string

	// BackupTarget is the backup root the executor will write into for
	// BackupThenUpdate; informational for display.
	BackupTarget string

	// Forced records that the caller explicitly accepted discarding user edits.
	Forced bool
}

// PlanUpdate applies the decision table to the inputs.
//
// Recommendation, first matching rule wins:
//  1. candidate is not newer            -> Skip
//  2. any user-modified file exists     -> BackupThenUpdate
//  3. otherwise                         -> UpdateInPlace
//
// User-modification protection has strictly higher priority than version
// magnitude: a major bump only ever adds a warning, never changes the
// selected action. An override replaces the recommendation after
// validation; requesting UpdateInPlace over user edits without Force is
// rejected with ErrInconsistentOverride.
func PlanUpdate(in PlanInput) (*Plan, error) {
	plan := &Plan{
		Artifact:             in.Installed.Name,
		InstallDir:           in.Installed.Dir,
		Comparison:           in.Comparison,
		ChangeSet:            markUserModified(in.ChangeSet, in.Modifications),
		HasUserModifications: len(in.Modifications.Edited) > 0,
		UserDeleted:          in.Modifications.Deleted,
		Warnings:             append([]string(nil), in.Comparison.Warnings...),
		Forced:               in.Force,
	}

	switch {
	case !in.Comparison.IsNewer:
		plan.Action = Skip
	case plan.HasUserModifications:
		plan.Action = BackupThenUpdate
		plan.Warnings = append(plan.Warnings, fmt.Sprintf(
			"user-modified files will be backed up before replacement: %s",
			strings.Join(in.Modifications.Edited, ", ")))
	default:
		plan.Action = UpdateInPlace
	}

	if in.Comparison.IsMajorBump {
		plan.Warnings = append(plan.Warnings, fmt.Sprintf(
			"major version bump: %s -> %s; review the changes before applying",
			in.Comparison.Installed, in.Comparison.Candidate))
	}
	if len(plan.UserDeleted) > 0 {
		plan.Warnings = append(plan.Warnings, fmt.Sprintf(
			"files deleted locally since install: %s",
			strings.Join(plan.UserDeleted, ", ")))
	}
	plan.Warnings = append(plan.Warnings,
		"change summary: "+changeset.Count(plan.ChangeSet).String())

	if in.Override != "" {
		if err := validateOverride(in, plan); err != nil {
			return nil, err
		}
		plan.Action = in.Override
	}

	return plan, nil
}

// validateOverride rejects overrides that contradict the detected state.
func validateOverride(in PlanInput, plan *Plan) error {
	switch in.Override {
	case Skip, Merge, SideBySide, BackupThenUpdate:
		// Always safe: none of these can silently discard a user edit.
		return nil
	case UpdateInPlace:
		if plan.HasUserModifications && !in.Force {
			return errors.Wrapf(ErrInconsistentOverride,
				"update-in-place would overwrite user-modified files (%s)",
				strings.Join(in.Modifications.Edited, ", "))
		}
		return nil
	default:
		return errors.Wrapf(ErrUnknownAction, "%q", in.Override)
	}
}

// markUserModified copies the change set with UserModified set from the
// modification report. The input records are never mutated.
func markUserModified(records []changeset.Record, report modified.Report) []changeset.Record {
	edited := report.EditedSet()
	deleted := make(map[string]bool, len(report.Deleted))
	for _, p := range report.Deleted {
		deleted[p] = true
	}

	out := make([]changeset.Record, len(records))
	for i, rec := range records {
		rec.UserModified = edited[rec.Path] || deleted[rec.Path]
		out[i] = rec
	}
	return out
}
