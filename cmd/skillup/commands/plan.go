package commands

import (
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/skillup/internal/artifact"
	"github.com/thoreinstein/skillup/internal/changeset"
	skuperrors "github.com/thoreinstein/skillup/internal/errors"
	"github.com/thoreinstein/skillup/internal/logging"
	"github.com/thoreinstein/skillup/internal/reconcile"
	"github.com/thoreinstein/skillup/internal/render"
)

var (
	planCandidate string
	planScope     string
	planAction    string
	planForce     bool
	planDiff      bool
)

func init() {
	planCmd.Flags().StringVarP(&planCandidate, "candidate", "c", "",
		"directory containing the candidate skill version (required)")
	planCmd.Flags().StringVar(&planScope, "scope", "",
		"limit the search to one scope: user, project")
	planCmd.Flags().StringVarP(&planAction, "action", "a", "",
		"override the chosen strategy: skip, update-in-place, backup-then-update, merge, side-by-side")
	planCmd.Flags().BoolVar(&planForce, "force", false,
		"allow overwriting user-modified files in place")
	planCmd.Flags().BoolVar(&planDiff, "diff", false,
		"show unified diffs for changed files")

	rootCmd.AddCommand(planCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan <name>",
	Short: "Preview how an update would be applied",
	Long: `Compare an installed skill against a candidate version and show the
update strategy that would be used, without changing anything.

The plan lists every added, modified, and removed file, flags files you
have edited locally since installation, and explains which strategy was
chosen. Use --action to see how an override would behave, and --diff to
inspect the file-level changes.`,
	Example: `  # Preview the default strategy
  skillup plan my-skill --candidate ./releases/my-skill

  # Preview a merge and show diffs
  skillup plan my-skill --candidate ./releases/my-skill --action merge --diff

  See Also: skillup apply`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	plan, cand, err := buildPlan(cmd, args[0], planCandidate, planScope, planAction, planForce)
	if err != nil {
		return err
	}

	r := render.New(os.Stdout)
	r.Plan(plan)
	if planDiff {
		r.Diffs(plan, cand)
	}
	return nil
}

// buildPlan runs the shared locate, load, and plan pipeline used by both
// plan and apply.
func buildPlan(cmd *cobra.Command, name, candidateDir, scopeName, actionName string, force bool) (*reconcile.Plan, *artifact.Candidate, error) {
	logger := logging.FromContext(cmd.Context())

	cand, err := loadCandidateDir(candidateDir)
	if err != nil {
		return nil, nil, err
	}

	scopes, err := filterScopes(searchScopes(), scopeName)
	if err != nil {
		return nil, nil, err
	}

	installed, err := locateInstallation(name, scopes)
	if err != nil {
		return nil, nil, err
	}

	if cand.Name != "" && cand.Name != installed.Name {
		logger.Warn("candidate name does not match installed skill",
			slog.String("installed", installed.Name),
			slog.String("candidate", cand.Name))
	}

	var override reconcile.Action
	if actionName != "" {
		override, err = reconcile.ParseAction(actionName)
		if err != nil {
			return nil, nil, skuperrors.NewUserError(err,
				"Valid actions: skip, update-in-place, backup-then-update, merge, side-by-side")
		}
	}

	plan, err := reconcile.Prepare(reconcile.PrepareInput{
		Installed: *installed,
		Candidate: cand,
		Excludes:  activeConfig().Excludes(),
		Override:  override,
		Force:     force,
	})
	if err != nil {
		if errors.Is(err, reconcile.ErrInconsistentOverride) {
			return nil, nil, skuperrors.NewUserError(err,
				"Re-run with --force to overwrite local edits, or use --action backup-then-update")
		}
		return nil, nil, err
	}

	logger.Debug("plan prepared",
		slog.String("artifact", plan.Artifact),
		slog.String("action", string(plan.Action)),
		slog.String("changes", changeset.Count(plan.ChangeSet).String()))

	return plan, cand, nil
}
