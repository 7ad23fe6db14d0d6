package commands

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	skuperrors "github.com/thoreinstein/skillup/internal/errors"
	"github.com/thoreinstein/skillup/internal/logging"
	"github.com/thoreinstein/skillup/internal/reconcile"
	"github.com/thoreinstein/skillup/internal/render"
)

var (
	applyCandidate string
	applyScope     string
	applyAction    string
	applyForce     bool
	applyYes       bool
)

func init() {
	applyCmd.Flags().StringVarP(&applyCandidate, "candidate", "c", "",
		"directory containing the candidate skill version (required)")
	applyCmd.Flags().StringVar(&applyScope, "scope", "",
		"limit the search to one scope: user, project")
	applyCmd.Flags().StringVarP(&applyAction, "action", "a", "",
		"override the chosen strategy: skip, update-in-place, backup-then-update, merge, side-by-side")
	applyCmd.Flags().BoolVar(&applyForce, "force", false,
		"allow overwriting user-modified files in place")
	applyCmd.Flags().BoolVarP(&applyYes, "yes", "y", false,
		"apply without asking for confirmation")

	rootCmd.AddCommand(applyCmd)
}

var applyCmd = &cobra.Command{
	Use:   "apply <name>",
	Short: "Apply an update to an installed skill",
	Long: `Update an installed skill to the candidate version using a strategy
that never silently discards local edits.

Unmodified installations are updated in place. When local edits are
detected the modified files are backed up to a verified backup directory
before being overwritten. Use --action merge to keep edited files as
they are, or --action side-by-side to install the new version next to
the old one.

The plan is shown before anything is written. Pass --yes to skip the
confirmation prompt.`,
	Example: `  # Update, backing up local edits automatically
  skillup apply my-skill --candidate ./releases/my-skill

  # Keep edited files untouched, update the rest
  skillup apply my-skill --candidate ./releases/my-skill --action merge

  # Non-interactive use
  skillup apply my-skill --candidate ./releases/my-skill --yes

  See Also: skillup plan, skillup backup list`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func runApply(cmd *cobra.Command, args []string) error {
	logger := logging.FromContext(cmd.Context())

	plan, cand, err := buildPlan(cmd, args[0], applyCandidate, applyScope, applyAction, applyForce)
	if err != nil {
		return err
	}

	r := render.New(os.Stdout)
	r.Plan(plan)

	if plan.Action == reconcile.Skip {
		return nil
	}

	if !applyYes {
		ok, err := confirm(cmd, fmt.Sprintf("Apply %s to %s?", plan.Action, plan.Artifact))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(os.Stdout, "Aborted.")
			return nil
		}
	}

	executor := reconcile.NewExecutor(
		reconcile.WithBackupManager(newBackupManager()),
		reconcile.WithExecutorLogger(logger),
	)

	res, err := executor.Execute(plan, cand)
	if res != nil {
		r.Result(res)
	}
	if err != nil {
		if errors.Is(err, reconcile.ErrLocked) {
			return skuperrors.NewUserError(err,
				"Another skillup process is updating this skill. Retry once it finishes, or remove a stale .skillup.lock")
		}
		if errors.Is(err, reconcile.ErrStalePlan) {
			return skuperrors.NewUserError(err,
				"The installation changed after planning. Re-run 'skillup apply' to plan against the current state")
		}
		return skuperrors.NewSystemError(err, "")
	}

	logger.Info("update applied",
		slog.String("artifact", plan.Artifact),
		slog.String("action", string(res.ActionTaken)))
	return nil
}

// confirm prompts on stderr and reads a yes/no answer from stdin.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N]: ", question)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return false, errors.Wrap(err, "reading confirmation")
		}
		return false, nil
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes", nil
}
