package commands

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/skillup/internal/backup"
	skuperrors "github.com/thoreinstein/skillup/internal/errors"
	"github.com/thoreinstein/skillup/internal/render"
)

func init() {
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupPruneCmd)
	rootCmd.AddCommand(backupCmd)
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage update backups",
	Long: `Inspect and restore the backups skillup takes before overwriting
user-modified files.

Backups live under the skillup data directory, one timestamped directory
per update, each with a hash manifest that lets skillup verify the
backup before restoring it.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list <name>",
	Short: "List backups for a skill",
	Example: `  # Newest first
  skillup backup list my-skill`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupList,
}

func runBackupList(_ *cobra.Command, args []string) error {
	mgr := newBackupManager()

	manifests, err := mgr.List(args[0])
	if err != nil {
		return err
	}
	if len(manifests) == 0 {
		fmt.Printf("No backups for %s.\n", args[0])
		fmt.Println("Backups are created automatically when an update overwrites local edits.")
		return nil
	}

	render.New(os.Stdout).Backups(manifests)
	return nil
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <backup-id> <target-dir>",
	Short: "Restore a backup into a directory",
	Long: `Verify a backup against its hash manifest and copy its files into the
target directory. Existing files in the target are overwritten; files
not present in the backup are left alone.`,
	Example: `  # Restore over the installed skill
  skillup backup restore my-skill_20260828T101500 ~/.claude/skills/my-skill`,
	Args: cobra.ExactArgs(2),
	RunE: runBackupRestore,
}

func runBackupRestore(_ *cobra.Command, args []string) error {
	mgr := newBackupManager()

	backupID, targetDir := args[0], args[1]
	if err := mgr.Restore(backupID, targetDir); err != nil {
		switch {
		case errors.Is(err, backup.ErrBackupNotFound):
			return skuperrors.NewUserError(err,
				"Run 'skillup backup list <name>' to see available backup IDs")
		case errors.Is(err, backup.ErrBackupCorrupted):
			return skuperrors.NewSystemError(err,
				"The backup no longer matches its manifest and cannot be restored safely")
		default:
			return err
		}
	}

	fmt.Printf("Restored %s to %s\n", backupID, targetDir)
	return nil
}

var backupPruneCmd = &cobra.Command{
	Use:   "prune <name>",
	Short: "Delete old backups for a skill",
	Long: `Delete all but the newest backups for a skill. The number kept comes
from the backup.retention_count config setting unless --keep is given.`,
	Example: `  # Keep the three newest backups
  skillup backup prune my-skill --keep 3`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupPrune,
}

var backupPruneKeep int

func init() {
	backupPruneCmd.Flags().IntVar(&backupPruneKeep, "keep", -1,
		"number of backups to keep (default: config retention count)")
}

func runBackupPrune(_ *cobra.Command, args []string) error {
	mgr := newBackupManager()

	if err := mgr.Prune(args[0], backupPruneKeep); err != nil {
		return err
	}

	remaining, err := mgr.List(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Pruned backups for %s, %d remaining\n", args[0], len(remaining))
	return nil
}
