package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	skuperrors "github.com/thoreinstein/skillup/internal/errors"
	"github.com/thoreinstein/skillup/internal/logging"
	"github.com/thoreinstein/skillup/internal/metadata"
	"github.com/thoreinstein/skillup/internal/paths"
	"github.com/thoreinstein/skillup/pkg/fileutil"
)

var (
	installCandidate string
	installScope     string
)

func init() {
	installCmd.Flags().StringVarP(&installCandidate, "candidate", "c", "",
		"directory containing the skill to install (required)")
	installCmd.Flags().StringVar(&installScope, "scope", "user",
		"scope to install into: user, project")

	rootCmd.AddCommand(installCmd)
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install a skill that is not yet present",
	Long: `Copy a skill directory into a scope and record its metadata sidecar,
so that later updates can detect local edits against the installed
baseline.

To update a skill that is already installed, use 'skillup apply'.`,
	Example: `  # Install into the user scope
  skillup install --candidate ./releases/my-skill

  # Install into the current project
  skillup install --candidate ./releases/my-skill --scope project`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func runInstall(cmd *cobra.Command, _ []string) error {
	logger := logging.FromContext(cmd.Context())

	cand, err := loadCandidateDir(installCandidate)
	if err != nil {
		return err
	}

	scopes, err := filterScopes(searchScopes(), installScope)
	if err != nil {
		return err
	}
	root := scopes[0].Root

	target := filepath.Join(root, cand.Name)
	if _, err := os.Stat(target); err == nil {
		err := errors.Newf("skill %q already installed at %s", cand.Name, target)
		return skuperrors.NewUserError(err, "Use 'skillup apply' to update an installed skill")
	}

	if err := paths.EnsureDir(root, paths.DefaultDirPerm); err != nil {
		return skuperrors.NewSystemError(err, "")
	}
	for rel, data := range cand.Content {
		dst := filepath.Join(target, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), paths.DefaultDirPerm); err != nil {
			return skuperrors.NewSystemError(err, "")
		}
		if err := fileutil.AtomicWriteFile(dst, data, 0o644); err != nil {
			return skuperrors.NewSystemError(err, "")
		}
	}

	meta := &metadata.Metadata{
		Version:            cand.Version,
		OriginalFileHashes: cand.Hashes(),
	}
	if err := metadata.Save(target, meta); err != nil {
		return skuperrors.NewSystemError(err, "")
	}

	logger.Info("skill installed",
		slog.String("skill", cand.Name),
		slog.String("dir", target))
	fmt.Printf("Installed %s %s to %s\n", cand.Name, cand.Version, target)
	return nil
}
