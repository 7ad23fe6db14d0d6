package commands

import (
	"os"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/skillup/internal/artifact"
	"github.com/thoreinstein/skillup/internal/backup"
	"github.com/thoreinstein/skillup/internal/cli/prompt"
	skuperrors "github.com/thoreinstein/skillup/internal/errors"
)

// searchScopes builds the scope list in precedence order: the user scope,
// the current working directory, then any extra project roots from config.
func searchScopes() []artifact.Scope {
	scopes := []artifact.Scope{artifact.UserScope()}

	if wd, err := os.Getwd(); err == nil {
		scopes = append(scopes, artifact.ProjectScope(wd))
	}
	for _, root := range activeConfig().ProjectScopes {
		scopes = append(scopes, artifact.ProjectScope(root))
	}
	return scopes
}

// filterScopes narrows the scope list to the named scope. An empty name
// keeps all scopes.
func filterScopes(scopes []artifact.Scope, name string) ([]artifact.Scope, error) {
	if name == "" {
		return scopes, nil
	}
	var out []artifact.Scope
	for _, s := range scopes {
		if s.Name == name {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		err := errors.Newf("unknown scope %q (valid: user, project)", name)
		return nil, skuperrors.NewUserError(err, "Use --scope user or --scope project")
	}
	return out, nil
}

// locateInstallation finds the named artifact across the given scopes and,
// when it is installed in more than one place, asks the user to pick one.
func locateInstallation(name string, scopes []artifact.Scope) (*artifact.Installed, error) {
	locator := artifact.NewLocator(artifact.WithExcludes(activeConfig().Excludes()))

	installs, err := locator.Locate(name, scopes)
	if err != nil {
		return nil, err
	}
	if len(installs) == 0 {
		err := errors.Wrapf(artifact.ErrNotInstalled, "%s", name)
		return nil, skuperrors.NewUserError(err,
			"Run 'skillup list' to see installed skills, or 'skillup install' to install this one")
	}

	return prompt.SelectInstallation(installs)
}

// newBackupManager builds a backup manager from the active config.
func newBackupManager() *backup.Manager {
	c := activeConfig()

	var opts []backup.Option
	if dir := c.BackupDir(); dir != "" {
		opts = append(opts, backup.WithBackupDir(dir))
	}
	opts = append(opts, backup.WithRetentionCount(c.Retention()))
	return backup.NewManager(opts...)
}

// loadCandidateDir validates and loads the --candidate directory.
func loadCandidateDir(dir string) (*artifact.Candidate, error) {
	if dir == "" {
		return nil, skuperrors.NewUserError(errors.New("--candidate is required"),
			"Pass the directory containing the new skill version with --candidate <dir>")
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, skuperrors.NewUserError(errors.Newf("candidate directory %q not found", dir),
			"Check the --candidate path")
	}

	cand, err := artifact.LoadCandidate(dir, activeConfig().Excludes())
	if err != nil {
		if errors.Is(err, artifact.ErrNoMarker) {
			return nil, skuperrors.NewUserError(err,
				"A candidate directory must contain a SKILL.md marker file")
		}
		return nil, err
	}
	return cand, nil
}
