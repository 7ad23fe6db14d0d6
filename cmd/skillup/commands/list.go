package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/skillup/internal/artifact"
	"github.com/thoreinstein/skillup/internal/render"
)

var (
	listScope string
	listJSON  bool
)

func init() {
	listCmd.Flags().StringVar(&listScope, "scope", "",
		"limit the listing to one scope: user, project")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output in JSON format")

	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed skills",
	Long: `List skills installed in the user scope and any configured project
scopes, with their recorded versions.

Skills installed before skillup was adopted have no metadata sidecar and
are marked "(no baseline)". They can still be updated, but local edits
cannot be distinguished from upstream changes until the first managed
update records a baseline.`,
	Example: `  # List all installed skills
  skillup list

  # Only the user scope, as JSON
  skillup list --scope user --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// listEntry is one installed skill in JSON output.
type listEntry struct {
	Name        string     `json:"name"`
	Scope       string     `json:"scope"`
	Dir         string     `json:"dir"`
	Version     string     `json:"version,omitempty"`
	HasBaseline bool       `json:"hasBaseline"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

func runList(_ *cobra.Command, _ []string) error {
	scopes, err := filterScopes(searchScopes(), listScope)
	if err != nil {
		return err
	}

	locator := artifact.NewLocator(artifact.WithExcludes(activeConfig().Excludes()))

	var installs []artifact.Installed
	for _, scope := range scopes {
		found, err := locator.List(scope)
		if err != nil {
			return err
		}
		installs = append(installs, found...)
	}

	if listJSON {
		entries := make([]listEntry, len(installs))
		for i, in := range installs {
			entries[i] = listEntry{
				Name:        in.Name,
				Scope:       in.Scope.Name,
				Dir:         in.Dir,
				Version:     in.Version,
				HasBaseline: in.HasBaseline(),
			}
			if !in.UpdatedAt.IsZero() {
				t := in.UpdatedAt
				entries[i].UpdatedAt = &t
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(installs) == 0 {
		fmt.Println("No skills installed.")
		return nil
	}

	render.New(os.Stdout).Installed(installs)
	return nil
}
