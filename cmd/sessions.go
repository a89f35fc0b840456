package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/omni-cli/internal/config"
	"github.com/quocvuong92/omni-cli/internal/display"
	"github.com/quocvuong92/omni-cli/internal/history"
)

func newSessionsCmd(app *App) *cobra.Command {
	var (
		limit    int
		clearAll bool
	)

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "List or clear archived sessions",
		Long: `Every interactive session is archived when it ends. This lists the most
recent ones, newest first, or removes all of them with --clear.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archive := history.NewArchive(sessionsPath(app))
			if clearAll {
				if err := archive.Clear(); err != nil {
					return app.fail(err)
				}
				display.ShowSuccess("Archived sessions removed.")
				return nil
			}

			entries, err := archive.GetRecentConversations(limit)
			if err != nil {
				return app.fail(err)
			}
			if len(entries) == 0 {
				display.ShowInfo(fmt.Sprintf("No archived sessions in %s", archive.Dir()))
				return nil
			}
			display.ShowArchive(entries)
			return nil
		},
	}
	sessionsCmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of sessions to list (0 for all)")
	sessionsCmd.Flags().BoolVar(&clearAll, "clear", false, "Remove every archived session")

	return sessionsCmd
}

// sessionsPath resolves the archive directory without requiring provider
// credentials.
func sessionsPath(app *App) string {
	dir := config.FromViper(app.v).StateDir
	if dir == "" {
		dir = config.DefaultStateDir()
	}
	return filepath.Join(dir, sessionsDir)
}
