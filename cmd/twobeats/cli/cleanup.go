package cli

import (
	"fmt"

	"twobeats/internal/app"

	"github.com/spf13/cobra"
)

func newCleanupCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Expire stale upload sessions and remove their staged files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			a, err := app.New(cfg, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Janitor.RunOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("cleanup failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d sessions, removed %d files, %d failures\n",
				result.Expired, result.FilesRemoved, result.Failed)
			return nil
		},
	}
}
