package cmd

import (
	"fmt"

	"github.com/dishcraft/menusync/models"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one synchronization pass now",
	Long: `Drains the local mutation queue towards the central menu store once.

Items that could not be pushed stay queued; items whose retry budget was
exhausted are reported as sync_problematic and are retried only after the
next edit or sync.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)

		if err := app.Services.SyncService.SyncNow(ctx); err != nil {
			return fmt.Errorf("sync pass: %w", err)
		}

		items, err := app.Services.CatalogService.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}

		var pending, problematic int
		for _, item := range items {
			switch item.State() {
			case models.SyncStateProblematic:
				problematic++
			case models.SyncStatePending, models.SyncStatePendingDeletion:
				pending++
			}
		}

		fmt.Printf("sync pass completed: %d items still pending, %d problematic\n", pending, problematic)
		return nil
	},
}

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the background sync agent",
	Long: `Keeps the client running: the connectivity monitor probes the central
store and the sync job pushes queued changes periodically and whenever the
connection comes back. Stops on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunAgent()
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(agentCmd)
}
