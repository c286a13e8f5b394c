package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fortuna/clubsync/internal/store"
)

var syncClubID int64

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync one club, or every enabled club, against the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if syncClubID > 0 {
			result := a.orchestrator.SyncClub(cmd.Context(), syncClubID)
			result.Snapshot = nil
			if err := printJSON(result); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("club %d: %s", syncClubID, result.Error)
			}
			return nil
		}

		batch := a.orchestrator.ProcessDailySync(cmd.Context(), store.TriggerManual)
		if err := printJSON(batch); err != nil {
			return err
		}
		if batch.Failed > 0 {
			return fmt.Errorf("%d of %d clubs failed to sync", batch.Failed, batch.Total)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().Int64Var(&syncClubID, "club", 0, "sync only this club id")
	rootCmd.AddCommand(syncCmd)
}
