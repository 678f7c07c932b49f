package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/updatesync/internal/app"
	"github.com/custodia-labs/updatesync/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show remote availability and the local log",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
		status, err := rt.Engine.Status(ctx)
		if err != nil {
			return err
		}

		cmd.Printf("Remote:  %s\n", status.Availability)
		if creds, ok := rt.Credentials.Current(); ok {
			cmd.Printf("User:    %s\n", orNotSet(creds.UserID))
		} else {
			cmd.Println("User:    signed out")
		}
		cmd.Printf("Known:   %d updates\n", status.Known)
		cmd.Printf("Unsaved: %d updates\n", status.Unsaved)
		cmd.Printf("Notes:   %d\n", len(rt.Board.State().Notes))
		if rt.SchedulerConfig.Enabled {
			cmd.Printf("Polling: every %s while watching\n", rt.SchedulerConfig.GetTaskConfig(domain.TaskIDUpdatePoll).Interval)
		} else {
			cmd.Println("Polling: off")
		}
		return nil
	})
}
