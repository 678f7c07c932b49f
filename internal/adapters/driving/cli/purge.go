package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/updatesync/internal/app"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete this client's updates from the remote store",
	Long: `Deletes every object in the write area from the bucket.

Other clients keep the updates they already applied, and the local log is
left untouched. Use it to reset a dataset before starting over.`,
	RunE: runPurge,
}

var purgeYes bool

func init() {
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, _ []string) error {
	if !purgeYes && !confirm(cmd, "Delete every update in the write area?") {
		cmd.Println("Cancelled.")
		return nil
	}

	return withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
		if err := requireRemote(rt); err != nil {
			return err
		}
		deleted, err := rt.Remote.Purge(ctx)
		if err != nil {
			return fmt.Errorf("purge failed after %d objects: %w", deleted, err)
		}
		cmd.Printf("Deleted %d objects.\n", deleted)
		return nil
	})
}
