package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/updatesync/internal/app"
)

var errRemoteUnavailable = errors.New("remote store unavailable; run 'updatesync login' or check credentials.source")

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull remote updates and upload unsaved ones",
	Long: `Applies updates other clients have written, then uploads updates that
were saved locally while the remote store was unavailable.`,
	RunE: runSync,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Apply updates written by other clients",
	RunE:  runCheck,
}

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Upload updates waiting in the local log",
	RunE:  runFlush,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(flushCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
		if err := requireRemote(rt); err != nil {
			return err
		}
		cmd.Println("Synchronising...")

		// Opening the runtime already ran one pass; report what is left.
		applied, err := rt.Engine.CheckForUpdates(ctx)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		written, err := rt.Engine.Flush(ctx)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		cmd.Printf("Applied %d remote updates, uploaded %d.\n", applied, written)
		return reportUnsaved(ctx, cmd, rt)
	})
}

func runCheck(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
		if err := requireRemote(rt); err != nil {
			return err
		}
		applied, err := rt.Engine.CheckForUpdates(ctx)
		if err != nil {
			return fmt.Errorf("check failed: %w", err)
		}
		cmd.Printf("Applied %d remote updates.\n", applied)
		return nil
	})
}

func runFlush(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
		if err := requireRemote(rt); err != nil {
			return err
		}
		written, err := rt.Engine.Flush(ctx)
		if err != nil {
			return fmt.Errorf("flush failed: %w", err)
		}
		cmd.Printf("Uploaded %d updates.\n", written)
		return reportUnsaved(ctx, cmd, rt)
	})
}

func requireRemote(rt *app.Runtime) error {
	if !rt.Remote.Availability().Get().IsAvailable() {
		return errRemoteUnavailable
	}
	return nil
}

func reportUnsaved(ctx context.Context, cmd *cobra.Command, rt *app.Runtime) error {
	status, err := rt.Engine.Status(ctx)
	if err != nil {
		return err
	}
	if status.Unsaved > 0 {
		cmd.Printf("%d updates could not be uploaded and will be retried.\n", status.Unsaved)
	}
	return nil
}
