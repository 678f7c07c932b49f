// Package cli is the updatesync command line: a shared note board whose
// changes travel as updates through the sync engine.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/updatesync/internal/app"
	"github.com/custodia-labs/updatesync/internal/core/ports/driving"
	"github.com/custodia-labs/updatesync/internal/logger"
)

// RuntimeFactory opens the sync runtime for one command.
type RuntimeFactory func(ctx context.Context) (*app.Runtime, error)

var (
	version = "dev"
	verbose bool

	settingsService    driving.SettingsService
	credentialsService driving.CredentialsService
	openRuntime        RuntimeFactory
)

var rootCmd = &cobra.Command{
	Use:   "updatesync",
	Short: "Synchronise a shared note board through an object store",
	Long: `updatesync keeps a note board in step across machines.

Every change is an update. Updates are written to a local log first, then
to an S3 bucket when credentials are available, and updates written by
other clients are pulled back and applied in order.

Configure the bucket and namespace with 'updatesync settings set', sign in
with 'updatesync login', then add notes with 'updatesync note add'.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetSettingsService sets the settings service used by commands.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetCredentialsService sets the credentials service used by commands.
func SetCredentialsService(s driving.CredentialsService) {
	credentialsService = s
}

// SetRuntimeFactory sets how commands open the sync runtime.
func SetRuntimeFactory(f RuntimeFactory) {
	openRuntime = f
}

// withRuntime opens the runtime, runs fn and closes it.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *app.Runtime) error) error {
	if openRuntime == nil {
		return errors.New("sync runtime not configured")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			logger.Warn("closing runtime: %v", cerr)
		}
	}()
	return fn(ctx, rt)
}
