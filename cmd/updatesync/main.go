// Command updatesync synchronises a shared note board through an S3 bucket.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/updatesync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/updatesync/internal/adapters/driven/credentials"
	"github.com/custodia-labs/updatesync/internal/adapters/driving/cli"
	"github.com/custodia-labs/updatesync/internal/app"
	"github.com/custodia-labs/updatesync/internal/core/services"
	"github.com/custodia-labs/updatesync/internal/logger"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	defer func() { _ = logger.Sync() }()

	// .env supplies UPDATESYNC_* overrides during development
	_ = godotenv.Load(".env") //nolint:errcheck // optional file

	configStore, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	credentialsPath, err := app.CredentialsPath(*settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	cli.SetVersion(version)
	cli.SetSettingsService(settingsService)
	cli.SetCredentialsService(services.NewCredentialsService(credentials.NewFileStore(credentialsPath)))
	cli.SetRuntimeFactory(func(ctx context.Context) (*app.Runtime, error) {
		// Re-read so 'settings set' earlier in a script takes effect
		current, err := settingsService.Get()
		if err != nil {
			return nil, err
		}
		return app.Open(ctx, app.Options{Settings: *current})
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
