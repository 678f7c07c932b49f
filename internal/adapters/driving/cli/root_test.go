package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/updatesync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/updatesync/internal/adapters/driven/credentials"
	"github.com/custodia-labs/updatesync/internal/adapters/driven/objectstore/memory"
	"github.com/custodia-labs/updatesync/internal/app"
	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
	"github.com/custodia-labs/updatesync/internal/core/services"
)

var alice = domain.Credentials{AccessKeyID: "AKIDALICE1234", SecretAccessKey: "secret", UserID: "alice"}

// cliFixture backs the runtime factory with an in-memory bucket and a
// data directory that survives between commands.
type cliFixture struct {
	objects  *memory.Store
	settings domain.SyncSettings
	source   driven.CredentialsSource
}

func setupRuntime(t *testing.T) *cliFixture {
	t.Helper()
	settings := domain.DefaultSyncSettings()
	settings.Remote.Bucket = "notes-bucket"
	settings.Namespace.AppID = "notes"
	settings.Namespace.DataSet = "team"
	settings.DataDir = t.TempDir()

	source, err := credentials.NewAccessKeySource(alice)
	require.NoError(t, err)

	f := &cliFixture{objects: memory.New(), settings: settings, source: source}

	old := openRuntime
	openRuntime = func(ctx context.Context) (*app.Runtime, error) {
		return app.Open(ctx, app.Options{
			Settings:    f.settings,
			Objects:     f.objects,
			Credentials: f.source,
			Registry:    prometheus.NewRegistry(),
		})
	}
	t.Cleanup(func() { openRuntime = old })
	return f
}

// signOut makes later commands run without credentials.
func (f *cliFixture) signOut() {
	f.source = credentials.NewSignedOutSource()
}

func (f *cliFixture) signIn(t *testing.T) {
	t.Helper()
	source, err := credentials.NewAccessKeySource(alice)
	require.NoError(t, err)
	f.source = source
}

func setupSettings(t *testing.T) *services.SettingsService {
	t.Helper()
	store, err := file.NewConfigStore(t.TempDir())
	require.NoError(t, err)
	svc := services.NewSettingsService(store)

	old := settingsService
	settingsService = svc
	t.Cleanup(func() { settingsService = old })
	return svc
}

func setupCredentials(t *testing.T) (*services.CredentialsService, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.toml")
	svc := services.NewCredentialsService(credentials.NewFileStore(path))

	old := credentialsService
	credentialsService = svc
	t.Cleanup(func() { credentialsService = old })
	return svc, path
}

// runCLI executes the root command with args and returns its output.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "updatesync", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{
		"note", "sync", "check", "flush", "status", "watch",
		"purge", "login", "logout", "whoami", "settings", "version",
	} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRootCmd_VerboseFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
}

func TestWithRuntime_NotConfigured(t *testing.T) {
	old := openRuntime
	openRuntime = nil
	defer func() { openRuntime = old }()

	_, err := runCLI(t, "", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync runtime not configured")
}

func TestSetRuntimeFactory(t *testing.T) {
	old := openRuntime
	defer func() { openRuntime = old }()

	called := false
	SetRuntimeFactory(func(context.Context) (*app.Runtime, error) {
		called = true
		return nil, domain.ErrInvalidInput
	})

	_, err := runCLI(t, "", "status")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.True(t, called)
}
