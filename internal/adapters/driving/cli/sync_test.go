package cli

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/updatesync/internal/adapters/driven/credentials"
	"github.com/custodia-labs/updatesync/internal/adapters/driven/objectstore/memory"
	"github.com/custodia-labs/updatesync/internal/app"
	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/notes"
)

// writeFromOtherClient adds a note through a second runtime sharing the
// fixture's bucket but not its local log.
func writeFromOtherClient(t *testing.T, f *cliFixture, text string) {
	t.Helper()
	settings := f.settings
	settings.DataDir = t.TempDir()
	source, err := credentials.NewAccessKeySource(domain.Credentials{
		AccessKeyID: "AKIDBOB", SecretAccessKey: "secret", UserID: "bob",
	})
	require.NoError(t, err)

	rt, err := app.Open(context.Background(), app.Options{
		Settings:    settings,
		Objects:     f.objects,
		Credentials: source,
		Registry:    prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, rt.Close()) }()

	u, err := notes.AddUpdate(text, "bob", time.Now())
	require.NoError(t, err)
	require.NoError(t, rt.Engine.DispatchUpdate(context.Background(), u))
}

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync", syncCmd.Use)
	assert.Equal(t, "check", checkCmd.Use)
	assert.Equal(t, "flush", flushCmd.Use)
}

func TestSyncCmd_Short(t *testing.T) {
	assert.Equal(t, "Pull remote updates and upload unsaved ones", syncCmd.Short)
}

func TestSyncCmd_Long(t *testing.T) {
	assert.Contains(t, syncCmd.Long, "other clients")
	assert.Contains(t, syncCmd.Long, "unavailable")
}

func TestSyncCmd_ReceivesOtherClientNotes(t *testing.T) {
	f := setupRuntime(t)
	writeFromOtherClient(t, f, "from bob")

	out, err := runCLI(t, "", "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Synchronising...")
	// Opening the runtime already applied bob's note
	assert.Contains(t, out, "Applied 0 remote updates, uploaded 0.")

	out, err = runCLI(t, "", "note", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "from bob (bob)")
}

func TestSyncCmd_SignedOut(t *testing.T) {
	f := setupRuntime(t)
	f.signOut()

	_, err := runCLI(t, "", "sync")
	assert.ErrorIs(t, err, errRemoteUnavailable)

	_, err = runCLI(t, "", "check")
	assert.ErrorIs(t, err, errRemoteUnavailable)

	_, err = runCLI(t, "", "flush")
	assert.ErrorIs(t, err, errRemoteUnavailable)
}

func TestCheckCmd(t *testing.T) {
	setupRuntime(t)

	out, err := runCLI(t, "", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 0 remote updates.")
}

func TestFlushCmd_ReportsRetries(t *testing.T) {
	f := setupRuntime(t)
	resetNoteFlags(t)
	f.objects.FailWith(memory.OpPut, domain.ErrStoreFailed, nil)

	out, err := runCLI(t, "", "note", "add", "stuck")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved locally; 1 change(s) waiting for upload.")

	out, err = runCLI(t, "", "flush")
	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded 0 updates.")
	assert.Contains(t, out, "1 updates could not be uploaded and will be retried.")
}
