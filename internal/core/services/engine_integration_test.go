package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/updatesync/internal/adapters/driven/credentials"
	"github.com/custodia-labs/updatesync/internal/adapters/driven/metrics"
	"github.com/custodia-labs/updatesync/internal/adapters/driven/objectstore/memory"
	storage "github.com/custodia-labs/updatesync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/updatesync/internal/adapters/driven/updatestore"
	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/services"
	"github.com/custodia-labs/updatesync/internal/notes"
)

const bucket = "board"

// client is one device: its own local log, board and credentials over a
// shared bucket.
type client struct {
	engine *services.Engine
	board  *services.Container[notes.Board]
	source *credentials.AccessKeySource
	local  *storage.LocalLog
}

func newClient(t *testing.T, objects *memory.Store, ns domain.Namespace, local *storage.LocalLog) *client {
	t.Helper()
	source := credentials.NewSignedOutSource()
	creds := services.NewCredentialsSignal(source)
	t.Cleanup(creds.Close)

	remote := updatestore.New(objects, creds, updatestore.Config{Bucket: bucket, Namespace: ns})
	t.Cleanup(remote.Close)

	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	board := notes.NewContainer()
	engine := services.NewEngine(remote, local, board, m)
	t.Cleanup(func() { _ = engine.Close() })

	require.NoError(t, engine.Init(context.Background()))
	return &client{engine: engine, board: board, source: source, local: local}
}

func (c *client) signIn(t *testing.T, userID string) {
	t.Helper()
	require.NoError(t, c.source.SignIn(domain.Credentials{
		AccessKeyID: "AKID" + userID, SecretAccessKey: "secret", UserID: userID,
	}))
	c.engine.Wait()
}

func (c *client) add(t *testing.T, text string) {
	t.Helper()
	u, err := notes.AddUpdate(text, "", time.Now())
	require.NoError(t, err)
	require.NoError(t, c.engine.DispatchUpdate(context.Background(), u))
}

func texts(b notes.Board) []string {
	out := make([]string, 0, len(b.Notes))
	for _, n := range b.Notes {
		out = append(out, n.Text)
	}
	return out
}

func sharedNamespace() domain.Namespace {
	return domain.Namespace{AppID: "notes", DataSet: "team", WriteArea: "updates", ReadAreas: []string{"updates"}}
}

func TestIntegration_OfflineChangesUploadOnSignIn(t *testing.T) {
	objects := memory.New()
	a := newClient(t, objects, sharedNamespace(), storage.NewLocalLog())

	a.add(t, "first")
	a.add(t, "second")
	assert.Empty(t, objects.Keys(bucket))

	a.signIn(t, "alice")

	assert.Len(t, objects.Keys(bucket), 2)
	status, err := a.engine.Status(context.Background())
	require.NoError(t, err)
	assert.Zero(t, status.Unsaved)
	assert.Equal(t, []string{"first", "second"}, texts(a.board.State()))
}

func TestIntegration_TwoClientsConverge(t *testing.T) {
	objects := memory.New()
	a := newClient(t, objects, sharedNamespace(), storage.NewLocalLog())
	b := newClient(t, objects, sharedNamespace(), storage.NewLocalLog())
	a.signIn(t, "alice")
	b.signIn(t, "bob")

	a.add(t, "from alice")
	b.add(t, "from bob")

	applied, err := a.engine.CheckForUpdates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	applied, err = b.engine.CheckForUpdates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	assert.ElementsMatch(t, texts(a.board.State()), texts(b.board.State()))
	assert.Len(t, a.board.State().Notes, 2)

	// A second poll applies nothing new
	applied, err = a.engine.CheckForUpdates(context.Background())
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestIntegration_PerUserAreas(t *testing.T) {
	objects := memory.New()
	ns := domain.Namespace{
		AppID:     "notes",
		DataSet:   "team",
		WriteArea: "users/$USER_ID$",
		ReadAreas: []string{"users/alice", "users/bob"},
	}
	a := newClient(t, objects, ns, storage.NewLocalLog())
	b := newClient(t, objects, ns, storage.NewLocalLog())
	a.signIn(t, "alice")
	b.signIn(t, "bob")

	a.add(t, "alice only")
	b.add(t, "bob only")

	keys := objects.Keys(bucket)
	require.Len(t, keys, 2)
	assert.Contains(t, keys[0], "notes/team/users/alice/")
	assert.Contains(t, keys[1], "notes/team/users/bob/")

	_, err := a.engine.CheckForUpdates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice only", "bob only"}, texts(a.board.State()))
}

func TestIntegration_SignOutKeepsBacklog(t *testing.T) {
	objects := memory.New()
	local := storage.NewLocalLog()
	a := newClient(t, objects, sharedNamespace(), local)
	a.signIn(t, "alice")

	a.source.SignOut()
	a.add(t, "while away")
	assert.Empty(t, objects.Keys(bucket))

	// A restart replays the log and keeps the update queued
	restarted := newClient(t, objects, sharedNamespace(), local)
	assert.Equal(t, []string{"while away"}, texts(restarted.board.State()))

	restarted.signIn(t, "alice")
	assert.Len(t, objects.Keys(bucket), 1)
	unsaved, err := local.ListUnsaved(context.Background())
	require.NoError(t, err)
	assert.Empty(t, unsaved)
}
