package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/updatesync/internal/adapters/driven/storage/sqlite/migrations"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "nested", "updatesync.db"), store.Path())
	assert.FileExists(t, store.Path())
}

func TestStore_MigrationsRecorded(t *testing.T) {
	store := newTestStore(t)

	version, err := store.schemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	for _, table := range []string{"unsaved_updates", "known_updates", "poll_tasks", "poll_runs"} {
		var name string
		err := store.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestStore_MigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.migrate(migrations.FS))

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.LocalLog("todo", "main").AppendUnsaved(ctx, testUpdate("u1")))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	unsaved, err := second.LocalLog("todo", "main").ListUnsaved(ctx)
	require.NoError(t, err)
	require.Len(t, unsaved, 1)
	assert.Equal(t, "u1", unsaved[0].ID)
}
