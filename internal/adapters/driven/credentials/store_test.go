package credentials

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "credentials.toml"))

	creds, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, creds)

	require.NoError(t, store.Save(ctx, testCreds))
	assert.FileExists(t, store.Path())

	creds, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, testCreds, *creds)

	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.Delete(ctx))
	assert.NoFileExists(t, store.Path())
}

func TestFileStore_FeedsFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.toml")
	store := NewFileStore(path)
	require.NoError(t, store.Save(context.Background(), testCreds))

	source := NewFileSource(path)

	state := source.Availability().Get()
	assert.True(t, state.Available)
	assert.Equal(t, "alice", state.Credentials.UserID)
}
