package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore returns a store in a temp dir with no environment overrides.
func newTestStore(t *testing.T, env map[string]string) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	store.lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_NestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	require.NoError(t, store.Set("remote.bucket", "updates"))
	assert.FileExists(t, filepath.Join(dir, "config.toml"))
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("this is not valid TOML {{{[["), 0600)
	require.NoError(t, err)

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte{}, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	val, ok := store.Get("remote.bucket")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestStore(t, nil)

	require.NoError(t, store.Set("remote.bucket", "updates"))
	require.NoError(t, store.Set("remote.request_burst", 4))
	require.NoError(t, store.Set("remote.use_path_style", true))
	require.NoError(t, store.Set("namespace.read_areas", []string{"private", "shared"}))

	assert.Equal(t, "updates", store.GetString("remote.bucket"))
	assert.Equal(t, 4, store.GetInt("remote.request_burst"))
	assert.True(t, store.GetBool("remote.use_path_style"))
	assert.Equal(t, []string{"private", "shared"}, store.GetStringSlice("namespace.read_areas"))

	// Wrong types and missing keys read as zero values
	assert.Empty(t, store.GetString("remote.request_burst"))
	assert.Zero(t, store.GetInt("remote.bucket"))
	assert.False(t, store.GetBool("remote.bucket"))
	assert.Nil(t, store.GetStringSlice("remote.request_burst"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_PersistsAsTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("remote.bucket", "updates"))
	require.NoError(t, store.Set("remote.requests_per_second", 2.5))
	require.NoError(t, store.Set("namespace.read_areas", []string{"private", "shared"}))
	require.NoError(t, store.Set("scheduler.update_poll.interval", "30s"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[remote]")
	assert.Contains(t, string(raw), "[scheduler.update_poll]")

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "updates", reloaded.GetString("remote.bucket"))
	assert.Equal(t, []string{"private", "shared"}, reloaded.GetStringSlice("namespace.read_areas"))
	assert.Equal(t, "30s", reloaded.GetString("scheduler.update_poll.interval"))

	rate, ok := reloaded.Get("remote.requests_per_second")
	require.True(t, ok)
	assert.Equal(t, 2.5, rate)
}

func TestConfigStore_LoadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[remote]
bucket = "team-updates"
request_burst = 8

[namespace]
app_id = "todo"
read_areas = ["private-$USER_ID$", "shared"]
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "team-updates", store.GetString("remote.bucket"))
	assert.Equal(t, 8, store.GetInt("remote.request_burst"))
	assert.Equal(t, "todo", store.GetString("namespace.app_id"))
	assert.Equal(t, []string{"private-$USER_ID$", "shared"}, store.GetStringSlice("namespace.read_areas"))
}

func TestConfigStore_EnvironmentOverrides(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"UPDATESYNC_REMOTE_BUCKET":         "from-env",
		"UPDATESYNC_REMOTE_REQUEST_BURST":  "16",
		"UPDATESYNC_REMOTE_USE_PATH_STYLE": "true",
		"UPDATESYNC_NAMESPACE_READ_AREAS":  "private, shared,,",
	})
	require.NoError(t, store.Set("remote.bucket", "from-file"))

	assert.Equal(t, "from-env", store.GetString("remote.bucket"))
	assert.Equal(t, 16, store.GetInt("remote.request_burst"))
	assert.True(t, store.GetBool("remote.use_path_style"))
	assert.Equal(t, []string{"private", "shared"}, store.GetStringSlice("namespace.read_areas"))

	// Overrides are never written back
	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "from-file")
	assert.NotContains(t, string(raw), "from-env")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "UPDATESYNC_REMOTE_BUCKET", EnvKey("remote.bucket"))
	assert.Equal(t, "UPDATESYNC_SCHEDULER_UPDATE_POLL_INTERVAL", EnvKey("scheduler.update-poll.interval"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestStore(t, nil)

	require.NoError(t, store.Set("remote.bucket", "updates"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_SetUnmarshallableValue(t *testing.T) {
	store := newTestStore(t, nil)
	require.NoError(t, store.Set("remote.bucket", "updates"))

	// Channels cannot be marshalled to TOML
	err := store.Set("remote.bucket", make(chan int))

	assert.Error(t, err)
	assert.Equal(t, "updates", store.GetString("remote.bucket"))

	err = store.Set("remote.other", make(chan int))
	assert.Error(t, err)
	_, ok := store.Get("remote.other")
	assert.False(t, ok)
}

func TestConfigStore_SaveWriteError(t *testing.T) {
	store := newTestStore(t, nil)
	require.NoError(t, store.Set("remote.bucket", "updates"))

	// Replace the file with a directory to cause a write error
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Save())
	assert.Error(t, store.Load())
}

func TestConfigStore_LoadInvalidTOML(t *testing.T) {
	store := newTestStore(t, nil)
	require.NoError(t, store.Set("remote.bucket", "updates"))

	require.NoError(t, os.WriteFile(store.Path(), []byte("invalid toml syntax ][}{"), 0600))

	assert.Error(t, store.Load())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestStore(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := "workers.key" + string(rune('0'+id))
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			_ = store.GetString(key)
			_ = store.GetBool(key)
		}(i)
	}
	wg.Wait()

	reloaded, err := NewConfigStore(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Equal(t, 7, reloaded.GetInt("workers.key7"))
}

func TestFlattenAndNestMap(t *testing.T) {
	nested := map[string]any{
		"remote": map[string]any{"bucket": "updates"},
		"top":    1,
	}

	flat := flattenMap(nested, "")
	assert.Equal(t, map[string]any{"remote.bucket": "updates", "top": 1}, flat)
	assert.Equal(t, nested, nestMap(flat))
}
