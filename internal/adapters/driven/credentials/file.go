package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
	"github.com/custodia-labs/updatesync/internal/logger"
	"github.com/custodia-labs/updatesync/internal/signal"
)

// Ensure FileSource implements the interface.
var _ driven.CredentialsSource = (*FileSource)(nil)

// FileSource reads credentials from a TOML file:
//
//	access_key_id = "AKID..."
//	secret_access_key = "..."
//	session_token = ""   # optional
//	user_id = "alice"    # optional
//
// Writing the file signs in; removing it, or writing one without keys,
// signs out.
type FileSource struct {
	path string

	mu           sync.Mutex
	watcher      *fsnotify.Watcher
	availability *signal.Value[domain.CredentialsState]
	invalidated  *signal.Event[struct{}]
}

// NewFileSource creates a source for path and loads it once. A missing
// file leaves the source unavailable.
func NewFileSource(path string) *FileSource {
	s := &FileSource{
		path:         filepath.Clean(path),
		availability: signal.NewValue(domain.Unavailable),
		invalidated:  signal.NewEvent[struct{}](),
	}
	if err := s.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Credentials file %s: %v", s.path, err)
	}
	return s
}

// Availability returns the credentials state.
func (s *FileSource) Availability() *signal.Value[domain.CredentialsState] {
	return s.availability
}

// Invalidated fires when available credentials are withdrawn.
func (s *FileSource) Invalidated() *signal.Event[struct{}] {
	return s.invalidated
}

// Reload reads the file and publishes its credentials.
func (s *FileSource) Reload() error {
	creds, err := ReadFile(s.path)
	if err != nil {
		s.signOut()
		return err
	}
	s.availability.Set(domain.AvailableWith(creds))
	return nil
}

// Watch follows changes to the file until ctx is done or Close is called.
// The parent directory is watched so the file may be created later or
// replaced by rename.
func (s *FileSource) Watch(ctx context.Context) error {
	s.mu.Lock()
	if s.watcher != nil {
		s.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		s.mu.Unlock()
		_ = watcher.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(s.path), err)
	}
	s.watcher = watcher
	s.mu.Unlock()

	go s.watchLoop(ctx, watcher)
	return nil
}

// Close stops watching.
func (s *FileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.watcher = nil
	return err
}

func (s *FileSource) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			s.handleFsEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Credentials watcher: %v", err)
		}
	}
}

// handleFsEvent applies one file system event and reports whether it
// concerned the credentials file.
func (s *FileSource) handleFsEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != s.path {
		return false
	}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		logger.Info("Credentials file removed")
		s.signOut()
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if err := s.Reload(); err != nil {
			logger.Warn("Credentials file %s: %v", s.path, err)
		}
	default:
		return false
	}
	return true
}

func (s *FileSource) signOut() {
	if !s.availability.Get().Available {
		return
	}
	s.availability.Set(domain.Unavailable)
	s.invalidated.Send(struct{}{})
}

// ReadFile parses a credentials file.
func ReadFile(path string) (domain.Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Credentials{}, err
	}
	var creds domain.Credentials
	if err := toml.Unmarshal(data, &creds); err != nil {
		return domain.Credentials{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if !creds.HasKeys() {
		return domain.Credentials{}, fmt.Errorf("%w: %s has no access keys", domain.ErrInvalidInput, path)
	}
	return creds, nil
}

// WriteFile stores creds at path with owner-only permissions.
func WriteFile(path string, creds domain.Credentials) error {
	data, err := toml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
