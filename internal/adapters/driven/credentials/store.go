package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
)

// Ensure FileStore implements the interface.
var _ driven.CredentialsStore = (*FileStore)(nil)

// FileStore keeps credentials in the file a FileSource watches.
type FileStore struct {
	path string
}

// NewFileStore creates a store for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: filepath.Clean(path)}
}

// Path returns the credentials file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the file. A missing file returns nil.
func (s *FileStore) Load(_ context.Context) (*domain.Credentials, error) {
	creds, err := ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &creds, nil
}

// Save writes creds to the file.
func (s *FileStore) Save(_ context.Context, creds domain.Credentials) error {
	return WriteFile(s.path, creds)
}

// Delete removes the file.
func (s *FileStore) Delete(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing credentials file: %w", err)
	}
	return nil
}
