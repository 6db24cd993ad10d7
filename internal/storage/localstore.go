package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore persists blobs as plain files under a root directory.
type LocalStore struct {
	rootDir string
}

// NewLocalStore initializes a LocalStore rooted at the given directory,
// creating it if needed.
func NewLocalStore(rootDir string) (*LocalStore, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &LocalStore{rootDir: rootDir}, nil
}

// RootDir returns the root directory path.
func (s *LocalStore) RootDir() string {
	return s.rootDir
}

func (s *LocalStore) filePath(path string) string {
	return filepath.Join(s.rootDir, filepath.FromSlash(path))
}

// Get reads the blob at path. A missing file maps to ErrNotFound.
func (s *LocalStore) Get(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(s.filePath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Put overwrites the blob at path, creating parent directories as needed.
// The write is a plain full-file overwrite, not an atomic rename; the data
// set is small and the process is the file's only writer.
func (s *LocalStore) Put(_ context.Context, path string, data []byte, _ string) error {
	full := s.filePath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Delete removes the blob at path, tolerating one that is already absent.
func (s *LocalStore) Delete(_ context.Context, path string, _ string) error {
	if err := os.Remove(s.filePath(path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}
