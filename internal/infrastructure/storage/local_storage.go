package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var _ ArchiveStore = (*LocalArchiveStore)(nil)

// LocalArchiveStore writes archive exports below a directory on disk.
// Use this for single-host deployments without object storage.
type LocalArchiveStore struct {
	dir string
}

// NewLocalArchiveStore creates a store rooted at dir
func NewLocalArchiveStore(dir string) *LocalArchiveStore {
	return &LocalArchiveStore{dir: dir}
}

// EnsureBucket creates the root directory
func (s *LocalArchiveStore) EnsureBucket(_ context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}
	return nil
}

// PutObject writes body to dir/key. The file is written under a temporary
// name and renamed so readers never see a partial export.
func (s *LocalArchiveStore) PutObject(_ context.Context, key string, body []byte, _ string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return nil
}

// path resolves key inside the root directory
func (s *LocalArchiveStore) path(key string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("storage key %q escapes the archive directory", key)
	}
	return filepath.Join(s.dir, clean), nil
}
