package file

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/ports"
)

const entryExt = ".json"

// Store implements ports.KVStore using the local filesystem.
// Each key is one JSON file in BasePath; the file name is the query-escaped
// key so separators such as ':' stay portable.
type Store struct {
	BasePath string
}

var (
	_ ports.KVStore   = (*Store)(nil)
	_ ports.KeyLister = (*Store)(nil)
)

// NewStore creates a Store rooted at basePath.
// If basePath is empty, it defaults to ".storyboard/progress".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".storyboard", "progress")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.BasePath, url.QueryEscape(key)+entryExt)
}

// Set writes value atomically: temp file in the same directory, fsync,
// then rename over the destination.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure progress directory: %w", err)
	}

	destPath := s.path(key)

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*"+entryExt+".part")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(value); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename does not replace an existing file on Windows.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing entry for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}
	return nil
}

// Get reads the entry stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}
	return data, nil
}

// Delete removes the entry file.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete progress file: %w", err)
	}
	return nil
}

// Keys lists stored keys starting with prefix.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, entryExt) || strings.HasPrefix(name, "tmp-") {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, entryExt))
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
