package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ezraball/neighborhood-tour/internal/domain/repository"
)

// DiskCache is a content-addressed byte store on the local filesystem. Keys
// are hex digests, so concurrent runs writing independent keys never
// contend; writes go to a temp file first and are renamed into place, so a
// killed process cannot leave a truncated entry.
type DiskCache struct {
	dir string
}

// NewDiskCache creates the cache directory if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

// Get returns the cached bytes for key, or ErrCacheMiss.
func (c *DiskCache) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, repository.ErrCacheMiss
		}
		return nil, fmt.Errorf("cache read failed: %w", err)
	}
	return data, nil
}

// Put stores data under key atomically.
func (c *DiskCache) Put(key string, data []byte) error {
	tmp := filepath.Join(c.dir, fmt.Sprintf(".tmp-%s", uuid.NewString()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}
	if err := os.Rename(tmp, c.path(key)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cache rename failed: %w", err)
	}
	return nil
}

func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, key+".img")
}
