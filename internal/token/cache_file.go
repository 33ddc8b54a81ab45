package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/akave-ai/logwatch/internal/model"
)

// FileCache keeps one JSON snapshot per token in a directory, which survives
// process restarts on hosts that reuse their scratch disk. Entries older than
// the TTL are treated as misses and removed.
type FileCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewFileCache creates the directory if needed.
func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "logwatch-token-cache")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileCache{dir: dir, ttl: ttl, now: time.Now}, nil
}

func (c *FileCache) path(token string) string {
	return filepath.Join(c.dir, "token-cache-"+cacheKey(token)+".json")
}

func (c *FileCache) Get(_ context.Context, token string) (*model.Scope, error) {
	p := c.path(token)
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat cache file: %w", err)
	}
	if c.now().Sub(info.ModTime()) > c.ttl {
		_ = os.Remove(p)
		return nil, nil
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	var scope model.Scope
	if err := json.Unmarshal(data, &scope); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	return &scope, nil
}

// Set writes atomically; concurrent writers for the same token race on the
// final rename and the last one wins.
func (c *FileCache) Set(_ context.Context, token string, scope model.Scope) error {
	data, err := json.Marshal(scope)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	tmp, err := os.CreateTemp(c.dir, "token-cache-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(token)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}

func (c *FileCache) Delete(_ context.Context, token string) error {
	if err := os.Remove(c.path(token)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}

// Close is a no-op for the file cache.
func (c *FileCache) Close() error {
	return nil
}
