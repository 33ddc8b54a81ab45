package token

import (
	"context"
	"fmt"
	"time"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheFile   = "file"
	CacheNone   = "none"
)

// CacheConfig selects and configures a cache backend.
type CacheConfig struct {
	Backend string
	Size    int
	TTL     time.Duration
	Dir     string
	Redis   RedisConfig
}

// NewCache builds the configured backend. The "none" backend returns nil,
// which disables caching in the Resolver.
func NewCache(ctx context.Context, cfg CacheConfig) (Cache, error) {
	switch cfg.Backend {
	case "", CacheMemory:
		return NewMemoryCache(cfg.Size, cfg.TTL), nil
	case CacheRedis:
		rc := cfg.Redis
		if rc.TTL <= 0 {
			rc.TTL = cfg.TTL
		}
		return NewRedisCache(ctx, rc)
	case CacheFile:
		return NewFileCache(cfg.Dir, cfg.TTL)
	case CacheNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown token cache backend %q", cfg.Backend)
	}
}
