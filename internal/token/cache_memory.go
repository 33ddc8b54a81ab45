package token

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/akave-ai/logwatch/internal/model"
)

const (
	DefaultCacheSize = 10000
	DefaultCacheTTL  = time.Minute
)

// MemoryCache is an in-process LRU with a per-entry time to live.
type MemoryCache struct {
	lru *expirable.LRU[string, model.Scope]
}

// NewMemoryCache creates a cache holding at most size entries for ttl each.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{lru: expirable.NewLRU[string, model.Scope](size, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, token string) (*model.Scope, error) {
	scope, ok := c.lru.Get(cacheKey(token))
	if !ok {
		return nil, nil
	}
	return &scope, nil
}

func (c *MemoryCache) Set(_ context.Context, token string, scope model.Scope) error {
	c.lru.Add(cacheKey(token), scope)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, token string) error {
	c.lru.Remove(cacheKey(token))
	return nil
}

// Close is a no-op for the memory cache.
func (c *MemoryCache) Close() error {
	return nil
}
