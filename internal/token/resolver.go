package token

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/akave-ai/logwatch/internal/metrics"
	"github.com/akave-ai/logwatch/internal/model"
)

// DefaultTimeout bounds a single credential store call.
const DefaultTimeout = 5 * time.Second

// Resolver maps raw tokens to scopes. Lookups consult the cache first and
// fall back to the store on a miss, populating the cache with the result.
//
// Misses are not serialized: two requests for the same uncached token may
// both query the store, and the later cache write wins.
//
// Revocation invalidates on write: Revoke deletes the cache entry after
// updating the store. A lookup that read the store before a revoke on this
// Resolver and writes the cache after it drops its own entry again.
// Revocations made directly in the database, or through another instance
// with a per-process cache, are bounded by the cache TTL.
type Resolver struct {
	store   Store
	cache   Cache
	timeout time.Duration
	logger  zerolog.Logger

	// revocations counts Revoke calls; lookups compare it across the store
	// read and the cache write.
	revocations atomic.Uint64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTimeout bounds each store call.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger used for cache failures.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver returns a Resolver. cache may be nil to disable caching.
func NewResolver(store Store, cache Cache, opts ...Option) *Resolver {
	r := &Resolver{
		store:   store,
		cache:   cache,
		timeout: DefaultTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the scope of token, ErrTokenNotFound or ErrTokenRevoked.
// Any other error means the store could not be consulted.
func (r *Resolver) Resolve(ctx context.Context, token string) (model.Scope, error) {
	if token == "" {
		return model.Scope{}, ErrMissingToken
	}

	if r.cache != nil {
		cached, err := r.cache.Get(ctx, token)
		switch {
		case err != nil:
			r.logger.Warn().Err(err).Msg("token cache read failed, falling back to store")
		case cached != nil && cached.Revoked:
			metrics.TokenLookups.WithLabelValues("revoked").Inc()
			r.evict(ctx, token)
			return model.Scope{}, ErrTokenRevoked
		case cached != nil:
			metrics.TokenLookups.WithLabelValues("hit").Inc()
			return *cached, nil
		}
	}

	generation := r.revocations.Load()
	storeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	scope, err := r.store.Find(storeCtx, token)
	if err != nil {
		metrics.TokenLookups.WithLabelValues("error").Inc()
		return model.Scope{}, fmt.Errorf("lookup token: %w", err)
	}
	if scope == nil {
		metrics.TokenLookups.WithLabelValues("not_found").Inc()
		return model.Scope{}, ErrTokenNotFound
	}
	if scope.Revoked {
		metrics.TokenLookups.WithLabelValues("revoked").Inc()
		return model.Scope{}, ErrTokenRevoked
	}

	metrics.TokenLookups.WithLabelValues("miss").Inc()
	if r.cache != nil {
		if err := r.cache.Set(ctx, token, *scope); err != nil {
			r.logger.Warn().Err(err).Msg("token cache write failed")
		} else if r.revocations.Load() != generation {
			// A revoke ran while the store was being read; the snapshot may
			// predate it.
			r.evict(ctx, token)
		}
	}
	return *scope, nil
}

// Revoke marks token revoked in the store and drops any cached snapshot.
func (r *Resolver) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return ErrMissingToken
	}
	storeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	err := r.store.Revoke(storeCtx, token)
	r.revocations.Add(1)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			r.evict(ctx, token)
			return err
		}
		return fmt.Errorf("revoke token: %w", err)
	}
	if r.cache != nil {
		if err := r.cache.Delete(ctx, token); err != nil {
			return fmt.Errorf("evict revoked token: %w", err)
		}
	}
	return nil
}

func (r *Resolver) evict(ctx context.Context, token string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, token); err != nil {
		r.logger.Warn().Err(err).Msg("token cache delete failed")
	}
}
