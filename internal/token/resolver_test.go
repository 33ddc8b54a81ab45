package token

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akave-ai/logwatch/internal/model"
)

type fakeStore struct {
	mu      sync.Mutex
	tokens  map[string]model.Scope
	finds   atomic.Int32
	findErr error
	delay   time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{tokens: map[string]model.Scope{
		"good": {AccountID: 1, EnvironmentID: 2},
	}}
}

func (s *fakeStore) Find(ctx context.Context, token string) (*model.Scope, error) {
	s.finds.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	scope, ok := s.tokens[token]
	if !ok || scope.Revoked {
		return nil, nil
	}
	return &scope, nil
}

func (s *fakeStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	scope, ok := s.tokens[token]
	if !ok {
		return ErrTokenNotFound
	}
	scope.Revoked = true
	s.tokens[token] = scope
	return nil
}

func TestResolver_WriteThrough(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cache := NewMemoryCache(10, time.Minute)
	r := NewResolver(store, cache)

	scope, err := r.Resolve(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, model.Scope{AccountID: 1, EnvironmentID: 2}, scope)
	assert.EqualValues(t, 1, store.finds.Load())

	cached, err := cache.Get(ctx, "good")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, scope, *cached)

	again, err := r.Resolve(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, scope, again)
	assert.EqualValues(t, 1, store.finds.Load(), "second resolution must be served from cache")
}

func TestResolver_UnknownTokenIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cache := NewMemoryCache(10, time.Minute)
	r := NewResolver(store, cache)

	_, err := r.Resolve(ctx, "nope")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	cached, err := cache.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, cached)

	_, err = r.Resolve(ctx, "nope")
	assert.ErrorIs(t, err, ErrTokenNotFound)
	assert.EqualValues(t, 2, store.finds.Load())
}

func TestResolver_RevokeInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cache := NewMemoryCache(10, time.Minute)
	r := NewResolver(store, cache)

	_, err := r.Resolve(ctx, "good")
	require.NoError(t, err)

	require.NoError(t, r.Revoke(ctx, "good"))

	_, err = r.Resolve(ctx, "good")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	cached, err := cache.Get(ctx, "good")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestResolver_RevokedSnapshotNeverResolves(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cache := NewMemoryCache(10, time.Minute)
	require.NoError(t, cache.Set(ctx, "stale", model.Scope{AccountID: 9, Revoked: true}))
	r := NewResolver(store, cache)

	_, err := r.Resolve(ctx, "stale")
	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.EqualValues(t, 0, store.finds.Load())

	cached, err := cache.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

// pausingStore reads the underlying store and then waits for release, so a
// revoke can land between the read and the resolver's cache write.
type pausingStore struct {
	*fakeStore
	entered chan struct{}
	release chan struct{}
}

func (s *pausingStore) Find(ctx context.Context, token string) (*model.Scope, error) {
	scope, err := s.fakeStore.Find(ctx, token)
	close(s.entered)
	<-s.release
	return scope, err
}

func TestResolver_RevokeDuringLookupDoesNotRecache(t *testing.T) {
	ctx := context.Background()
	store := &pausingStore{
		fakeStore: newFakeStore(),
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	cache := NewMemoryCache(10, time.Minute)
	r := NewResolver(store, cache)

	done := make(chan error, 1)
	go func() {
		_, err := r.Resolve(ctx, "good")
		done <- err
	}()

	<-store.entered
	require.NoError(t, r.Revoke(ctx, "good"))
	close(store.release)
	require.NoError(t, <-done, "the in-flight lookup read the store before the revoke")

	cached, err := cache.Get(ctx, "good")
	require.NoError(t, err)
	assert.Nil(t, cached, "a snapshot read before the revoke must not stay cached")

	_, err = NewResolver(store.fakeStore, cache).Resolve(ctx, "good")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestResolver_RevokeUnknownToken(t *testing.T) {
	r := NewResolver(newFakeStore(), NewMemoryCache(10, time.Minute))
	assert.ErrorIs(t, r.Revoke(context.Background(), "missing"), ErrTokenNotFound)
}

func TestResolver_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.findErr = errors.New("connection refused")
	r := NewResolver(store, NewMemoryCache(10, time.Minute))

	_, err := r.Resolve(context.Background(), "good")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenNotFound)
	assert.ErrorContains(t, err, "connection refused")
}

func TestResolver_StoreTimeout(t *testing.T) {
	store := newFakeStore()
	store.delay = time.Second
	r := NewResolver(store, nil, WithTimeout(10*time.Millisecond))

	_, err := r.Resolve(context.Background(), "good")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolver_ConcurrentMisses(t *testing.T) {
	store := newFakeStore()
	store.delay = 20 * time.Millisecond
	r := NewResolver(store, NewMemoryCache(10, time.Minute))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scope, err := r.Resolve(context.Background(), "good")
			assert.NoError(t, err)
			assert.EqualValues(t, 1, scope.AccountID)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 2, store.finds.Load(), "misses are not serialized")
}

func TestResolver_EmptyToken(t *testing.T) {
	_, err := NewResolver(newFakeStore(), nil).Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
		err    bool
	}{
		{"Bearer abc123", "abc123", false},
		{"bearer abc123", "abc123", false},
		{"Bearer   abc123  ", "abc123", false},
		{"", "", true},
		{"Bearer ", "", true},
		{"Basic dXNlcjpwYXNz", "", true},
		{"Bearer a b", "", true},
		{"abc123", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := ExtractBearer(tt.header)
			if tt.err {
				assert.ErrorIs(t, err, ErrMissingToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
