package token

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akave-ai/logwatch/internal/model"
)

// stubRedis answers the commands RedisCache issues from an in-memory map.
// Any other command panics through the nil embedded client.
type stubRedis struct {
	redis.UniversalClient

	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
	err    error
	closed bool
}

func newStubRedis() *stubRedis {
	return &stubRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *stubRedis) Get(_ context.Context, key string) *redis.StringCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return redis.NewStringResult("", s.err)
	}
	v, ok := s.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *stubRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return redis.NewStatusResult("", s.err)
	}
	switch v := value.(type) {
	case []byte:
		s.values[key] = string(v)
	case string:
		s.values[key] = v
	default:
		return redis.NewStatusResult("", errors.New("unexpected value type"))
	}
	s.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (s *stubRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return redis.NewIntResult(0, s.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := s.values[k]; ok {
			delete(s.values, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (s *stubRedis) Close() error {
	s.closed = true
	return nil
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()

	t.Run("MissThenRoundTrip", func(t *testing.T) {
		stub := newStubRedis()
		c := NewRedisCacheWithClient(stub, "", 30*time.Second)

		got, err := c.Get(ctx, "tok")
		require.NoError(t, err)
		assert.Nil(t, got)

		require.NoError(t, c.Set(ctx, "tok", model.Scope{AccountID: 5, EnvironmentID: 6}))
		got, err = c.Get(ctx, "tok")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, model.Scope{AccountID: 5, EnvironmentID: 6}, *got)
	})

	t.Run("KeyIsPrefixedHash", func(t *testing.T) {
		stub := newStubRedis()
		c := NewRedisCacheWithClient(stub, "", 30*time.Second)
		require.NoError(t, c.Set(ctx, "secret-token", model.Scope{AccountID: 1}))

		require.Len(t, stub.values, 1)
		for key := range stub.values {
			assert.True(t, strings.HasPrefix(key, DefaultRedisPrefix))
			assert.NotContains(t, key, "secret-token")
			assert.Equal(t, DefaultRedisPrefix+cacheKey("secret-token"), key)
			assert.Equal(t, 30*time.Second, stub.ttls[key])
		}
	})

	t.Run("CustomPrefixAndDefaultTTL", func(t *testing.T) {
		stub := newStubRedis()
		c := NewRedisCacheWithClient(stub, "tenant-a:", 0)
		require.NoError(t, c.Set(ctx, "tok", model.Scope{AccountID: 1}))

		key := "tenant-a:" + cacheKey("tok")
		assert.Contains(t, stub.values, key)
		assert.Equal(t, DefaultCacheTTL, stub.ttls[key])
	})

	t.Run("Delete", func(t *testing.T) {
		stub := newStubRedis()
		c := NewRedisCacheWithClient(stub, "", time.Minute)
		require.NoError(t, c.Set(ctx, "tok", model.Scope{AccountID: 1}))
		require.NoError(t, c.Delete(ctx, "tok"))
		require.NoError(t, c.Delete(ctx, "tok"))

		got, err := c.Get(ctx, "tok")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Errors", func(t *testing.T) {
		stub := newStubRedis()
		stub.err = errors.New("connection reset")
		c := NewRedisCacheWithClient(stub, "", time.Minute)

		_, err := c.Get(ctx, "tok")
		assert.ErrorContains(t, err, "connection reset")
		assert.ErrorContains(t, c.Set(ctx, "tok", model.Scope{}), "connection reset")
		assert.ErrorContains(t, c.Delete(ctx, "tok"), "connection reset")
	})

	t.Run("CorruptSnapshot", func(t *testing.T) {
		stub := newStubRedis()
		stub.values[DefaultRedisPrefix+cacheKey("tok")] = "not json"
		c := NewRedisCacheWithClient(stub, "", time.Minute)

		_, err := c.Get(ctx, "tok")
		assert.ErrorContains(t, err, "failed to parse token snapshot")
	})

	t.Run("Close", func(t *testing.T) {
		stub := newStubRedis()
		c := NewRedisCacheWithClient(stub, "", time.Minute)
		require.NoError(t, c.Close())
		assert.True(t, stub.closed)
	})
}
