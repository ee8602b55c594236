package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniCache(t *testing.T, ttl time.Duration) (*RedisSessionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := NewRedisSessionCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ttl)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSessionKey(t *testing.T) {
	a := SessionKey("cookie", []string{"user"})
	assert.Len(t, a, 64)
	assert.Equal(t, a, SessionKey("cookie", []string{"user"}))
	assert.NotEqual(t, a, SessionKey("cookie", []string{"admin"}))
	assert.NotEqual(t, a, SessionKey("other", []string{"user"}))
}

func TestRedisSessionCache(t *testing.T) {
	cache, mr := newMiniCache(t, time.Minute)
	ctx := context.Background()

	user, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, user)

	want := &SessionUser{ID: "user-1", Email: "ada@example.com", Name: "Ada", Roles: []string{"user"}}
	require.NoError(t, cache.Set(ctx, "k1", want))
	assert.True(t, mr.Exists("session:k1"))

	got, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	mr.FastForward(2 * time.Minute)
	got, err = cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisSessionCacheDefaultTTL(t *testing.T) {
	cache, mr := newMiniCache(t, 0)

	require.NoError(t, cache.Set(context.Background(), "k1", &SessionUser{ID: "user-1"}))
	assert.Equal(t, 30*time.Second, mr.TTL("session:k1"))
}

func TestRedisSessionCachePing(t *testing.T) {
	cache, mr := newMiniCache(t, time.Minute)

	assert.NoError(t, cache.Ping(context.Background()))
	mr.Close()
	assert.Error(t, cache.Ping(context.Background()))
}

func TestNewRedisSessionCache(t *testing.T) {
	mr := miniredis.RunT(t)

	cache, err := NewRedisSessionCache("redis://"+mr.Addr(), time.Minute)
	require.NoError(t, err)
	defer cache.Close()
	assert.NoError(t, cache.Ping(context.Background()))

	_, err = NewRedisSessionCache("not-a-url", time.Minute)
	assert.Error(t, err)
}
