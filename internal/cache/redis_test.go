package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nineaccord/salesboard/internal/config"
)

func testCacheConfig(backend string) config.CacheConfig {
	return config.CacheConfig{Backend: backend, TTLSeconds: 60, SweepSeconds: 60, KeyPrefix: "test"}
}

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, "test", time.Minute)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	_, ok, err := s.Get(ctx, "report:x")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "report:x", []byte(`{"a":1}`)))
	payload, ok, err := s.Get(ctx, "report:x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(payload))

	mr.FastForward(2 * time.Minute)
	_, ok, err = s.Get(ctx, "report:x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreVersionAndInvalidate(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	ver, err := s.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver)

	require.NoError(t, s.Set(ctx, "report:a", []byte("1")))
	require.NoError(t, s.Set(ctx, "report:b", []byte("2")))
	require.NoError(t, mr.Set("test:other", "keep"))

	require.NoError(t, s.InvalidateAll(ctx))

	ver, err = s.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ver)
	assert.False(t, mr.Exists("test:report:a"))
	assert.False(t, mr.Exists("test:report:b"))
	assert.True(t, mr.Exists("test:other"))
}

func TestNewStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testCacheConfig("redis")
	cfg.RedisURL = "redis://" + mr.Addr()

	s, err := NewStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	_ = s.Close()
}

func TestBuildRedisOptionsDefaults(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "::bad"})
	assert.Error(t, err)
}

func TestUnlinkPrefixSpansBatches(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	for i := 0; i < scanBatchSize*2+5; i++ {
		require.NoError(t, mr.Set(fmt.Sprintf("p:report:%d", i), "x"))
	}
	require.NoError(t, mr.Set("p:version", "3"))

	removed, err := unlinkPrefix(ctx, client, "p:report:")
	require.NoError(t, err)
	assert.Equal(t, scanBatchSize*2+5, removed)
	assert.Equal(t, []string{"p:version"}, mr.Keys())
}
