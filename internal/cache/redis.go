package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisStore shares cached reports between processes, so an ingestion run
// from the CLI invalidates what the server serves.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "salesboard"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) versionKey() string {
	return s.prefix + ":version"
}

func (s *RedisStore) entryKey(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := s.client.Get(ctx, s.entryKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}
	return payload, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, payload []byte) error {
	if err := s.client.Set(ctx, s.entryKey(key), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Version returns the current cache version, initialising it when missing.
func (s *RedisStore) Version(ctx context.Context) (int64, error) {
	ver, err := s.client.Get(ctx, s.versionKey()).Int64()
	if err == redis.Nil {
		// SETNX so that two processes starting together agree on the value.
		if err := s.client.SetNX(ctx, s.versionKey(), 1, 0).Err(); err != nil {
			return 0, fmt.Errorf("redis init version failed: %w", err)
		}
		return s.client.Get(ctx, s.versionKey()).Int64()
	}
	if err != nil {
		return 0, fmt.Errorf("redis get version failed: %w", err)
	}
	return ver, nil
}

// InvalidateAll bumps the version first, then drops stored reports.
func (s *RedisStore) InvalidateAll(ctx context.Context) error {
	ver, err := s.client.Incr(ctx, s.versionKey()).Result()
	if err != nil {
		return fmt.Errorf("redis bump version failed: %w", err)
	}
	removed, err := unlinkPrefix(ctx, s.client, s.entryKey(reportKeyPrefix))
	if err != nil {
		return err
	}
	log.Debug().Int64("version", ver).Int("removed", removed).Msg("redis report entries dropped")
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
