package cache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nineaccord/salesboard/internal/config"
)

const (
	scanBatchSize    = 100
	redisDialTimeout = 5 * time.Second
	redisOpTimeout   = 2 * time.Second
)

// newRedisClient connects to the configured server and fails fast when it
// does not answer a PING.
func newRedisClient(cfg config.CacheConfig) (*redis.Client, error) {
	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s failed: %w", opts.Addr, err)
	}
	return client, nil
}

// buildRedisOptions prefers REDIS_URL and falls back to host/port settings.
func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.RedisURL != "" {
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		host, port := cfg.RedisHost, cfg.RedisPort
		if host == "" {
			host = "127.0.0.1"
		}
		if port == "" {
			port = "6379"
		}
		opts = &redis.Options{
			Addr:     net.JoinHostPort(host, port),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
	}

	if opts.DialTimeout == 0 {
		opts.DialTimeout = redisDialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = redisOpTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = redisOpTimeout
	}
	return opts, nil
}

// unlinkPrefix removes every key starting with prefix. The scan completes
// before the first UNLINK.
func unlinkPrefix(ctx context.Context, client *redis.Client, prefix string) (int, error) {
	var keys []string
	iter := client.Scan(ctx, 0, prefix+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan failed: %w", err)
	}

	removed := 0
	for start := 0; start < len(keys); start += scanBatchSize {
		end := start + scanBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		n, err := client.Unlink(ctx, keys[start:end]...).Result()
		if err != nil {
			return removed, fmt.Errorf("redis unlink failed: %w", err)
		}
		removed += int(n)
	}
	return removed, nil
}
