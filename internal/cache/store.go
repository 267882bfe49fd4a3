package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/nineaccord/salesboard/internal/config"
)

const (
	defaultCacheTTL   = time.Hour
	defaultSweepEvery = time.Minute
)

// Store is a byte oriented, versioned key/value backend. Callers embed the
// current Version in their keys; InvalidateAll bumps it so entries written
// under an older version are unreachable.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte) error
	Version(ctx context.Context) (int64, error)
	InvalidateAll(ctx context.Context) error
	Close() error
}

// NewStore builds the backend selected by CACHE_BACKEND.
func NewStore(cfg config.CacheConfig) (Store, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	switch cfg.Backend {
	case "", "memory":
		sweep := time.Duration(cfg.SweepSeconds) * time.Second
		if sweep <= 0 {
			sweep = defaultSweepEvery
		}
		return NewMemoryStore(ttl, sweep), nil
	case "redis":
		client, err := newRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, cfg.KeyPrefix, ttl), nil
	case "none", "off", "disabled":
		return NewNoopStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
