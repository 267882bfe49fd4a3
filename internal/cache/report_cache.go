package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/nineaccord/salesboard/internal/domain"
)

const (
	reportKeyPrefix    = "report:"
	defaultLoadTimeout = 2 * time.Minute
)

// Loader computes the value to cache on a miss.
type Loader func(ctx context.Context) (interface{}, error)

// ReportCache memoizes report results as JSON on top of a Store. Backend
// failures are logged and degrade to calling the loader.
type ReportCache struct {
	store       Store
	group       singleflight.Group
	loadTimeout time.Duration
}

func NewReportCache(store Store) *ReportCache {
	if store == nil {
		store = NewNoopStore()
	}
	return &ReportCache{store: store, loadTimeout: defaultLoadTimeout}
}

// Fetch decodes the cached value for key into dest, running loader on a miss.
// Concurrent misses on the same key share a single load.
func (c *ReportCache) Fetch(ctx context.Context, key string, dest interface{}, loader Loader) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}

	ver, err := c.store.Version(ctx)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache version lookup failed, bypassing cache")
		raw, err := load(ctx, loader)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}
	versioned := fmt.Sprintf("%s:v%d", key, ver)

	payload, ok, err := c.store.Get(ctx, versioned)
	if err != nil {
		log.Warn().Err(err).Str("key", versioned).Msg("cache get failed")
	}
	if ok {
		if err := json.Unmarshal(payload, dest); err == nil {
			log.Debug().Str("key", versioned).Msg("cache hit")
			return nil
		}
		log.Warn().Str("key", versioned).Msg("discarding undecodable cache entry")
	}

	// The shared load outlives any single caller; each caller stops waiting
	// when its own context ends.
	ch := c.group.DoChan(versioned, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		raw, err := load(loadCtx, loader)
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(loadCtx, versioned, raw); err != nil {
			log.Warn().Err(err).Str("key", versioned).Msg("cache set failed")
		}
		return raw, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.([]byte), dest)
	}
}

// InvalidateAll makes every entry unreachable.
func (c *ReportCache) InvalidateAll(ctx context.Context) error {
	if err := c.store.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	log.Info().Msg("report cache invalidated")
	return nil
}

func (c *ReportCache) Close() error {
	return c.store.Close()
}

func load(ctx context.Context, loader Loader) ([]byte, error) {
	value, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode cache value: %w", err)
	}
	return raw, nil
}

// ReportKey identifies one report function applied to a brand and filter.
// Equivalent filters produce the same key.
func ReportKey(function string, brand domain.Brand, filter domain.FilterSpec) string {
	sum := sha1.Sum([]byte(filter.CacheKey()))
	return fmt.Sprintf("%s%s:%s:%s", reportKeyPrefix, function, brand, hex.EncodeToString(sum[:]))
}

// OptionsKey identifies the filter option list of a brand.
func OptionsKey(brand domain.Brand) string {
	return reportKeyPrefix + "options:" + brand.String()
}
