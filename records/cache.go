package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/consorcio/emissions/database"
)

// SummaryCache caches the aggregates read by the dashboard.
//
// A reader takes the Generation before loading from the database and passes
// it to Set; Set drops the value if an Invalidate ran in between, so an
// aggregate computed before an insert is never cached after it.
type SummaryCache interface {
	// Get decodes the cached value into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Generation returns a token that changes on every Invalidate.
	Generation(ctx context.Context) (int64, error)
	// Set stores value unless the cache was invalidated after generation was read.
	Set(ctx context.Context, key string, value any, generation int64) error
	// Invalidate drops every cached aggregate.
	Invalidate(ctx context.Context) error
}

// JSONStore is the key-value store behind RedisSummaryCache.
// *database.RedisClient satisfies it.
type JSONStore interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSONIfVersion(ctx context.Context, key string, value any, expiration time.Duration, versionKey string, version int64) (bool, error)
	GetInt(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, keys ...string) error
}

// RedisSummaryCache keeps aggregates in Redis as JSON, guarded by a
// generation counter.
type RedisSummaryCache struct {
	store JSONStore
	ttl   time.Duration
}

// NewRedisSummaryCache creates a cache. A non-positive ttl uses the default.
func NewRedisSummaryCache(store JSONStore, ttl time.Duration) *RedisSummaryCache {
	if ttl <= 0 {
		ttl = database.RedisTTLs.Summary
	}
	return &RedisSummaryCache{store: store, ttl: ttl}
}

// Get reads a cached aggregate.
func (c *RedisSummaryCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	err := c.store.GetJSON(ctx, key, dest)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, database.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Generation reads the invalidation counter.
func (c *RedisSummaryCache) Generation(ctx context.Context) (int64, error) {
	return c.store.GetInt(ctx, database.RedisKeys.SummaryGeneration)
}

// Set stores an aggregate computed under generation. A value from an older
// generation is silently dropped.
func (c *RedisSummaryCache) Set(ctx context.Context, key string, value any, generation int64) error {
	_, err := c.store.SetJSONIfVersion(ctx, key, value, c.ttl, database.RedisKeys.SummaryGeneration, generation)
	return err
}

// Invalidate bumps the generation, then deletes every aggregate key. The
// bump comes first so that readers still loading cannot write back.
func (c *RedisSummaryCache) Invalidate(ctx context.Context) error {
	if _, err := c.store.Incr(ctx, database.RedisKeys.SummaryGeneration); err != nil {
		return errors.Join(fmt.Errorf("bump summary generation: %w", err), c.store.Delete(ctx, database.SummaryKeys()...))
	}
	return c.store.Delete(ctx, database.SummaryKeys()...)
}

// NopCache never holds anything. It is used when Redis is not configured.
type NopCache struct{}

// Get always misses.
func (NopCache) Get(context.Context, string, any) (bool, error) { return false, nil }

// Generation is always zero.
func (NopCache) Generation(context.Context) (int64, error) { return 0, nil }

// Set does nothing.
func (NopCache) Set(context.Context, string, any, int64) error { return nil }

// Invalidate does nothing.
func (NopCache) Invalidate(context.Context) error { return nil }
