package database

import (
	"context"
	"fmt"
	"time"
)

// RedisKeys defines the keys used by the emissions service.
var RedisKeys = struct {
	// Cached aggregates, invalidated on every new record
	SummaryCO2 string
	SummaryKM  string
	Vehicles   string
	Fuels      string
	// Bumped on every invalidation; a summary computed under an older
	// generation is not written back
	SummaryGeneration string

	// Held while an export runs
	ExportLock string
}{
	SummaryCO2: "emissions:summary:co2",
	SummaryKM:  "emissions:summary:km",
	Vehicles:   "emissions:summary:vehicles",
	Fuels:      "emissions:summary:fuels",

	SummaryGeneration: "emissions:summary:generation",

	ExportLock: "emissions:lock:export",
}

// SummaryKeys returns every cached aggregate key.
func SummaryKeys() []string {
	return []string{RedisKeys.SummaryCO2, RedisKeys.SummaryKM, RedisKeys.Vehicles, RedisKeys.Fuels}
}

// RedisTTLs defines the TTL values for the keys above.
var RedisTTLs = struct {
	Summary    time.Duration
	ExportLock time.Duration
}{
	Summary:    5 * time.Minute,
	ExportLock: 10 * time.Minute,
}

// RedisInitializer prepares Redis at startup.
type RedisInitializer struct {
	client *RedisClient
}

// NewRedisInitializer creates a new Redis initializer.
func NewRedisInitializer(client *RedisClient) *RedisInitializer {
	return &RedisInitializer{client: client}
}

// Initialize verifies the connection and drops cached aggregates, which may
// predate a migration or a manual change to the records table.
func (ri *RedisInitializer) Initialize(ctx context.Context) error {
	if err := ri.client.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if err := ri.client.Delete(ctx, SummaryKeys()...); err != nil {
		return fmt.Errorf("failed to clear cached summaries: %w", err)
	}

	return nil
}
