// Package rediscache implements the projection cache on Redis. Entries
// are JSON-encoded snapshots keyed per entity; every write carries a TTL
// so stale projections age out even if invalidation is missed.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/airnode/airtrack-backend/internal/core/ports"
	"github.com/airnode/airtrack-backend/internal/infrastructure/metrics"
)

// Cache is a Redis-backed ports.ProjectionCache.
type Cache struct {
	client       *redis.Client
	writeTimeout time.Duration
}

var _ ports.ProjectionCache = (*Cache)(nil)

// New creates a projection cache on the given Redis client. writeTimeout
// bounds each Redis round trip independently of the caller's context.
func New(client *redis.Client, writeTimeout time.Duration) *Cache {
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Second
	}
	return &Cache{client: client, writeTimeout: writeTimeout}
}

// Get loads the entry at key into dest. A miss is reported with
// found=false and a nil error; a corrupt entry is dropped and treated
// as a miss.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		metrics.CacheErrors.WithLabelValues("get").Inc()
		return false, fmt.Errorf("cache get %q: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		_ = c.client.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

// Upsert stores value at key with the given TTL, replacing any
// previous entry.
func (c *Cache) Upsert(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %q: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		metrics.CacheErrors.WithLabelValues("upsert").Inc()
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

// Invalidate removes the given keys. Missing keys are not an error.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		metrics.CacheErrors.WithLabelValues("invalidate").Inc()
		return fmt.Errorf("cache del: %w", err)
	}
	return nil
}

// FlightStatusKey is the cache key for a flight's status projection.
func FlightStatusKey(id uuid.UUID) string {
	return "flight:" + id.String() + ":status"
}

// FlightSearchKey is the cache key for a flight-number lookup.
func FlightSearchKey(flightNo string) string {
	return "flightNo:" + flightNo
}

// BaggageKey is the cache key for a baggage projection.
func BaggageKey(tagID string) string {
	return "baggage:" + tagID
}
