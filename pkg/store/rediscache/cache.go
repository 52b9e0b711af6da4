// Package rediscache wraps a store.CheckpointStore with a best-effort
// read-through Redis cache for the hottest pause/resume path: looking up a
// paused run's checkpoint by run id. Redis is never the system of record —
// every write still goes to the underlying store first, and any Redis
// failure is logged and swallowed rather than surfaced to the caller.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aionixone/openact/pkg/logger"
	"github.com/aionixone/openact/pkg/store"
)

const keyPrefix = "openact:checkpoint:"

// Cache decorates a store.CheckpointStore with a Redis read-through layer.
type Cache struct {
	next   store.CheckpointStore
	client *redis.Client
	ttl    time.Duration
}

// New builds a Cache in front of next using a client built from redisURL
// (a redis:// or rediss:// connection string). ttl bounds how long a
// cached checkpoint survives before falling back to next; 0 disables
// expiry.
func New(next store.CheckpointStore, redisURL string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &Cache{next: next, client: redis.NewClient(opts), ttl: ttl}, nil
}

// NewWithClient builds a Cache around an already-constructed client, used
// by tests wiring a miniredis instance.
func NewWithClient(next store.CheckpointStore, client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{next: next, client: client, ttl: ttl}
}

// Close releases the Redis client. It does not close next.
func (c *Cache) Close() error {
	return c.client.Close()
}

func cacheKey(runID string) string {
	return keyPrefix + runID
}

// UpsertCheckpoint writes through to next, then refreshes the cache entry.
// A cache-write failure is logged, not returned — the checkpoint is
// already durable in next.
func (c *Cache) UpsertCheckpoint(ctx context.Context, cp *store.Checkpoint) (*store.Checkpoint, error) {
	saved, err := c.next.UpsertCheckpoint(ctx, cp)
	if err != nil {
		return nil, err
	}
	c.set(ctx, saved)
	return saved, nil
}

// GetCheckpoint serves from Redis on a hit; on a miss (or any Redis error)
// it falls through to next and repopulates the cache.
func (c *Cache) GetCheckpoint(ctx context.Context, runID string) (*store.Checkpoint, error) {
	raw, err := c.client.Get(ctx, cacheKey(runID)).Bytes()
	if err == nil {
		var cp store.Checkpoint
		if jsonErr := json.Unmarshal(raw, &cp); jsonErr == nil {
			return &cp, nil
		}
	} else if err != redis.Nil {
		logger.Debugf("rediscache: get %s failed, falling back to store: %v", runID, err)
	}

	cp, err := c.next.GetCheckpoint(ctx, runID)
	if err != nil {
		return nil, err
	}
	if cp != nil {
		c.set(ctx, cp)
	}
	return cp, nil
}

// DeleteCheckpoint deletes from next and evicts the cache entry.
func (c *Cache) DeleteCheckpoint(ctx context.Context, runID string) (bool, error) {
	deleted, err := c.next.DeleteCheckpoint(ctx, runID)
	if err != nil {
		return false, err
	}
	if err := c.client.Del(ctx, cacheKey(runID)).Err(); err != nil {
		logger.Debugf("rediscache: evict %s failed: %v", runID, err)
	}
	return deleted, nil
}

func (c *Cache) set(ctx context.Context, cp *store.Checkpoint) {
	data, err := json.Marshal(cp)
	if err != nil {
		logger.Debugf("rediscache: marshal checkpoint %s failed: %v", cp.RunID, err)
		return
	}
	if err := c.client.Set(ctx, cacheKey(cp.RunID), data, c.ttl).Err(); err != nil {
		logger.Debugf("rediscache: set %s failed: %v", cp.RunID, err)
	}
}
