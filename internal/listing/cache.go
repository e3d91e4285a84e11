package listing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps listing snapshots in Redis so hot listings skip the database.
// Only resolver inputs are cached; the display price itself is recomputed on
// every read so time-based drops take effect without invalidation.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a snapshot cache. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func snapshotKey(id string) string {
	return "listing:snap:" + id
}

// GetSnapshot reports whether a cached snapshot existed and decodes it into
// dst when it did.
func (c *Cache) GetSnapshot(ctx context.Context, id string, dst any) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	data, err := c.client.Get(ctx, snapshotKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetSnapshot stores a snapshot with the configured TTL.
func (c *Cache) SetSnapshot(ctx context.Context, id string, v any) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey(id), data, c.ttl).Err()
}

// Invalidate drops the cached snapshot, for callers that mutate listings.
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, snapshotKey(id)).Err()
}
