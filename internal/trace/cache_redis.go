package trace

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	platformredis "agritrust/internal/platform/redis"
)

// RedisCache keeps serialized traceability projections in Redis with a short
// TTL. Cache misses and marshal failures fall through to a fresh aggregation;
// the cache is never load-bearing.
type RedisCache struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func key(lotID string) string {
	return "trace:" + lotID
}

func (c *RedisCache) Get(ctx context.Context, lotID string) (*Traceability, bool) {
	raw, err := c.client.Get(ctx, key(lotID)).Bytes()
	if err != nil {
		return nil, false
	}
	var t Traceability
	if err := json.Unmarshal(raw, &t); err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "dropping undecodable trace cache entry", "lot_id", lotID, "error", err)
		}
		_ = c.client.Del(ctx, key(lotID)).Err()
		return nil, false
	}
	return &t, true
}

func (c *RedisCache) Put(ctx context.Context, lotID string, t *Traceability) {
	raw, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(lotID), raw, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "failed to cache traceability", "lot_id", lotID, "error", err)
	}
}

// Invalidate drops the cached projection. Wired as the Event Ledger's
// post-append hook so reads never serve a stale timeline past the TTL.
func (c *RedisCache) Invalidate(ctx context.Context, lotID string) {
	if err := c.client.Del(ctx, key(lotID)).Err(); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "failed to invalidate trace cache", "lot_id", lotID, "error", err)
	}
}
