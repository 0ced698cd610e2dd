// Package rediscache implements the content-addressed result cache on Redis.
//
// Cache reads fail open: a Redis outage degrades the service to
// cache-miss behavior instead of failing submissions.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

// Cache stores serialized reports keyed by the submission's code hash.
type Cache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// New builds a Cache around an existing Redis client. The prefix namespaces
// all keys so several deployments can share one Redis instance.
func New(rdb *redis.Client, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = "review"
	}
	return &Cache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *Cache) resultKey(codeHash string) string {
	return fmt.Sprintf("%s:result:%s", c.prefix, codeHash)
}

func (c *Cache) counterKey(name string) string {
	return fmt.Sprintf("%s:stats:%s", c.prefix, name)
}

// Get looks up a cached report by code hash. Any Redis or decode error is
// logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, codeHash string) (*domain.Report, bool) {
	raw, err := c.rdb.Get(ctx, c.resultKey(codeHash)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache get failed; treating as miss",
				slog.String("code_hash", codeHash), slog.Any("error", err))
		}
		c.recordMiss(ctx)
		return nil, false
	}
	var rep domain.Report
	if err := json.Unmarshal(raw, &rep); err != nil {
		// A corrupt entry is unusable; drop it so the next writer replaces it.
		slog.Warn("cache entry corrupt; evicting",
			slog.String("code_hash", codeHash), slog.Any("error", err))
		c.rdb.Del(ctx, c.resultKey(codeHash))
		c.recordMiss(ctx)
		return nil, false
	}
	c.recordHit(ctx)
	return &rep, true
}

// Put stores a report under the code hash with the configured TTL.
// Failures are logged and swallowed; caching is best effort.
func (c *Cache) Put(ctx context.Context, codeHash string, rep *domain.Report) {
	raw, err := json.Marshal(rep)
	if err != nil {
		slog.Warn("cache put: marshal failed", slog.String("code_hash", codeHash), slog.Any("error", err))
		return
	}
	if err := c.rdb.Set(ctx, c.resultKey(codeHash), raw, c.ttl).Err(); err != nil {
		slog.Warn("cache put failed", slog.String("code_hash", codeHash), slog.Any("error", err))
	}
}

// HitRate returns the lifetime hit and miss counters plus the hit fraction.
// Errors leave everything at zero so the stats endpoint degrades instead of
// failing.
func (c *Cache) HitRate(ctx context.Context) (hits, misses int64, rate float64) {
	pipe := c.rdb.Pipeline()
	hitCmd := pipe.Get(ctx, c.counterKey("hits"))
	missCmd := pipe.Get(ctx, c.counterKey("misses"))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("cache hit rate lookup failed", slog.Any("error", err))
		return 0, 0, 0
	}
	hits, _ = hitCmd.Int64()
	misses, _ = missCmd.Int64()
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return hits, misses, rate
}

func (c *Cache) recordHit(ctx context.Context) {
	observability.CacheHitsTotal.Inc()
	if err := c.rdb.Incr(ctx, c.counterKey("hits")).Err(); err != nil {
		slog.Debug("cache hit counter update failed", slog.Any("error", err))
	}
}

func (c *Cache) recordMiss(ctx context.Context) {
	observability.CacheMissesTotal.Inc()
	if err := c.rdb.Incr(ctx, c.counterKey("misses")).Err(); err != nil {
		slog.Debug("cache miss counter update failed", slog.Any("error", err))
	}
}
