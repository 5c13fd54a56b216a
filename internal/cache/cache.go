// Package cache provides an optional Redis-backed response cache for C12
// so a repeated query under the same intent and state skips the LLM round
// trip (spec.md §6 cache config), grounded on
// intelligencedev-manifold's internal/skills RedisSkillsCache (same
// get/set-with-TTL shape, minus the multi-tenant key namespacing this
// module has no use for).
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cerebrumlux/cognition/internal/config"
)

// ResponseCache caches composed chat replies keyed by a hash of the
// query text and a caller-supplied label. A nil *ResponseCache (Addr empty) is
// a valid no-op cache so callers never special-case "caching disabled".
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// New constructs a ResponseCache. When cfg.Addr is empty the cache is
// disabled: every method becomes a safe no-op.
func New(cfg config.CacheConfig, log zerolog.Logger) *ResponseCache {
	if cfg.Addr == "" {
		return nil
	}
	ttl := time.Duration(cfg.TTLSec) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ResponseCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr}),
		ttl:    ttl,
		log:    log,
	}
}

// Key derives a cache key from the query text and a label string. The
// orchestrator passes the current intent and state names as the label, so
// the key does not depend on which capsules ground the reply.
func Key(queryText, label string) string {
	sum := sha256.Sum256([]byte(queryText + "\x00" + label))
	return "cerebrumlux:response:" + hex.EncodeToString(sum[:])
}

// Get returns the cached reply text, if present.
func (c *ResponseCache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug().Err(err).Str("key", key).Msg("response_cache_get_error")
		}
		return "", false
	}
	return val, true
}

// Set stores a reply text under key with the configured TTL.
func (c *ResponseCache) Set(ctx context.Context, key, text string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key, text, c.ttl).Err(); err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("response_cache_set_error")
	}
}

// Close releases the underlying Redis client, if any.
func (c *ResponseCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
