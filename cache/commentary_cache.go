package cache

import (
	"context"
	"crypto/md5"
	"fmt"
	"time"
)

// CommentaryCache provides caching for generated LLM portfolio commentary.
// Reports are keyed by a hash of their inputs so an unchanged portfolio does
// not burn tokens twice, plus a cooldown to throttle regeneration.
type CommentaryCache struct {
	redis *RedisClient
}

// NewCommentaryCache creates a new commentary cache instance
func NewCommentaryCache(redis *RedisClient) *CommentaryCache {
	return &CommentaryCache{redis: redis}
}

// InputHash derives a stable cache key component from the report inputs
func InputHash(payload string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(payload)))
}

// Get retrieves cached commentary for an input hash.
// Returns the cached text and true if found, empty and false otherwise.
func (c *CommentaryCache) Get(ctx context.Context, hash string) (string, bool) {
	if c == nil || c.redis == nil {
		return "", false
	}

	var text string
	if err := c.redis.Get(ctx, fmt.Sprintf("llm:report:%s", hash), &text); err != nil {
		return "", false
	}
	return text, true
}

// Set caches generated commentary for an input hash
func (c *CommentaryCache) Set(ctx context.Context, hash, text string, ttl time.Duration) error {
	if c == nil || c.redis == nil {
		return fmt.Errorf("redis client not available")
	}
	return c.redis.Set(ctx, fmt.Sprintf("llm:report:%s", hash), text, ttl)
}

// SetCooldown throttles regeneration for the whole report surface
func (c *CommentaryCache) SetCooldown(ctx context.Context, ttl time.Duration) error {
	if c == nil || c.redis == nil {
		return fmt.Errorf("redis client not available")
	}
	return c.redis.Set(ctx, "llm:report:cooldown", time.Now().Unix(), ttl)
}

// InCooldown reports whether report generation is currently throttled
func (c *CommentaryCache) InCooldown(ctx context.Context) bool {
	if c == nil || c.redis == nil {
		return false
	}
	return c.redis.Exists(ctx, "llm:report:cooldown")
}
