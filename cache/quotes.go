package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// quoteTTL bounds how stale a cached price may get before callers fall back
// to the brokerage snapshot API.
const quoteTTL = 5 * time.Minute

// Quote is the latest known trade price for a symbol
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// QuoteCache keeps the latest market-stream price per symbol in Redis
type QuoteCache struct {
	redis *RedisClient
}

// NewQuoteCache creates a new quote cache instance
func NewQuoteCache(redis *RedisClient) *QuoteCache {
	return &QuoteCache{redis: redis}
}

func quoteKey(symbol string) string {
	return fmt.Sprintf("quote:%s", strings.ToUpper(symbol))
}

// Put stores the latest quote for a symbol
func (c *QuoteCache) Put(ctx context.Context, q Quote) error {
	if c == nil || c.redis == nil {
		return nil // caching disabled, not an error
	}
	return c.redis.Set(ctx, quoteKey(q.Symbol), q, quoteTTL)
}

// Latest returns the cached quote and true if a fresh one exists
func (c *QuoteCache) Latest(ctx context.Context, symbol string) (Quote, bool) {
	if c == nil || c.redis == nil {
		return Quote{}, false
	}

	var q Quote
	if err := c.redis.Get(ctx, quoteKey(symbol), &q); err != nil {
		return Quote{}, false
	}
	return q, true
}
