package screener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "screener:list:"

// cachedPage is the serialized form of one screener result page.
type cachedPage struct {
	Data  []EmitterSummary `json:"data"`
	Total int64            `json:"total"`
}

// Cache is a read-through Redis cache for screener pages. A nil client
// disables caching entirely, so the screener still works without Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached page for the filter, or ok=false on a miss.
func (c *Cache) Get(ctx context.Context, f Filter) (cachedPage, bool) {
	if c == nil || c.client == nil {
		return cachedPage{}, false
	}

	raw, err := c.client.Get(ctx, cacheKeyPrefix+f.CacheKey()).Bytes()
	if err != nil {
		if err != redis.Nil {
			zap.L().Warn("screener cache read failed", zap.Error(err))
		}
		return cachedPage{}, false
	}

	var page cachedPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return cachedPage{}, false
	}
	return page, true
}

// Set stores a result page. Failures are logged and swallowed; the
// response was already computed from the database.
func (c *Cache) Set(ctx context.Context, f Filter, data []EmitterSummary, total int64) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(cachedPage{Data: data, Total: total})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+f.CacheKey(), raw, c.ttl).Err(); err != nil {
		zap.L().Warn("screener cache write failed", zap.Error(err))
	}
}
