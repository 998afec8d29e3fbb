package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/Kariqs/eden-store-api/utils"
	"github.com/go-redis/redis/v8"
)

const (
	DefaultTTL    = 10 * time.Minute
	DefaultPrefix = "eden:catalog:"

	categoriesKey = "categories"
	featuredKey   = "featured"
)

// CatalogCache keeps the category list and featured products in Redis. Reads
// go through the cache and fall back to the loader on a miss or on any Redis
// failure, so an unavailable Redis only costs latency.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger utils.Logger

	hits   int64
	misses int64
}

type Option func(*CatalogCache)

func WithTTL(ttl time.Duration) Option {
	return func(c *CatalogCache) {
		c.ttl = ttl
	}
}

func WithPrefix(prefix string) Option {
	return func(c *CatalogCache) {
		c.prefix = prefix
	}
}

func WithLogger(logger utils.Logger) Option {
	return func(c *CatalogCache) {
		c.logger = logger
	}
}

// NewCatalogCache wraps client. A nil client disables caching and every read
// goes straight to the loader.
func NewCatalogCache(client *redis.Client, opts ...Option) *CatalogCache {
	c := &CatalogCache{
		client: client,
		ttl:    DefaultTTL,
		prefix: DefaultPrefix,
		logger: utils.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CatalogCache) Categories(ctx context.Context, load func(context.Context) ([]string, error)) ([]string, error) {
	return readThrough(ctx, c, categoriesKey, load)
}

func (c *CatalogCache) Featured(ctx context.Context, load func(context.Context) ([]models.Product, error)) ([]models.Product, error) {
	return readThrough(ctx, c, featuredKey, load)
}

// Invalidate drops every cached catalog entry.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, c.key(categoriesKey), c.key(featuredKey)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	return nil
}

// Stats returns cache performance statistics for monitoring.
func (c *CatalogCache) Stats() map[string]interface{} {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	total := hits + misses

	stats := map[string]interface{}{
		"hits":          hits,
		"misses":        misses,
		"total_lookups": total,
	}
	if total > 0 {
		stats["hit_rate"] = float64(hits) / float64(total)
	}
	return stats
}

// Ping reports whether Redis is reachable. A disabled cache is always healthy.
func (c *CatalogCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *CatalogCache) key(name string) string {
	return c.prefix + name
}

func readThrough[T any](ctx context.Context, c *CatalogCache, name string, load func(context.Context) (T, error)) (T, error) {
	if c.client == nil {
		return load(ctx)
	}
	key := c.key(name)

	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var cached T
		if uerr := json.Unmarshal([]byte(val), &cached); uerr == nil {
			atomic.AddInt64(&c.hits, 1)
			return cached, nil
		}
		c.logger.Warn("Corrupt catalog cache entry", map[string]interface{}{"key": key})
	case err != redis.Nil:
		c.logger.Warn("Catalog cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	atomic.AddInt64(&c.misses, 1)

	fresh, err := load(ctx)
	if err != nil {
		return fresh, err
	}

	data, err := json.Marshal(fresh)
	if err != nil {
		c.logger.Warn("Catalog cache encode failed", map[string]interface{}{"key": key, "error": err.Error()})
		return fresh, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Catalog cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return fresh, nil
}
