// Package pricecache caches wholesale fixed-price lookups in Redis so the
// pipeline does not hammer the pricing API for every search.
package pricecache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// DefaultTTL bounds staleness of cached fixed prices.
const DefaultTTL = 15 * time.Minute

// FixedPrice is a wholesale price tier for a seller×SKU pair.
type FixedPrice struct {
	MinQuantity *int     `json:"minQuantity"`
	Value       *float64 `json:"value"`
}

// Cache stores fixed prices keyed by seller and SKU.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache creates a Redis-backed price cache.
func NewCache() *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr: getenv("REDIS_ADDR", "redis:6379"),
	})
	return &Cache{rdb: rdb, ttl: DefaultTTL}
}

// NewCacheWithClient wires an existing Redis client, mainly for tests.
func NewCacheWithClient(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

func key(sellerID, skuID string) string {
	return fmt.Sprintf("fixedprice:%s:%s", sellerID, skuID)
}

// Get returns the cached fixed price for a seller×SKU pair. The second return
// reports a cache hit; a miss is not an error.
func (c *Cache) Get(ctx context.Context, sellerID, skuID string) (FixedPrice, bool, error) {
	val, err := c.rdb.Get(ctx, key(sellerID, skuID)).Result()
	if err == redis.Nil {
		return FixedPrice{}, false, nil
	}
	if err != nil {
		return FixedPrice{}, false, err
	}

	var fp FixedPrice
	if err := json.Unmarshal([]byte(val), &fp); err != nil {
		return FixedPrice{}, false, err
	}
	return fp, true, nil
}

// Set stores a fixed price for a seller×SKU pair.
func (c *Cache) Set(ctx context.Context, sellerID, skuID string, fp FixedPrice) error {
	data, err := json.Marshal(fp)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key(sellerID, skuID), data, c.ttl).Err()
}

// Invalidate drops a cached fixed price.
func (c *Cache) Invalidate(ctx context.Context, sellerID, skuID string) error {
	return c.rdb.Del(ctx, key(sellerID, skuID)).Err()
}
