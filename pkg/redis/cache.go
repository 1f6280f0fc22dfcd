package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON-encoded provider responses under "<prefix>:cache:<key>"
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value. A miss is (false, nil).
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// TTLDaily is the TTL of past-date tables and series, which never change
const TTLDaily = 24 * time.Hour

// MarketCapKey is the key of one KRX daily market-cap table
func MarketCapKey(market, date string) string {
	return fmt.Sprintf("krx:marcap:%s:%s", market, date)
}

// FundamentalKey is the key of one KRX daily PER/PBR/DIV table
func FundamentalKey(market, date string) string {
	return fmt.Sprintf("krx:fundamental:%s:%s", market, date)
}

// PriceChangeKey is the key of one KRX period price-change table
func PriceChangeKey(market, from, to string) string {
	return fmt.Sprintf("krx:change:%s:%s:%s", market, from, to)
}

// PriceSeriesKey is the key of one daily close series
func PriceSeriesKey(code, from, to string) string {
	return fmt.Sprintf("naver:prices:%s:%s:%s", code, from, to)
}
