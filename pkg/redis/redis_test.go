package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/propick/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(context.Background(), &config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")

	allowed, remaining, err := limiter.Allow(context.Background(), KRXRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, KRXRateLimit.Limit, remaining)

	assert.NoError(t, limiter.Wait(context.Background(), NaverRateLimit))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")

	var result string
	found, err := cache.Get(context.Background(), "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Set(context.Background(), "key", "v", TTLDaily))
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "krx:marcap:STK:20240102", MarketCapKey("STK", "20240102"))
	assert.Equal(t, "krx:fundamental:STK:20240102", FundamentalKey("STK", "20240102"))
	assert.Equal(t, "krx:change:KSQ:20231003:20240102", PriceChangeKey("KSQ", "20231003", "20240102"))
	assert.Equal(t, "naver:prices:005930:20240102:20240201", PriceSeriesKey("005930", "20240102", "20240201"))
}
