package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/instock/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "instock")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", 0.42, TTLShort))

	var result float64
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found, "disabled cache never hits")
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "score:600519:2024-01-15", ScoreKey("600519", "2024-01-15"))
	assert.Equal(t, "instock:cache:score:1:2", NewCache(Disabled(), "instock").fullKey("score:1:2"))
	assert.Equal(t, 24*time.Hour, TTLDaily)
}
