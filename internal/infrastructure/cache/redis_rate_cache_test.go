package cache

import (
	"context"
	"testing"
	"time"

	"github.com/possuite/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// unreachableClient points at a port nothing listens on.
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisRateCache_NilClientAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	c := NewRedisRateCacheWithClient(nil, "", nil)

	c.Set(ctx, usdKES(t, "129.5", time.Now()), time.Hour)
	_, ok := c.Get(ctx, usdKESPair)
	assert.False(t, ok)
	assert.NoError(t, c.Close())

	var unset *RedisRateCache
	_, ok = unset.Get(ctx, usdKESPair)
	assert.False(t, ok)
	unset.Set(ctx, usdKES(t, "129.5", time.Now()), time.Hour)
}

func TestRedisRateCache_FailuresDegradeToMiss(t *testing.T) {
	ctx := context.Background()
	c := NewRedisRateCacheWithClient(unreachableClient(), "test:rate:", zaptest.NewLogger(t))
	defer c.Close()

	c.Set(ctx, usdKES(t, "129.5", time.Now()), time.Hour)
	_, ok := c.Get(ctx, usdKESPair)
	assert.False(t, ok)
}

func TestSnapshotEncoding(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("EAT", 3*3600))
	data, err := encodeRate(usdKES(t, "129.123456789", at))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rate":"129.123456789"`)

	got, err := decodeRate(data)
	require.NoError(t, err)
	assert.Equal(t, "129.123456789", got.Rate.String())
	assert.True(t, got.EffectiveAt.Equal(at))
	assert.True(t, got.IsActive)

	_, err = decodeRate([]byte("not json"))
	assert.Error(t, err)
}

func TestPairKey(t *testing.T) {
	assert.Equal(t, "pos:rate:USD:KES", pairKey(defaultKeyPrefix, usdKESPair))
}

func TestRateCacheFactory(t *testing.T) {
	t.Run("no host means in-memory", func(t *testing.T) {
		c, err := NewRateCacheFactory(config.RedisConfig{}).Create()
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &InMemoryRateCache{}, c)
	})

	t.Run("unreachable redis falls back", func(t *testing.T) {
		f := NewRateCacheFactory(config.RedisConfig{Host: "127.0.0.1", Port: 1}, WithLogger(zap.NewNop()))
		c, err := f.Create()
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &InMemoryRateCache{}, c)
	})

	t.Run("fallback can be refused", func(t *testing.T) {
		f := NewRateCacheFactory(config.RedisConfig{Host: "127.0.0.1", Port: 1}, WithInMemoryFallback(false))
		_, err := f.Create()
		assert.Error(t, err)
	})
}
