package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/possuite/backend/internal/domain/currency"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usdKES(t *testing.T, rate string, at time.Time) *currency.ExchangeRate {
	t.Helper()
	r, err := currency.NewExchangeRate("USD", "KES", decimal.RequireFromString(rate), at, "test")
	require.NoError(t, err)
	return r
}

var usdKESPair = currency.Pair{Base: "USD", Target: "KES"}

func TestInMemoryRateCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryRateCache(0)
	defer c.Close()

	_, ok := c.Get(ctx, usdKESPair)
	assert.False(t, ok)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c.Set(ctx, usdKES(t, "129.5", at), time.Hour)

	got, ok := c.Get(ctx, usdKESPair)
	require.True(t, ok)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("129.5")))
	assert.Equal(t, at, got.EffectiveAt)

	_, ok = c.Get(ctx, currency.Pair{Base: "KES", Target: "USD"})
	assert.False(t, ok, "pairs are directed")
}

func TestInMemoryRateCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryRateCache(0)
	defer c.Close()

	c.Set(ctx, usdKES(t, "129.5", time.Now()), time.Hour)
	got, _ := c.Get(ctx, usdKESPair)
	got.Rate = decimal.NewFromInt(1)

	again, _ := c.Get(ctx, usdKESPair)
	assert.Equal(t, "129.5", again.Rate.String())
}

func TestInMemoryRateCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryRateCache(0)
	defer c.Close()

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set(ctx, usdKES(t, "129.5", now), time.Minute)
	c.Set(ctx, usdKES(t, "130", now), 0)

	got, ok := c.Get(ctx, usdKESPair)
	require.True(t, ok)
	assert.Equal(t, "129.5", got.Rate.String(), "zero ttl is ignored")

	now = now.Add(time.Minute)
	_, ok = c.Get(ctx, usdKESPair)
	assert.False(t, ok)

	assert.Equal(t, 1, c.Size())
	c.cleanup()
	assert.Equal(t, 0, c.Size())
}

func TestInMemoryRateCache_Concurrent(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryRateCache(time.Millisecond)
	rate := usdKES(t, "129.5", time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(ctx, rate, time.Millisecond)
				c.Get(ctx, usdKESPair)
			}
		}()
	}
	wg.Wait()

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
