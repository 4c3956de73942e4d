package cache

import (
	"context"
	"sync"
	"time"

	"github.com/possuite/backend/internal/domain/currency"
)

type entry struct {
	rate      currency.ExchangeRate
	expiresAt time.Time
}

// InMemoryRateCache is a process-local RateCache for single-instance
// deployments and tests.
type InMemoryRateCache struct {
	mu        sync.RWMutex
	entries   map[currency.Pair]entry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryRateCache creates the cache and starts a goroutine that drops
// expired entries every sweep interval.
func NewInMemoryRateCache(sweep time.Duration) *InMemoryRateCache {
	c := &InMemoryRateCache{
		entries:  make(map[currency.Pair]entry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	if sweep > 0 {
		c.wg.Add(1)
		go c.cleanupLoop(sweep)
	}
	return c
}

// Get implements currency.RateCache. The returned rate is a copy.
func (c *InMemoryRateCache) Get(_ context.Context, pair currency.Pair) (*currency.ExchangeRate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[pair]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	r := e.rate
	return &r, true
}

// Set implements currency.RateCache. A non-positive ttl is ignored.
func (c *InMemoryRateCache) Set(_ context.Context, rate *currency.ExchangeRate, ttl time.Duration) {
	if rate == nil || ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[currency.Pair{Base: rate.Base, Target: rate.Target}] = entry{
		rate:      *rate,
		expiresAt: c.now().Add(ttl),
	}
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryRateCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryRateCache) cleanupLoop(every time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemoryRateCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for pair, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, pair)
		}
	}
}

// Size returns the number of entries, expired or not.
func (c *InMemoryRateCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ currency.RateCache = (*InMemoryRateCache)(nil)
