package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/possuite/backend/internal/domain/currency"
	"github.com/possuite/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultKeyPrefix = "pos:rate:"

// RedisRateCache keeps rate snapshots in Redis so that every process
// shares one view. Redis failures degrade to cache misses; the converter
// then falls through to the store.
type RedisRateCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisRateCache connects to Redis and verifies the connection
func NewRedisRateCache(cfg config.RedisConfig, logger *zap.Logger) (*RedisRateCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisRateCacheWithClient(client, "", logger), nil
}

// NewRedisRateCacheWithClient wraps an existing client. A nil client yields
// a cache that always misses.
func NewRedisRateCacheWithClient(client *redis.Client, keyPrefix string, logger *zap.Logger) *RedisRateCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRateCache{client: client, keyPrefix: keyPrefix, logger: logger}
}

// Get implements currency.RateCache
func (c *RedisRateCache) Get(ctx context.Context, pair currency.Pair) (*currency.ExchangeRate, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, pairKey(c.keyPrefix, pair)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Rate cache read failed", zap.String("pair", pair.String()), zap.Error(err))
		}
		return nil, false
	}
	rate, err := decodeRate(data)
	if err != nil {
		c.logger.Warn("Discarding unreadable rate cache entry", zap.String("pair", pair.String()), zap.Error(err))
		return nil, false
	}
	return rate, true
}

// Set implements currency.RateCache
func (c *RedisRateCache) Set(ctx context.Context, rate *currency.ExchangeRate, ttl time.Duration) {
	if c == nil || c.client == nil || rate == nil {
		return
	}
	data, err := encodeRate(rate)
	if err != nil {
		c.logger.Warn("Rate cache encode failed", zap.Error(err))
		return
	}
	pair := currency.Pair{Base: rate.Base, Target: rate.Target}
	if err := c.client.Set(ctx, pairKey(c.keyPrefix, pair), data, ttl).Err(); err != nil {
		c.logger.Warn("Rate cache write failed", zap.String("pair", pair.String()), zap.Error(err))
	}
}

// Close closes the Redis client
func (c *RedisRateCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

var _ currency.RateCache = (*RedisRateCache)(nil)
