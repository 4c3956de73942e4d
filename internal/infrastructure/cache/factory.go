package cache

import (
	"fmt"
	"io"
	"time"

	"github.com/possuite/backend/internal/domain/currency"
	"github.com/possuite/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RateCacheFactory picks a rate cache implementation from configuration
type RateCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// RateCacheFactoryOption is a functional option for configuring the factory
type RateCacheFactoryOption func(*RateCacheFactory)

// WithLogger sets the logger for the factory and the caches it builds
func WithLogger(logger *zap.Logger) RateCacheFactoryOption {
	return func(f *RateCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// a process-local cache. Default is true.
func WithInMemoryFallback(allow bool) RateCacheFactoryOption {
	return func(f *RateCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewRateCacheFactory creates a new factory
func NewRateCacheFactory(cfg config.RedisConfig, opts ...RateCacheFactoryOption) *RateCacheFactory {
	f := &RateCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// RateCache is a currency.RateCache that owns resources.
type RateCache interface {
	currency.RateCache
	io.Closer
}

// Create returns a Redis cache when configured and reachable. With no
// Redis host it returns an in-memory cache. An unreachable Redis falls back
// to in-memory only when allowed, since separate processes then stop
// sharing snapshots.
func (f *RateCacheFactory) Create() (RateCache, error) {
	if f.redisConfig.Host == "" {
		f.logger.Info("Redis not configured, using in-memory rate cache")
		return NewInMemoryRateCache(time.Minute), nil
	}

	c, err := NewRedisRateCache(f.redisConfig, f.logger.Named("rate_cache"))
	if err == nil {
		f.logger.Info("Using Redis rate cache",
			zap.String("host", f.redisConfig.Host),
			zap.Int("port", f.redisConfig.Port),
		)
		return c, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis rate cache unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory rate cache", zap.Error(err))
	return NewInMemoryRateCache(time.Minute), nil
}
