// Package bootstrap assembles the POS core from configuration for the
// command-line binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	appcurrency "github.com/possuite/backend/internal/application/currency"
	appinventory "github.com/possuite/backend/internal/application/inventory"
	appsequence "github.com/possuite/backend/internal/application/sequence"
	apptrade "github.com/possuite/backend/internal/application/trade"
	"github.com/possuite/backend/internal/domain/currency"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/possuite/backend/internal/infrastructure/cache"
	"github.com/possuite/backend/internal/infrastructure/config"
	"github.com/possuite/backend/internal/infrastructure/logger"
	"github.com/possuite/backend/internal/infrastructure/persistence"
	"github.com/possuite/backend/internal/infrastructure/ratesource"
	"github.com/possuite/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const meterName = "github.com/possuite/backend"

// Runtime holds the wired services and everything that must be released on
// shutdown.
type Runtime struct {
	Config    *config.Config
	Logger    *zap.Logger
	Database  *persistence.Database
	Repos     *persistence.Repositories
	Metrics   *telemetry.POSMetrics
	Allocator *appsequence.Allocator
	Converter *appcurrency.Converter
	Sales     *apptrade.SaleService
	Refunds   *apptrade.RefundService
	Stock     *appinventory.StockService

	shutdown []func(context.Context) error
}

// New builds a Runtime for serviceName. On error everything opened so far
// is released.
func New(ctx context.Context, cfg *config.Config, serviceName string) (*Runtime, error) {
	rt := &Runtime{Config: cfg}
	if err := rt.init(ctx, serviceName); err != nil {
		_ = rt.Shutdown(context.Background())
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) init(ctx context.Context, serviceName string) error {
	cfg := rt.Config

	base, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: serviceName,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	rt.Logger = base
	rt.onShutdown(func(context.Context) error { return logger.Sync(base) })

	pipeline, err := rt.initTelemetry(ctx, serviceName)
	if err != nil {
		return err
	}

	if err := rt.initDatabase(); err != nil {
		return err
	}

	rt.Metrics, err = telemetry.NewPOSMetrics(telemetry.POSMetricsConfig{
		Meter:  pipeline.Meter(meterName),
		Logger: rt.Logger,
	})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	rateCache, err := cache.NewRateCacheFactory(cfg.Redis,
		cache.WithLogger(rt.Logger),
		cache.WithInMemoryFallback(true),
	).Create()
	if err != nil {
		return fmt.Errorf("init rate cache: %w", err)
	}
	rt.onShutdown(func(context.Context) error { return rateCache.Close() })

	source, err := newRateSource(cfg.Currency, rt.Logger)
	if err != nil {
		return err
	}

	rt.wireServices(rateCache, source)
	return nil
}

func (rt *Runtime) initTelemetry(ctx context.Context, serviceName string) (*telemetry.Pipeline, error) {
	tc := rt.Config.Telemetry

	pipeline, err := telemetry.StartPipeline(ctx, telemetry.PipelineConfig{
		ServiceName:     serviceName,
		Endpoint:        tc.CollectorEndpoint,
		Insecure:        tc.Insecure,
		Traces:          tc.Enabled,
		SamplingRatio:   tc.SamplingRatio,
		Metrics:         tc.MetricsEnabled,
		MetricsInterval: tc.MetricsInterval,
		Logs:            tc.LogsEnabled,
	}, rt.Logger)
	if err != nil {
		return nil, fmt.Errorf("init otel pipeline: %w", err)
	}
	rt.onShutdown(pipeline.Shutdown)
	rt.Logger = pipeline.Bridge(rt.Logger, logger.ParseLevel(rt.Config.Log.Level))

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           tc.ProfilingEnabled,
		ServerAddress:     tc.PyroscopeAddress,
		ApplicationName:   serviceName,
		BasicAuthUser:     tc.PyroscopeUser,
		BasicAuthPassword: tc.PyroscopePassword,
		ProfileCPU:        true,
		ProfileAlloc:      true,
		ProfileInuse:      true,
		ProfileGoroutines: true,
	}, rt.Logger)
	if err != nil {
		return nil, fmt.Errorf("init profiler: %w", err)
	}
	rt.onShutdown(func(context.Context) error { return profiler.Stop() })
	if profiler.IsEnabled() {
		pipeline.LinkProfiles()
	}
	return pipeline, nil
}

func (rt *Runtime) initDatabase() error {
	cfg := rt.Config
	gormLog := logger.NewGormLogger(rt.Logger, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
		logger.WithContentionClassifier(persistence.IsTransient),
	)

	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	rt.Database = db
	rt.onShutdown(func(context.Context) error { return db.Close() })

	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			return err
		}
	}

	tracing := telemetry.DefaultDBTracingConfig()
	tracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	tracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	tracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	if cfg.Database.Driver == "sqlite" {
		tracing.DBSystem = "sqlite"
	}
	if err := telemetry.NewDBTracingPlugin(tracing, rt.Logger).Register(db.DB); err != nil {
		return fmt.Errorf("register db tracing: %w", err)
	}

	rt.Repos = db.NewRepositories(cfg.Sequence.LockTimeout)
	rt.Logger.Info("Database ready",
		zap.String("driver", cfg.Database.Driver),
		zap.Duration("lock_timeout", cfg.Sequence.LockTimeout),
	)
	return nil
}

// newRateSource returns nil when no app id is configured; the converter then
// works from stored rates only.
func newRateSource(cfg config.CurrencyConfig, log *zap.Logger) (currency.RateSource, error) {
	if cfg.AppID == "" {
		log.Warn("No rate source app id configured, remote rate fetching disabled")
		return nil, nil
	}
	src, err := ratesource.NewOpenExchangeRates(ratesource.Config{
		BaseURL: cfg.RateSourceURL,
		AppID:   cfg.AppID,
		Timeout: cfg.HTTPTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init rate source: %w", err)
	}
	return src, nil
}

func (rt *Runtime) wireServices(rateCache currency.RateCache, source currency.RateSource) {
	cfg := rt.Config

	rt.Allocator = appsequence.NewAllocator(rt.Repos.Counters, rt.Repos.Scope, appsequence.Config{
		MaxAttempts:    cfg.Sequence.MaxAttempts,
		InitialBackoff: cfg.Sequence.InitialBackoff,
		MaxBackoff:     cfg.Sequence.MaxBackoff,
	}, rt.Logger)
	rt.Allocator.SetMetrics(rt.Metrics)

	rt.Converter = appcurrency.NewConverter(rt.Repos.Rates, rateCache, source, rt.Repos.Scope, appcurrency.Config{
		Reference:       valueobject.Currency(cfg.Currency.Reference),
		FreshnessWindow: cfg.Currency.FreshnessWindow,
		CacheTTL:        cfg.Redis.RateTTL,
	}, rt.Logger)
	rt.Converter.SetMetrics(rt.Metrics)

	rt.Sales = apptrade.NewSaleService(rt.Repos.Tenants, rt.Repos.Sales, rt.Repos.Scope, rt.Allocator, rt.Converter, apptrade.SaleConfig{
		ReportingCurrency: valueobject.Currency(cfg.Sale.ReportingCurrency),
		PaymentTolerance:  cfg.Sale.PaymentTolerance,
	}, rt.Logger)
	rt.Sales.SetMetrics(rt.Metrics)

	rt.Refunds = apptrade.NewRefundService(rt.Repos.Sales, rt.Repos.Refunds, rt.Repos.Scope, rt.Allocator, rt.Logger)
	rt.Refunds.SetMetrics(rt.Metrics)

	rt.Stock = appinventory.NewStockService(rt.Repos.StockItems, rt.Repos.StockMovements, rt.Repos.Scope, rt.Allocator, rt.Logger)
}

// TrackedCurrencies parses the configured tracked list.
func (rt *Runtime) TrackedCurrencies() ([]valueobject.Currency, error) {
	out := make([]valueobject.Currency, 0, len(rt.Config.Currency.Tracked))
	for _, code := range rt.Config.Currency.Tracked {
		c, err := valueobject.ParseCurrency(code)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (rt *Runtime) onShutdown(fn func(context.Context) error) {
	rt.shutdown = append(rt.shutdown, fn)
}

// Shutdown releases resources in reverse order of acquisition and returns
// every error encountered.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(rt.shutdown) - 1; i >= 0; i-- {
		if err := rt.shutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.shutdown = nil
	return errors.Join(errs...)
}
