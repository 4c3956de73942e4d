package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/possuite/backend/internal/bootstrap"
	"github.com/possuite/backend/internal/infrastructure/config"
	"github.com/possuite/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Worker failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	rt, err := bootstrap.New(ctx, cfg, cfg.Telemetry.ServiceName+"-worker")
	if err != nil {
		return err
	}
	log := rt.Logger
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := rt.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown errors: %v\n", err)
		}
	}()

	log.Info("Starting POS worker",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("reference_currency", cfg.Currency.Reference),
	)

	tracked, err := rt.TrackedCurrencies()
	if err != nil {
		return fmt.Errorf("tracked currencies: %w", err)
	}

	schedCfg := scheduler.DefaultRateRefreshSchedulerConfig()
	schedCfg.Interval = cfg.Currency.RefreshInterval
	schedCfg.Currencies = tracked
	schedCfg.Enabled = len(tracked) > 0
	if !schedCfg.Enabled {
		log.Warn("No tracked currencies configured, rate refresh disabled")
	}

	sched, err := scheduler.NewRateRefreshScheduler(rt.Converter, log, schedCfg)
	if err != nil {
		return fmt.Errorf("create rate refresh scheduler: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start rate refresh scheduler: %w", err)
	}

	<-ctx.Done()
	log.Info("Shutting down worker...")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		log.Error("Rate refresh scheduler did not stop cleanly", zap.Error(err))
	}
	if last := sched.LastRun(); last != nil {
		log.Info("Last rate refresh",
			zap.Time("started_at", last.StartedAt),
			zap.Int("stored", last.Stored),
			zap.Error(last.Err),
		)
	}
	log.Info("Worker exited gracefully")
	return nil
}
