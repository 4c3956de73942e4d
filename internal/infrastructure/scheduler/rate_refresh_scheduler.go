package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/possuite/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

var (
	ErrInvalidConfig     = errors.New("invalid scheduler configuration")
	ErrRefreshInProgress = errors.New("rate refresh already in progress")
)

// RateRefresher stores fresh reference legs for the given currencies
type RateRefresher interface {
	RefreshReferenceRates(ctx context.Context, currencies []valueobject.Currency) (int, error)
}

// RateRefreshSchedulerConfig holds configuration for the rate refresh loop
type RateRefreshSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// Interval between refreshes
	Interval time.Duration

	// Timeout bounds a single refresh, including the remote call and the
	// store transaction
	Timeout time.Duration

	// Currencies are the tracked currencies whose reference legs are kept fresh
	Currencies []valueobject.Currency

	// RunOnStart refreshes immediately instead of waiting one interval
	RunOnStart bool
}

// DefaultRateRefreshSchedulerConfig returns default configuration
func DefaultRateRefreshSchedulerConfig() RateRefreshSchedulerConfig {
	return RateRefreshSchedulerConfig{
		Enabled:    true,
		Interval:   time.Hour,
		Timeout:    30 * time.Second,
		RunOnStart: true,
	}
}

// Validate checks the configuration
func (c RateRefreshSchedulerConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if len(c.Currencies) == 0 {
		return fmt.Errorf("%w: no tracked currencies", ErrInvalidConfig)
	}
	return nil
}

// RateRefreshScheduler keeps the reference legs of tracked currencies
// fresh so that checkouts resolve rates from the store. A failed refresh
// is logged and retried on the next tick.
type RateRefreshScheduler struct {
	refresher RateRefresher
	logger    *zap.Logger
	config    RateRefreshSchedulerConfig

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inFlight  atomic.Bool
	lastRun   atomic.Pointer[RefreshResult]
}

// RefreshResult describes one completed run
type RefreshResult struct {
	StartedAt time.Time
	Duration  time.Duration
	Stored    int
	Err       error
}

// NewRateRefreshScheduler creates a new scheduler
func NewRateRefreshScheduler(
	refresher RateRefresher,
	log *zap.Logger,
	config RateRefreshSchedulerConfig,
) (*RateRefreshScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &RateRefreshScheduler{
		refresher: refresher,
		logger:    log,
		config:    config,
	}, nil
}

// Start launches the refresh loop. Calling Start twice is a no-op.
func (s *RateRefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Rate refresh scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Rate refresh scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("currencies", len(s.config.Currencies)),
		zap.Bool("run_on_start", s.config.RunOnStart),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight refresh to finish or
// for ctx to expire.
func (s *RateRefreshScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Rate refresh scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Rate refresh scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *RateRefreshScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// LastRun returns the most recent completed run, or nil.
func (s *RateRefreshScheduler) LastRun() *RefreshResult {
	return s.lastRun.Load()
}

func (s *RateRefreshScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Rate refresh loop stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one refresh and swallows its error.
func (s *RateRefreshScheduler) tick(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Debug("Scheduled rate refresh skipped or failed", zap.Error(err))
	}
}

// RunOnce refreshes immediately. Runs never overlap: a call made while
// another is active returns ErrRefreshInProgress.
func (s *RateRefreshScheduler) RunOnce(ctx context.Context) (int, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return 0, ErrRefreshInProgress
	}
	defer s.inFlight.Store(false)

	ctx, log := logger.WithOperation(ctx, s.logger, "rates.refresh")
	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	started := time.Now()
	stored, err := s.refresher.RefreshReferenceRates(runCtx, s.config.Currencies)
	result := &RefreshResult{
		StartedAt: started,
		Duration:  time.Since(started),
		Stored:    stored,
		Err:       err,
	}
	s.lastRun.Store(result)

	if err != nil {
		log.Error("Rate refresh failed",
			zap.Duration("duration", result.Duration),
			zap.Error(err),
		)
		return 0, err
	}
	log.Info("Rate refresh completed",
		zap.Int("stored", stored),
		zap.Duration("duration", result.Duration),
	)
	return stored, nil
}
