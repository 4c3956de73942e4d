// Package sequence issues gap-free, per-tenant document numbers.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/possuite/backend/internal/application/txn"
	"github.com/possuite/backend/internal/domain/sequence"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Config bounds the retry loop around a contended counter row.
type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultConfig returns three attempts backing off from 50ms up to 1s.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     time.Second,
	}
}

// Allocator hands out the next number for a (tenant, kind) counter. Numbers
// are strictly increasing per counter and, because the increment commits or
// rolls back with the caller's transaction, gap-free.
type Allocator struct {
	counters sequence.CounterRepository
	scope    txn.TransactionScope
	config   Config
	logger   *zap.Logger
	metrics  *telemetry.POSMetrics
}

// NewAllocator creates an Allocator. counters is used for non-locking reads;
// allocations always go through scope.
func NewAllocator(counters sequence.CounterRepository, scope txn.TransactionScope, cfg Config, logger *zap.Logger) *Allocator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultConfig().InitialBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	return &Allocator{
		counters: counters,
		scope:    scope,
		config:   cfg,
		logger:   logger,
	}
}

// SetMetrics sets the metrics collector
func (a *Allocator) SetMetrics(m *telemetry.POSMetrics) {
	a.metrics = m
}

// NextNumber allocates in a transaction of its own.
func (a *Allocator) NextNumber(ctx context.Context, tenantID uuid.UUID, kind sequence.EntityKind) (int64, error) {
	var number int64
	err := a.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		number, err = a.NextNumberInTx(ctx, repos, tenantID, kind)
		return err
	})
	if err != nil {
		return 0, err
	}
	return number, nil
}

// NextNumberInTx allocates inside the caller's open transaction, so the
// increment is undone if the caller later rolls back.
//
// Each attempt runs behind a savepoint. A lock timeout, deadlock or
// serialization failure rolls back to it and retries with jittered
// exponential backoff; once attempts run out the call fails with
// shared.ErrConcurrency. Any other error fails immediately.
func (a *Allocator) NextNumberInTx(ctx context.Context, repos txn.TransactionalRepositories, tenantID uuid.UUID, kind sequence.EntityKind) (int64, error) {
	if err := validate(tenantID, kind); err != nil {
		return 0, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "sequence", "next_number")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrEntityKind, kind.String(),
	)

	savepoint := "seq_" + kind.String()
	attempt := 0
	operation := func() (int64, error) {
		attempt++
		if err := repos.SavePoint(savepoint); err != nil {
			return 0, backoff.Permanent(fmt.Errorf("failed to create savepoint: %w", err))
		}
		number, err := allocate(ctx, repos.Counters(), tenantID, kind)
		if err == nil {
			return number, nil
		}
		if !errors.Is(err, shared.ErrLockContention) {
			return 0, backoff.Permanent(err)
		}
		if rbErr := repos.RollbackTo(savepoint); rbErr != nil {
			return 0, backoff.Permanent(fmt.Errorf("failed to roll back to savepoint: %w", rbErr))
		}
		return 0, err
	}
	notify := func(err error, wait time.Duration) {
		a.metrics.RecordAllocationRetry(ctx, kind.String())
		a.logger.Warn("Sequence counter contended, retrying",
			zap.String("tenant_id", tenantID.String()),
			zap.String("entity_kind", kind.String()),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	number, err := backoff.RetryNotifyWithData(operation, a.policy(ctx), notify)
	telemetry.SetAttributes(span, telemetry.SpanAttrAttempt, attempt)
	if err != nil {
		if errors.Is(err, shared.ErrLockContention) {
			err = shared.ErrConcurrency.Newf("sequence %s for tenant %s still locked after %d attempts",
				kind, tenantID, attempt)
		}
		telemetry.RecordError(span, err)
		return 0, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrSequence, number)
	a.metrics.RecordAllocation(ctx, kind.String())
	return number, nil
}

func (a *Allocator) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(a.config.InitialBackoff),
		backoff.WithMaxInterval(a.config.MaxBackoff),
		backoff.WithRandomizationFactor(1),
		backoff.WithMaxElapsedTime(0),
	)
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(a.config.MaxAttempts-1)), ctx)
}

// allocate locks the counter row, creating it on first use, and advances it.
func allocate(ctx context.Context, counters sequence.CounterRepository, tenantID uuid.UUID, kind sequence.EntityKind) (int64, error) {
	counter, err := counters.LockForUpdate(ctx, tenantID, kind)
	if errors.Is(err, shared.ErrNotFound) {
		if err = counters.CreateIfMissing(ctx, tenantID, kind); err != nil {
			return 0, err
		}
		counter, err = counters.LockForUpdate(ctx, tenantID, kind)
	}
	if err != nil {
		return 0, err
	}

	number := counter.Next()
	if err := counters.Save(ctx, counter); err != nil {
		return 0, err
	}
	return number, nil
}

// CurrentNumber returns the last issued number without locking, or 0 when
// the counter has never been used.
func (a *Allocator) CurrentNumber(ctx context.Context, tenantID uuid.UUID, kind sequence.EntityKind) (int64, error) {
	if err := validate(tenantID, kind); err != nil {
		return 0, err
	}
	counter, err := a.counters.Find(ctx, tenantID, kind)
	if errors.Is(err, shared.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s counter: %w", kind, err)
	}
	return counter.LastValue, nil
}

// EnsureCountersExist creates a zero counter for every known kind that
// lacks one. It is safe to call repeatedly.
func (a *Allocator) EnsureCountersExist(ctx context.Context, tenantID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return shared.ErrInvalidInput.Newf("tenant ID cannot be empty")
	}
	return a.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		for _, kind := range sequence.KnownKinds {
			if err := repos.Counters().CreateIfMissing(ctx, tenantID, kind); err != nil {
				return fmt.Errorf("failed to create %s counter: %w", kind, err)
			}
		}
		return nil
	})
}

// SyncWithData raises the counter to the highest number already stored on
// kind's records, for use after imports or restores. It never lowers the
// counter and returns the resulting value.
func (a *Allocator) SyncWithData(ctx context.Context, tenantID uuid.UUID, kind sequence.EntityKind) (int64, error) {
	if err := validate(tenantID, kind); err != nil {
		return 0, err
	}

	var value int64
	err := a.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		counters := repos.Counters()
		if err := counters.CreateIfMissing(ctx, tenantID, kind); err != nil {
			return err
		}
		counter, err := counters.LockForUpdate(ctx, tenantID, kind)
		if err != nil {
			return err
		}
		maxAssigned, err := counters.MaxAssigned(ctx, tenantID, kind)
		if err != nil {
			return err
		}
		if counter.RaiseTo(maxAssigned) {
			if err := counters.Save(ctx, counter); err != nil {
				return err
			}
			a.logger.Info("Sequence counter raised to match stored data",
				zap.String("tenant_id", tenantID.String()),
				zap.String("entity_kind", kind.String()),
				zap.Int64("value", counter.LastValue),
			)
		}
		value = counter.LastValue
		return nil
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

func validate(tenantID uuid.UUID, kind sequence.EntityKind) error {
	if tenantID == uuid.Nil {
		return shared.ErrInvalidInput.Newf("tenant ID cannot be empty")
	}
	if !kind.IsValid() {
		return shared.ErrUnknownEntityKind.Newf("unknown sequence entity kind %q", kind)
	}
	return nil
}
