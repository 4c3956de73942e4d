// Package currency models exchange-rate snapshots between currency pairs.
package currency

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ExchangeRate is one observation of base→target: one unit of Base buys
// Rate units of Target. Rows form a time series per pair and at most one
// row per pair is active.
type ExchangeRate struct {
	ID          uuid.UUID
	Base        valueobject.Currency
	Target      valueobject.Currency
	Rate        decimal.Decimal
	EffectiveAt time.Time
	Source      string
	IsActive    bool
	CreatedAt   time.Time
}

// NewExchangeRate creates an active rate observation
func NewExchangeRate(base, target valueobject.Currency, rate decimal.Decimal, effectiveAt time.Time, source string) (*ExchangeRate, error) {
	if base == "" || target == "" {
		return nil, shared.ErrUnknownCurrency.Newf("currency codes cannot be empty")
	}
	if base == target {
		return nil, shared.ErrInvalidInput.Newf("base and target must differ")
	}
	if !rate.IsPositive() {
		return nil, shared.ErrInvalidInput.Newf("rate for %s/%s must be positive", base, target)
	}
	return &ExchangeRate{
		ID:          uuid.New(),
		Base:        base,
		Target:      target,
		Rate:        rate,
		EffectiveAt: effectiveAt,
		Source:      source,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}, nil
}

// IsFresh reports whether the rate is no older than window at now.
func (r *ExchangeRate) IsFresh(now time.Time, window time.Duration) bool {
	return !r.EffectiveAt.Before(now.Add(-window))
}

// Pair identifies a directed currency pair
type Pair struct {
	Base   valueobject.Currency
	Target valueobject.Currency
}

func (p Pair) String() string {
	return string(p.Base) + "/" + string(p.Target)
}

// RateRepository stores the rate time series
type RateRepository interface {
	// FindActive returns the active row for the pair, or shared.ErrNotFound.
	FindActive(ctx context.Context, base, target valueobject.Currency) (*ExchangeRate, error)
	// FindLatest returns the most recent row for the pair regardless of
	// active flag or age, or shared.ErrNotFound.
	FindLatest(ctx context.Context, base, target valueobject.Currency) (*ExchangeRate, error)
	// ReplaceActive deactivates the current active row for the pair under a
	// row lock and inserts rate as the new active row. Must run in a
	// transaction.
	ReplaceActive(ctx context.Context, rate *ExchangeRate) error
	History(ctx context.Context, base, target valueobject.Currency, limit int) ([]ExchangeRate, error)
}

// RateCache is a read-through cache of rate snapshots
type RateCache interface {
	Get(ctx context.Context, pair Pair) (*ExchangeRate, bool)
	Set(ctx context.Context, rate *ExchangeRate, ttl time.Duration)
}

// Quotes are reference→currency rates as published at Timestamp.
type Quotes struct {
	Base      valueobject.Currency
	Timestamp time.Time
	Rates     map[valueobject.Currency]decimal.Decimal
}

// RateSource is the single external provider. It only answers "now" and is
// always queried with the reference currency as base.
type RateSource interface {
	Name() string
	Latest(ctx context.Context, base valueobject.Currency) (*Quotes, error)
}
