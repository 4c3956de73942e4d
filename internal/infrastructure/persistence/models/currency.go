package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/currency"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ExchangeRateModel is one row of the rate time series. At most one row
// per pair is active.
type ExchangeRateModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	BaseCurrency   string          `gorm:"type:varchar(3);not null;index:idx_exchange_rates_pair,priority:1;uniqueIndex:idx_exchange_rates_active_pair,priority:1,where:is_active = true"`
	TargetCurrency string          `gorm:"type:varchar(3);not null;index:idx_exchange_rates_pair,priority:2;uniqueIndex:idx_exchange_rates_active_pair,priority:2,where:is_active = true"`
	Rate           decimal.Decimal `gorm:"type:numeric(20,10);not null"`
	EffectiveAt    time.Time       `gorm:"not null;index:idx_exchange_rates_pair,priority:3"`
	Source         string          `gorm:"type:varchar(50);not null"`
	IsActive       bool            `gorm:"not null"`
	CreatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExchangeRateModel) TableName() string {
	return "exchange_rates"
}

// ToDomain converts the persistence model to a domain ExchangeRate.
func (m *ExchangeRateModel) ToDomain() *currency.ExchangeRate {
	return &currency.ExchangeRate{
		ID:          m.ID,
		Base:        valueobject.Currency(m.BaseCurrency),
		Target:      valueobject.Currency(m.TargetCurrency),
		Rate:        m.Rate,
		EffectiveAt: m.EffectiveAt,
		Source:      m.Source,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
	}
}

// ExchangeRateModelFromDomain creates a persistence model from a domain rate.
func ExchangeRateModelFromDomain(r *currency.ExchangeRate) *ExchangeRateModel {
	return &ExchangeRateModel{
		ID:             r.ID,
		BaseCurrency:   r.Base.String(),
		TargetCurrency: r.Target.String(),
		Rate:           r.Rate,
		EffectiveAt:    r.EffectiveAt,
		Source:         r.Source,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt,
	}
}
