package persistence

import (
	"context"

	"github.com/possuite/backend/internal/domain/currency"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/possuite/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultRateHistoryLimit = 50

// GormRateRepository implements currency.RateRepository using GORM
type GormRateRepository struct {
	db *gorm.DB
}

// NewGormRateRepository creates a new GormRateRepository
func NewGormRateRepository(db *gorm.DB) *GormRateRepository {
	return &GormRateRepository{db: db}
}

// FindActive returns the pair's active row
func (r *GormRateRepository) FindActive(ctx context.Context, base, target valueobject.Currency) (*currency.ExchangeRate, error) {
	var model models.ExchangeRateModel
	if err := r.db.WithContext(ctx).
		Where("base_currency = ? AND target_currency = ? AND is_active = ?", base.String(), target.String(), true).
		Take(&model).Error; err != nil {
		return nil, notFound("find active rate", err, shared.ErrNotFound)
	}
	return model.ToDomain(), nil
}

// FindLatest returns the pair's most recent row, active or not
func (r *GormRateRepository) FindLatest(ctx context.Context, base, target valueobject.Currency) (*currency.ExchangeRate, error) {
	var model models.ExchangeRateModel
	if err := r.db.WithContext(ctx).
		Where("base_currency = ? AND target_currency = ?", base.String(), target.String()).
		Order("effective_at DESC, created_at DESC").
		Take(&model).Error; err != nil {
		return nil, notFound("find latest rate", err, shared.ErrNotFound)
	}
	return model.ToDomain(), nil
}

// ReplaceActive deactivates the pair's active row under a lock and inserts
// rate as the new active row. When the pair had no active row and a
// concurrent writer inserted one first, that row is kept and copied into
// rate.
func (r *GormRateRepository) ReplaceActive(ctx context.Context, rate *currency.ExchangeRate) error {
	db := r.db.WithContext(ctx)
	activePair := func(q *gorm.DB) *gorm.DB {
		return q.Where("base_currency = ? AND target_currency = ? AND is_active = ?", rate.Base.String(), rate.Target.String(), true)
	}

	var current []models.ExchangeRateModel
	if err := db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(activePair).
		Find(&current).Error; err != nil {
		return translate("lock active rate", err)
	}
	if len(current) > 0 {
		ids := make([]any, len(current))
		for i := range current {
			ids[i] = current[i].ID
		}
		if err := db.Model(&models.ExchangeRateModel{}).
			Where("id IN ?", ids).
			Update("is_active", false).Error; err != nil {
			return translate("deactivate rate", err)
		}
	}

	rate.IsActive = true
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(models.ExchangeRateModelFromDomain(rate)).Error
	})
	if err == nil || !IsUniqueViolation(err) {
		return translate("insert rate", err)
	}

	var winner models.ExchangeRateModel
	if err := db.Scopes(activePair).Take(&winner).Error; err != nil {
		return translate("reload active rate", err)
	}
	*rate = *winner.ToDomain()
	return nil
}

// History returns up to limit rows for the pair, newest first
func (r *GormRateRepository) History(ctx context.Context, base, target valueobject.Currency, limit int) ([]currency.ExchangeRate, error) {
	if limit <= 0 {
		limit = defaultRateHistoryLimit
	}
	var rows []models.ExchangeRateModel
	if err := r.db.WithContext(ctx).
		Where("base_currency = ? AND target_currency = ?", base.String(), target.String()).
		Order("effective_at DESC, created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, translate("list rate history", err)
	}
	rates := make([]currency.ExchangeRate, len(rows))
	for i := range rows {
		rates[i] = *rows[i].ToDomain()
	}
	return rates, nil
}

var _ currency.RateRepository = (*GormRateRepository)(nil)
