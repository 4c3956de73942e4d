package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/domain/trade"
	"github.com/possuite/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRefundRepository implements trade.RefundRepository using GORM
type GormRefundRepository struct {
	db *gorm.DB
}

// NewGormRefundRepository creates a new GormRefundRepository
func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// Create inserts the refund header and its lines
func (r *GormRefundRepository) Create(ctx context.Context, refund *trade.Refund) error {
	model := models.RefundModelFromDomain(refund)
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return translate("create refund", err)
	}
	if len(model.Lines) > 0 {
		if err := db.Create(&model.Lines).Error; err != nil {
			return translate("create refund lines", err)
		}
	}
	return nil
}

// FindByIDForTenant loads a refund with its lines
func (r *GormRefundRepository) FindByIDForTenant(ctx context.Context, tenantID, refundID uuid.UUID) (*trade.Refund, error) {
	var model models.RefundModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		Where("tenant_id = ? AND id = ?", tenantID, refundID).
		Take(&model).Error; err != nil {
		return nil, notFound("find refund", err, shared.ErrRefundNotFound)
	}
	return model.ToDomain(), nil
}

// ListBySale returns a sale's refunds in refund-number order
func (r *GormRefundRepository) ListBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]trade.Refund, error) {
	var rows []models.RefundModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		Where("tenant_id = ? AND sale_id = ?", tenantID, saleID).
		Order("refund_number ASC").
		Find(&rows).Error; err != nil {
		return nil, translate("list refunds", err)
	}
	refunds := make([]trade.Refund, len(rows))
	for i := range rows {
		refunds[i] = *rows[i].ToDomain()
	}
	return refunds, nil
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

var _ trade.RefundRepository = (*GormRefundRepository)(nil)
