package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/inventory"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockMovementRepository implements inventory.StockMovementRepository using GORM
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Append inserts a movement. Movements are never updated.
func (r *GormStockMovementRepository) Append(ctx context.Context, movement *inventory.StockMovement) error {
	return translate("append stock movement", r.db.WithContext(ctx).Create(models.StockMovementModelFromDomain(movement)).Error)
}

// ListByStockItem pages through an item's movements, newest first
func (r *GormStockMovementRepository) ListByStockItem(ctx context.Context, tenantID, stockItemID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Where("tenant_id = ? AND stock_item_id = ?", tenantID, stockItemID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate("count stock movements", err)
	}

	var rows []models.StockMovementModel
	if err := query.
		Order(orderClause("", StockMovementSortFields, "movement_number", filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, translate("list stock movements", err)
	}
	return movementsToDomain(rows), total, nil
}

// ListBySource returns the movements written by one sale or refund
func (r *GormStockMovementRepository) ListBySource(ctx context.Context, tenantID uuid.UUID, sourceType inventory.SourceType, sourceID uuid.UUID) ([]inventory.StockMovement, error) {
	var rows []models.StockMovementModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_type = ? AND source_id = ?", tenantID, string(sourceType), sourceID).
		Order("movement_number ASC").
		Find(&rows).Error; err != nil {
		return nil, translate("list stock movements by source", err)
	}
	return movementsToDomain(rows), nil
}

func movementsToDomain(rows []models.StockMovementModel) []inventory.StockMovement {
	out := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
