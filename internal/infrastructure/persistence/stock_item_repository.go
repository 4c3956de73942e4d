package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/inventory"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockItemRepository implements inventory.StockItemRepository using GORM
type GormStockItemRepository struct {
	db *gorm.DB
}

// NewGormStockItemRepository creates a new GormStockItemRepository
func NewGormStockItemRepository(db *gorm.DB) *GormStockItemRepository {
	return &GormStockItemRepository{db: db}
}

// FindByIDForTenant finds a stock item by ID within a tenant
func (r *GormStockItemRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.StockItem, error) {
	var model models.StockItemModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound("find stock item", err, shared.ErrProductNotFound)
	}
	return model.ToDomain(), nil
}

// LockForUpdate locks the rows in ascending id order so that concurrent
// postings touching overlapping items always queue in the same order.
func (r *GormStockItemRepository) LockForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*inventory.StockItem, error) {
	items := make(map[uuid.UUID]*inventory.StockItem, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	var rows []models.StockItemModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translate("lock stock items", err)
	}
	for i := range rows {
		items[rows[i].ID] = rows[i].ToDomain()
	}
	for _, id := range ids {
		if _, ok := items[id]; !ok {
			return nil, shared.ErrProductNotFound.Newf("stock item %s not found", id)
		}
	}
	return items, nil
}

// ExistsBySKU checks if a SKU is already taken within a tenant
func (r *GormStockItemRepository) ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StockItemModel{}).
		Where("tenant_id = ? AND sku = ?", tenantID, sku).
		Count(&count).Error; err != nil {
		return false, translate("check sku", err)
	}
	return count > 0, nil
}

// Create inserts a new stock item
func (r *GormStockItemRepository) Create(ctx context.Context, item *inventory.StockItem) error {
	err := r.db.WithContext(ctx).Create(models.StockItemModelFromDomain(item)).Error
	if IsUniqueViolation(err) {
		return shared.ErrDuplicateStockItem.Newf("SKU %q already exists", item.SKU)
	}
	return translate("create stock item", err)
}

// UpdateQuantity writes the on-hand quantity. The row must still carry the
// version the item was loaded with.
func (r *GormStockItemRepository) UpdateQuantity(ctx context.Context, item *inventory.StockItem) error {
	result := r.db.WithContext(ctx).
		Model(&models.StockItemModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", item.TenantID, item.ID, item.Version-1).
		Updates(map[string]any{
			"quantity_on_hand": item.QuantityOnHand,
			"version":          item.Version,
			"updated_at":       item.UpdatedAt,
		})
	if result.Error != nil {
		return translate("update stock quantity", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrency.Newf("stock item %s was modified concurrently", item.ID)
	}
	return nil
}

var _ inventory.StockItemRepository = (*GormStockItemRepository)(nil)
