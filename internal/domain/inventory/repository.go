package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared"
)

// StockItemRepository persists stock items
type StockItemRepository interface {
	// FindByIDForTenant reads a stock item without locking.
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*StockItem, error)
	// LockForUpdate reads the rows for ids under exclusive row locks, in
	// ascending id order. A missing id yields shared.ErrProductNotFound.
	LockForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*StockItem, error)
	ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error)
	Create(ctx context.Context, item *StockItem) error
	// UpdateQuantity writes QuantityOnHand and Version.
	UpdateQuantity(ctx context.Context, item *StockItem) error
}

// StockMovementRepository appends to and reads the stock ledger
type StockMovementRepository interface {
	Append(ctx context.Context, movement *StockMovement) error
	ListByStockItem(ctx context.Context, tenantID, stockItemID uuid.UUID, filter shared.Filter) ([]StockMovement, int64, error)
	ListBySource(ctx context.Context, tenantID uuid.UUID, sourceType SourceType, sourceID uuid.UUID) ([]StockMovement, error)
}
