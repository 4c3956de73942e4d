package inventory

import (
	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// CreateStockItemRequest registers a product, optionally with opening stock.
type CreateStockItemRequest struct {
	TenantID        uuid.UUID       `json:"tenant_id" validate:"required"`
	UserID          uuid.UUID       `json:"user_id" validate:"required"`
	SKU             string          `json:"sku" validate:"required,max=100"`
	Name            string          `json:"name" validate:"required,max=200"`
	UnitPrice       decimal.Decimal `json:"unit_price" validate:"gte=0"`
	InitialQuantity int64           `json:"initial_quantity" validate:"gte=0"`
}

// AdjustStockRequest books a manual stock change.
type AdjustStockRequest struct {
	TenantID       uuid.UUID `json:"tenant_id" validate:"required"`
	UserID         uuid.UUID `json:"user_id" validate:"required"`
	StockItemID    uuid.UUID `json:"stock_item_id" validate:"required"`
	Type           string    `json:"type" validate:"required,oneof=restock adjustment damage"`
	QuantityChange int64     `json:"quantity_change" validate:"ne=0"`
	Reason         string    `json:"reason" validate:"max=500"`
}

// MovementListFilter pages through a stock item's ledger.
type MovementListFilter struct {
	Page     int `json:"page" validate:"gte=0"`
	PageSize int `json:"page_size" validate:"gte=0,lte=200"`
}

// restock and damage have a fixed sign; adjustment may go either way.
func (r AdjustStockRequest) delta() (int64, error) {
	q := r.QuantityChange
	switch inventory.MovementType(r.Type) {
	case inventory.MovementRestock:
		if q < 0 {
			return 0, errRestockSign
		}
	case inventory.MovementDamage:
		if q > 0 {
			q = -q
		}
	}
	return q, nil
}
