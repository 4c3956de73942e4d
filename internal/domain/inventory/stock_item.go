package inventory

import (
	"strings"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StockItem is a sellable product with its on-hand quantity.
type StockItem struct {
	shared.TenantAggregateRoot
	ItemNumber     int64
	SKU            string
	Name           string
	UnitPrice      decimal.Decimal
	QuantityOnHand int64
}

// NewStockItem creates a stock item with zero quantity. Opening stock is
// booked separately through ApplyChange so that it gets a movement row.
func NewStockItem(tenantID uuid.UUID, itemNumber int64, sku, name string, unitPrice decimal.Decimal) (*StockItem, error) {
	if tenantID == uuid.Nil {
		return nil, shared.ErrInvalidInput.Newf("tenant ID cannot be empty")
	}
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.ErrInvalidInput.Newf("SKU cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.ErrInvalidInput.Newf("name cannot be empty")
	}
	if unitPrice.IsNegative() {
		return nil, shared.ErrInvalidInput.Newf("unit price cannot be negative")
	}
	if itemNumber <= 0 {
		return nil, shared.ErrInvalidInput.Newf("item number must be positive")
	}

	return &StockItem{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ItemNumber:          itemNumber,
		SKU:                 sku,
		Name:                name,
		UnitPrice:           unitPrice,
	}, nil
}

// CanFulfil reports whether qty units are on hand.
func (s *StockItem) CanFulfil(qty int64) bool {
	return qty <= s.QuantityOnHand
}

// ApplyChange mutates the on-hand quantity by delta and returns the single
// movement row describing it. The caller assigns the movement number.
func (s *StockItem) ApplyChange(change StockChange) (*StockMovement, error) {
	if change.Delta == 0 {
		return nil, shared.ErrInvalidInput.Newf("quantity change cannot be zero")
	}
	if !change.Type.IsValid() {
		return nil, shared.ErrInvalidInput.Newf("invalid movement type: %s", change.Type)
	}
	previous := s.QuantityOnHand
	next := previous + change.Delta
	if next < 0 {
		return nil, shared.ErrInsufficientStock.Newf(
			"insufficient stock for %s: requested %d, on hand %d", s.SKU, -change.Delta, previous)
	}

	s.QuantityOnHand = next
	s.IncrementVersion()

	return newStockMovement(s, change, previous, next), nil
}

// StockChange describes one quantity mutation.
type StockChange struct {
	Type           MovementType
	Delta          int64
	MovementNumber int64
	Reason         string
	SourceType     SourceType
	SourceID       uuid.UUID
	UserID         uuid.UUID
}
