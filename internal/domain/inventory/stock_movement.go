package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared"
)

// MovementType is the business reason class of a stock change
type MovementType string

const (
	MovementSale       MovementType = "sale"
	MovementRefund     MovementType = "refund"
	MovementRestock    MovementType = "restock"
	MovementAdjustment MovementType = "adjustment"
	MovementDamage     MovementType = "damage"
)

// IsValid returns true if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementSale, MovementRefund, MovementRestock, MovementAdjustment, MovementDamage:
		return true
	}
	return false
}

// IsManual reports whether staff may book this type directly.
func (t MovementType) IsManual() bool {
	switch t {
	case MovementRestock, MovementAdjustment, MovementDamage:
		return true
	}
	return false
}

// SourceType identifies the document that caused a movement
type SourceType string

const (
	SourceSale   SourceType = "sale"
	SourceRefund SourceType = "refund"
	SourceManual SourceType = "manual"
)

// StockMovement is an immutable ledger row for one stock change. Previous
// and New always bracket QuantityChange.
type StockMovement struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	MovementNumber   int64
	StockItemID      uuid.UUID
	Type             MovementType
	QuantityChange   int64
	PreviousQuantity int64
	NewQuantity      int64
	Reason           string
	SourceType       SourceType
	SourceID         uuid.UUID
	UserID           uuid.UUID
	CreatedAt        time.Time
}

func newStockMovement(item *StockItem, change StockChange, previous, next int64) *StockMovement {
	return &StockMovement{
		ID:               uuid.New(),
		TenantID:         item.TenantID,
		MovementNumber:   change.MovementNumber,
		StockItemID:      item.ID,
		Type:             change.Type,
		QuantityChange:   change.Delta,
		PreviousQuantity: previous,
		NewQuantity:      next,
		Reason:           change.Reason,
		SourceType:       change.SourceType,
		SourceID:         change.SourceID,
		UserID:           change.UserID,
		CreatedAt:        time.Now(),
	}
}

// Validate checks the ledger invariant before the row is written.
func (m *StockMovement) Validate() error {
	if m.MovementNumber <= 0 {
		return shared.ErrInvalidInput.Newf("movement number must be assigned")
	}
	if m.PreviousQuantity+m.QuantityChange != m.NewQuantity {
		return shared.ErrInvalidInput.Newf("movement %d does not bracket its change", m.MovementNumber)
	}
	return nil
}
