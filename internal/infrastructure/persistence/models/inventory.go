package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/inventory"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StockItemModel is the persistence model for the StockItem aggregate root.
type StockItemModel struct {
	BaseModel
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_items_number,priority:1;uniqueIndex:idx_stock_items_sku,priority:1"`
	ItemNumber     int64           `gorm:"not null;uniqueIndex:idx_stock_items_number,priority:2"`
	SKU            string          `gorm:"column:sku;type:varchar(100);not null;uniqueIndex:idx_stock_items_sku,priority:2"`
	Name           string          `gorm:"type:varchar(200);not null"`
	UnitPrice      decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	QuantityOnHand int64           `gorm:"not null;default:0;check:quantity_on_hand >= 0"`
	Version        int             `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (StockItemModel) TableName() string {
	return "stock_items"
}

// ToDomain converts the persistence model to a domain StockItem.
func (m *StockItemModel) ToDomain() *inventory.StockItem {
	return &inventory.StockItem{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			TenantEntity: m.BaseModel.tenantEntity(m.TenantID),
			Version:      m.Version,
		},
		ItemNumber:     m.ItemNumber,
		SKU:            m.SKU,
		Name:           m.Name,
		UnitPrice:      m.UnitPrice,
		QuantityOnHand: m.QuantityOnHand,
	}
}

// StockItemModelFromDomain creates a persistence model from a domain StockItem.
func StockItemModelFromDomain(s *inventory.StockItem) *StockItemModel {
	m := &StockItemModel{
		TenantID:       s.TenantID,
		ItemNumber:     s.ItemNumber,
		SKU:            s.SKU,
		Name:           s.Name,
		UnitPrice:      s.UnitPrice,
		QuantityOnHand: s.QuantityOnHand,
		Version:        s.Version,
	}
	m.BaseModel = baseModelOf(s.BaseEntity)
	return m
}

// StockMovementModel is an append-only stock ledger row.
type StockMovementModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_movements_number,priority:1;index:idx_stock_movements_item,priority:1;index:idx_stock_movements_source,priority:1"`
	MovementNumber   int64     `gorm:"not null;uniqueIndex:idx_stock_movements_number,priority:2"`
	StockItemID      uuid.UUID `gorm:"type:uuid;not null;index:idx_stock_movements_item,priority:2"`
	MovementType     string    `gorm:"type:varchar(20);not null"`
	QuantityChange   int64     `gorm:"not null"`
	PreviousQuantity int64     `gorm:"not null"`
	NewQuantity      int64     `gorm:"not null"`
	Reason           string    `gorm:"type:varchar(500)"`
	SourceType       string    `gorm:"type:varchar(20);not null;index:idx_stock_movements_source,priority:2"`
	SourceID         uuid.UUID `gorm:"type:uuid;index:idx_stock_movements_source,priority:3"`
	UserID           uuid.UUID `gorm:"type:uuid"`
	CreatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		ID:               m.ID,
		TenantID:         m.TenantID,
		MovementNumber:   m.MovementNumber,
		StockItemID:      m.StockItemID,
		Type:             inventory.MovementType(m.MovementType),
		QuantityChange:   m.QuantityChange,
		PreviousQuantity: m.PreviousQuantity,
		NewQuantity:      m.NewQuantity,
		Reason:           m.Reason,
		SourceType:       inventory.SourceType(m.SourceType),
		SourceID:         m.SourceID,
		UserID:           m.UserID,
		CreatedAt:        m.CreatedAt,
	}
}

// StockMovementModelFromDomain creates a persistence model from a domain StockMovement.
func StockMovementModelFromDomain(mv *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:               mv.ID,
		TenantID:         mv.TenantID,
		MovementNumber:   mv.MovementNumber,
		StockItemID:      mv.StockItemID,
		MovementType:     string(mv.Type),
		QuantityChange:   mv.QuantityChange,
		PreviousQuantity: mv.PreviousQuantity,
		NewQuantity:      mv.NewQuantity,
		Reason:           mv.Reason,
		SourceType:       string(mv.SourceType),
		SourceID:         mv.SourceID,
		UserID:           mv.UserID,
		CreatedAt:        mv.CreatedAt,
	}
}
