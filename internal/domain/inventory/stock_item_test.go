package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestItem(t *testing.T, onHand int64) *StockItem {
	t.Helper()
	item, err := NewStockItem(uuid.New(), 1, "SKU-1", "Widget", decimal.NewFromInt(10))
	require.NoError(t, err)
	item.QuantityOnHand = onHand
	return item
}

func TestNewStockItem(t *testing.T) {
	t.Run("creates item with zero stock", func(t *testing.T) {
		item, err := NewStockItem(uuid.New(), 7, " SKU-7 ", "Widget", decimal.NewFromInt(3))
		require.NoError(t, err)
		assert.Equal(t, "SKU-7", item.SKU)
		assert.Equal(t, int64(0), item.QuantityOnHand)
		assert.Equal(t, 1, item.Version)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		tenantID := uuid.New()
		cases := []struct {
			name   string
			tenant uuid.UUID
			number int64
			sku    string
			price  decimal.Decimal
		}{
			{"nil tenant", uuid.Nil, 1, "A", decimal.Zero},
			{"blank sku", tenantID, 1, "  ", decimal.Zero},
			{"negative price", tenantID, 1, "A", decimal.NewFromInt(-1)},
			{"unassigned number", tenantID, 0, "A", decimal.Zero},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewStockItem(tc.tenant, tc.number, tc.sku, "Widget", tc.price)
				assert.True(t, shared.IsKind(err, shared.KindValidation))
			})
		}
	})
}

func TestStockItem_ApplyChange(t *testing.T) {
	t.Run("decrement records bracketing movement", func(t *testing.T) {
		item := newTestItem(t, 5)
		m, err := item.ApplyChange(StockChange{
			Type:           MovementSale,
			Delta:          -2,
			MovementNumber: 3,
			Reason:         "Sale #1",
			SourceType:     SourceSale,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), item.QuantityOnHand)
		assert.Equal(t, int64(5), m.PreviousQuantity)
		assert.Equal(t, int64(3), m.NewQuantity)
		assert.Equal(t, int64(-2), m.QuantityChange)
		assert.Equal(t, item.ID, m.StockItemID)
		assert.Equal(t, item.TenantID, m.TenantID)
		assert.NoError(t, m.Validate())
		assert.Equal(t, 2, item.Version)
	})

	t.Run("refuses to go negative", func(t *testing.T) {
		item := newTestItem(t, 1)
		_, err := item.ApplyChange(StockChange{Type: MovementSale, Delta: -2, MovementNumber: 1})
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, int64(1), item.QuantityOnHand)
		assert.Equal(t, 1, item.Version)
	})

	t.Run("rejects zero delta and unknown type", func(t *testing.T) {
		item := newTestItem(t, 1)
		_, err := item.ApplyChange(StockChange{Type: MovementRestock, Delta: 0})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = item.ApplyChange(StockChange{Type: "gift", Delta: 1})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestStockMovement_Validate(t *testing.T) {
	m := &StockMovement{MovementNumber: 0, PreviousQuantity: 1, QuantityChange: 1, NewQuantity: 2}
	assert.Error(t, m.Validate())

	m.MovementNumber = 1
	m.NewQuantity = 3
	assert.Error(t, m.Validate())
}

func TestMovementType(t *testing.T) {
	assert.True(t, MovementRestock.IsManual())
	assert.True(t, MovementDamage.IsManual())
	assert.False(t, MovementSale.IsManual())
	assert.False(t, MovementType("transfer").IsValid())
}
