package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/identity"
	"github.com/possuite/backend/internal/domain/inventory"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/possuite/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// NewTenant builds an unsaved active tenant.
func NewTenant(t *testing.T, code string, cur valueobject.Currency) *identity.Tenant {
	t.Helper()
	tenant, err := identity.NewTenant(code, code+" Store", cur)
	require.NoError(t, err)
	return tenant
}

// NewStockItem builds an unsaved stock item priced at 100 with qty on hand.
func NewStockItem(t *testing.T, tenantID uuid.UUID, number int64, sku string, qty int64) *inventory.StockItem {
	t.Helper()
	item, err := inventory.NewStockItem(tenantID, number, sku, "Item "+sku, decimal.NewFromInt(100))
	require.NoError(t, err)
	item.QuantityOnHand = qty
	return item
}

// KESRate is the KES→USD snapshot used by NewSale.
var KESRate = decimal.RequireFromString("0.0075")

// NewSale builds an unsaved tax-free KES sale reported in USD at KESRate
// and paid exactly in cash.
func NewSale(t *testing.T, tenantID uuid.UUID, number int64, lines ...trade.LineInput) *trade.Sale {
	t.Helper()
	quote, err := trade.NewQuote("KES", "USD", KESRate, decimal.Zero, lines)
	require.NoError(t, err)
	sale, err := trade.NewSale(tenantID, TestUserID(), number, quote, []trade.PaymentInput{
		{Method: trade.PaymentCash, Amount: quote.Total},
	})
	require.NoError(t, err)
	return sale
}
