package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/application/inventory"
	"github.com/possuite/backend/internal/application/sequence"
	"github.com/possuite/backend/internal/application/trade"
	"github.com/possuite/backend/internal/domain/identity"
	domaininventory "github.com/possuite/backend/internal/domain/inventory"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/possuite/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// sameCurrency answers 1 for identical codes and fails otherwise, so the
// sale tests never depend on stored rates.
type sameCurrency struct{}

func (sameCurrency) Rate(_ context.Context, base, target valueobject.Currency) (decimal.Decimal, error) {
	if base != target {
		return decimal.Zero, errNoRate
	}
	return decimal.NewFromInt(1), nil
}

var errNoRate = errors.New("no rate in sale fixture")

// posEnv wires the services over one migrated database.
type posEnv struct {
	db        *TestDB
	repos     *persistence.Repositories
	allocator *sequence.Allocator
	sales     *trade.SaleService
	refunds   *trade.RefundService
	stock     *inventory.StockService
	userID    uuid.UUID
}

func newPOSEnv(t *testing.T, tdb *TestDB, lockTimeout time.Duration) *posEnv {
	t.Helper()
	log := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
	repos := tdb.Repositories(lockTimeout)

	allocator := sequence.NewAllocator(repos.Counters, repos.Scope, sequence.Config{
		MaxAttempts:    10,
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
	}, log)

	return &posEnv{
		db:        tdb,
		repos:     repos,
		allocator: allocator,
		sales: trade.NewSaleService(repos.Tenants, repos.Sales, repos.Scope, allocator, sameCurrency{},
			trade.SaleConfig{ReportingCurrency: "USD", PaymentTolerance: decimal.RequireFromString("0.01")}, log),
		refunds: trade.NewRefundService(repos.Sales, repos.Refunds, repos.Scope, allocator, log),
		stock:   inventory.NewStockService(repos.StockItems, repos.StockMovements, repos.Scope, allocator, log),
		userID:  uuid.New(),
	}
}

// createTenant saves a USD tenant with a unique code.
func (e *posEnv) createTenant(t *testing.T) *identity.Tenant {
	t.Helper()
	ctx := context.Background()
	code := "T" + uuid.NewString()[:8]
	tenant, err := identity.NewTenant(code, "Store "+code, "USD")
	require.NoError(t, err)
	require.NoError(t, e.repos.Tenants.Save(ctx, tenant))
	require.NoError(t, e.allocator.EnsureCountersExist(ctx, tenant.ID))
	return tenant
}

func (e *posEnv) createStock(t *testing.T, tenantID uuid.UUID, sku string, qty int64, price string) *domaininventory.StockItem {
	t.Helper()
	item, err := e.stock.CreateStockItem(context.Background(), inventory.CreateStockItemRequest{
		TenantID:        tenantID,
		UserID:          e.userID,
		SKU:             sku,
		Name:            "Item " + sku,
		UnitPrice:       decimal.RequireFromString(price),
		InitialQuantity: qty,
	})
	require.NoError(t, err)
	return item
}

func (e *posEnv) onHand(t *testing.T, tenantID, itemID uuid.UUID) int64 {
	t.Helper()
	item, err := e.repos.StockItems.FindByIDForTenant(context.Background(), tenantID, itemID)
	require.NoError(t, err)
	return item.QuantityOnHand
}

// saleRequest builds a cash sale of qty units at price.
func (e *posEnv) saleRequest(tenantID, itemID uuid.UUID, qty int64, price string) trade.CreateSaleRequest {
	unit := decimal.RequireFromString(price)
	return trade.CreateSaleRequest{
		TenantID: tenantID,
		UserID:   e.userID,
		Lines:    []trade.SaleLineRequest{{StockItemID: itemID, Quantity: qty, UnitPrice: unit}},
		Payments: []trade.PaymentRequest{{Method: "cash", Amount: unit.Mul(decimal.NewFromInt(qty))}},
	}
}
