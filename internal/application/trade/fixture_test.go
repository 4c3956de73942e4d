package trade

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appsequence "github.com/possuite/backend/internal/application/sequence"
	"github.com/possuite/backend/internal/domain/identity"
	"github.com/possuite/backend/internal/domain/inventory"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/possuite/backend/internal/infrastructure/persistence"
	"github.com/possuite/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap/zaptest"
)

// MockRateProvider is a mock implementation of RateProvider
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) Rate(ctx context.Context, base, target valueobject.Currency) (decimal.Decimal, error) {
	args := m.Called(ctx, base, target)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// posFixture is a migrated SQLite store with one KES tenant and two
// stocked items, wired to real services.
type posFixture struct {
	repos   *persistence.Repositories
	rates   *MockRateProvider
	sales   *SaleService
	refunds *RefundService
	tenant  *identity.Tenant
	userID  uuid.UUID
	rice    *inventory.StockItem
	soap    *inventory.StockItem
}

func newPOSFixture(t *testing.T) *posFixture {
	t.Helper()
	ctx := context.Background()

	db, err := persistence.NewSQLiteMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := zaptest.NewLogger(t)
	repos := db.NewRepositories(time.Second)
	metrics, err := telemetry.NewPOSMetrics(telemetry.POSMetricsConfig{Meter: noop.NewMeterProvider().Meter("test")})
	require.NoError(t, err)

	allocator := appsequence.NewAllocator(repos.Counters, repos.Scope, appsequence.Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}, logger)
	allocator.SetMetrics(metrics)

	tenant, err := identity.NewTenant("NAIROBI", "Nairobi Store", "KES")
	require.NoError(t, err)
	require.NoError(t, repos.Tenants.Save(ctx, tenant))

	f := &posFixture{
		repos:  repos,
		rates:  new(MockRateProvider),
		tenant: tenant,
		userID: uuid.New(),
	}
	f.rice = f.stock(t, 1, "RICE-2KG", 10)
	f.soap = f.stock(t, 2, "SOAP-BAR", 5)

	f.sales = NewSaleService(repos.Tenants, repos.Sales, repos.Scope, allocator, f.rates, SaleConfig{
		ReportingCurrency: "USD",
		PaymentTolerance:  decimal.RequireFromString("0.01"),
	}, logger)
	f.sales.SetMetrics(metrics)
	f.refunds = NewRefundService(repos.Sales, repos.Refunds, repos.Scope, allocator, logger)
	f.refunds.SetMetrics(metrics)
	return f
}

func (f *posFixture) stock(t *testing.T, number int64, sku string, qty int64) *inventory.StockItem {
	t.Helper()
	item, err := inventory.NewStockItem(f.tenant.ID, number, sku, sku, decimal.NewFromInt(100))
	require.NoError(t, err)
	item.QuantityOnHand = qty
	require.NoError(t, f.repos.StockItems.Create(context.Background(), item))
	return item
}

func (f *posFixture) onHand(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	item, err := f.repos.StockItems.FindByIDForTenant(context.Background(), f.tenant.ID, id)
	require.NoError(t, err)
	return item.QuantityOnHand
}

// kesToUSD stubs the KES→USD rate used by every checkout.
func (f *posFixture) kesToUSD(rate string) {
	f.rates.On("Rate", mock.Anything, valueobject.Currency("KES"), valueobject.Currency("USD")).
		Return(decimal.RequireFromString(rate), nil)
}

func cash(amount string) PaymentRequest {
	return PaymentRequest{Method: "cash", Amount: decimal.RequireFromString(amount)}
}
