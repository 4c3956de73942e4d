package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormSaleRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormSaleRepository(db)
	tenant := seedTenant(t, db, "SALES", "KES")
	soap := seedStockItem(t, db, tenant.ID, 1, "SOAP", 10)
	rice := seedStockItem(t, db, tenant.ID, 2, "RICE", 10)

	sale := newTestSale(t, tenant.ID, 1,
		trade.LineInput{StockItemID: rice.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(250)},
		trade.LineInput{StockItemID: soap.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(80)},
	)
	require.NoError(t, repo.Create(ctx, sale))

	t.Run("round trips header lines and payments", func(t *testing.T) {
		got, err := repo.FindByIDForTenant(ctx, tenant.ID, sale.ID)
		require.NoError(t, err)

		assert.Equal(t, int64(1), got.SaleNumber)
		assert.Equal(t, trade.SaleStatusCompleted, got.Status)
		assert.Equal(t, "KES", got.Currency.String())
		assert.Equal(t, "USD", got.ReportingCurrency.String())
		assert.True(t, got.Total.Equal(decimal.NewFromInt(580)), got.Total.String())
		assert.True(t, got.ReportingTotal.Equal(sale.ReportingTotal), got.ReportingTotal.String())

		require.Len(t, got.Lines, 2)
		assert.Equal(t, rice.ID, got.Lines[0].StockItemID, "lines keep entry order")
		assert.Equal(t, soap.ID, got.Lines[1].StockItemID)
		require.Len(t, got.Payments, 1)
		assert.Equal(t, trade.PaymentCash, got.Payments[0].Method)
	})

	t.Run("other tenants cannot see the sale", func(t *testing.T) {
		_, err := repo.FindByIDForTenant(ctx, uuid.New(), sale.ID)
		assert.ErrorIs(t, err, shared.ErrSaleNotFound)

		_, err = repo.LockForUpdate(ctx, uuid.New(), sale.ID)
		assert.ErrorIs(t, err, shared.ErrSaleNotFound)
	})

	t.Run("saves refund state", func(t *testing.T) {
		locked, err := repo.LockForUpdate(ctx, tenant.ID, sale.ID)
		require.NoError(t, err)
		require.Len(t, locked.Lines, 2)

		require.NoError(t, locked.Lines[0].AddRefunded(1))
		locked.RefreshStatus()
		require.NoError(t, repo.SaveRefundState(ctx, locked))

		got, err := repo.FindByIDForTenant(ctx, tenant.ID, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.SaleStatusPartiallyRefunded, got.Status)
		assert.Equal(t, int64(1), got.Lines[0].RefundedQuantity)
		assert.Equal(t, int64(0), got.Lines[1].RefundedQuantity)
	})

	t.Run("duplicate sale number conflicts", func(t *testing.T) {
		dup := newTestSale(t, tenant.ID, 1,
			trade.LineInput{StockItemID: soap.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(80)})
		err := repo.Create(ctx, dup)
		assert.True(t, shared.IsKind(err, shared.KindConflict), "got %v", err)
	})
}

func TestGormSaleRepository_List(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormSaleRepository(db)
	tenant := seedTenant(t, db, "LIST", "KES")
	item := seedStockItem(t, db, tenant.ID, 1, "PEN", 100)

	for n := int64(1); n <= 3; n++ {
		sale := newTestSale(t, tenant.ID, n,
			trade.LineInput{StockItemID: item.ID, Quantity: n, UnitPrice: decimal.NewFromInt(10)})
		require.NoError(t, repo.Create(ctx, sale))
	}
	refunded := newTestSale(t, tenant.ID, 4,
		trade.LineInput{StockItemID: item.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(10)})
	refunded.Status = trade.SaleStatusRefunded
	require.NoError(t, repo.Create(ctx, refunded))

	t.Run("newest first by default", func(t *testing.T) {
		sales, total, err := repo.List(ctx, tenant.ID, trade.SaleFilter{Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, sales, 4)
		assert.Equal(t, int64(4), sales[0].SaleNumber)
		assert.Len(t, sales[3].Lines, 1)
	})

	t.Run("filters by status", func(t *testing.T) {
		sales, total, err := repo.List(ctx, tenant.ID, trade.SaleFilter{
			Filter: shared.DefaultFilter(),
			Status: trade.SaleStatusRefunded,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, sales, 1)
		assert.Equal(t, int64(4), sales[0].SaleNumber)
	})

	t.Run("pages ascending", func(t *testing.T) {
		sales, total, err := repo.List(ctx, tenant.ID, trade.SaleFilter{
			Filter: shared.Filter{Page: 2, PageSize: 3, OrderDir: "asc"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, sales, 1)
		assert.Equal(t, int64(4), sales[0].SaleNumber)
	})

	t.Run("sorts by a whitelisted column", func(t *testing.T) {
		sales, _, err := repo.List(ctx, tenant.ID, trade.SaleFilter{
			Filter: shared.Filter{Page: 1, PageSize: 10, OrderDir: "desc"},
			SortBy: "total_amount",
		})
		require.NoError(t, err)
		require.Len(t, sales, 4)
		assert.Equal(t, int64(3), sales[0].SaleNumber)
		assert.Equal(t, int64(2), sales[1].SaleNumber)
	})

	t.Run("unknown sort column falls back to sale number", func(t *testing.T) {
		sales, _, err := repo.List(ctx, tenant.ID, trade.SaleFilter{
			Filter: shared.Filter{Page: 1, PageSize: 10, OrderDir: "asc"},
			SortBy: "tax_rate; DROP TABLE sales",
		})
		require.NoError(t, err)
		require.Len(t, sales, 4)
		assert.Equal(t, int64(1), sales[0].SaleNumber)
	})

	t.Run("date window excludes everything in the future", func(t *testing.T) {
		from := time.Now().Add(time.Hour)
		sales, total, err := repo.List(ctx, tenant.ID, trade.SaleFilter{Filter: shared.DefaultFilter(), From: &from})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, sales)
	})
}

func TestGormRefundRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	sales := NewGormSaleRepository(db)
	repo := NewGormRefundRepository(db)
	tenant := seedTenant(t, db, "REFUNDS", "KES")
	item := seedStockItem(t, db, tenant.ID, 1, "MUG", 10)

	sale := newTestSale(t, tenant.ID, 7,
		trade.LineInput{StockItemID: item.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(400)})
	require.NoError(t, sales.Create(ctx, sale))

	var prior []trade.Refund
	for n := int64(1); n <= 2; n++ {
		plans, err := sale.PlanRefund([]trade.RefundLineRequest{{SaleLineItemID: sale.Lines[0].ID, Quantity: 1}})
		require.NoError(t, err)
		refund, err := trade.NewRefund(sale, prior, n, uuid.New(), "damaged", plans)
		require.NoError(t, err)
		require.NoError(t, plans[0].Line.AddRefunded(1))
		require.NoError(t, repo.Create(ctx, refund))
		prior = append(prior, *refund)
	}

	t.Run("lists a sale's refunds in number order", func(t *testing.T) {
		refunds, err := repo.ListBySale(ctx, tenant.ID, sale.ID)
		require.NoError(t, err)
		require.Len(t, refunds, 2)
		assert.Equal(t, int64(1), refunds[0].RefundNumber)
		assert.Equal(t, int64(7), refunds[0].SaleNumber)
		require.Len(t, refunds[0].Lines, 1)
		assert.True(t, refunds[0].Total.Equal(decimal.NewFromInt(400)))
	})

	t.Run("finds one refund", func(t *testing.T) {
		refunds, err := repo.ListBySale(ctx, tenant.ID, sale.ID)
		require.NoError(t, err)

		got, err := repo.FindByIDForTenant(ctx, tenant.ID, refunds[1].ID)
		require.NoError(t, err)
		assert.Equal(t, "damaged", got.Reason)
		assert.Equal(t, sale.Lines[0].ID, got.Lines[0].SaleLineItemID)

		_, err = repo.FindByIDForTenant(ctx, uuid.New(), refunds[1].ID)
		assert.ErrorIs(t, err, shared.ErrRefundNotFound)
	})
}
