package trade

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/inventory"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkout sells 3 rice at 250 and 2 soap at 80 with 16% tax.
func (f *posFixture) checkout(t *testing.T) *trade.Sale {
	t.Helper()
	sale, err := f.sales.CreateSale(context.Background(), CreateSaleRequest{
		TenantID: f.tenant.ID,
		UserID:   f.userID,
		Lines: []SaleLineRequest{
			{StockItemID: f.rice.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(250)},
			{StockItemID: f.soap.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(80)},
		},
		Payments:       []PaymentRequest{cash("1055.60")},
		TaxRatePercent: decimal.NewFromInt(16),
	})
	require.NoError(t, err)
	return sale
}

func TestRefundService_ProcessRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("partial refund restocks and prices from the sale snapshot", func(t *testing.T) {
		f := newPOSFixture(t)
		f.kesToUSD("0.0075")
		sale := f.checkout(t)
		require.Equal(t, int64(7), f.onHand(t, f.rice.ID))

		refund, err := f.refunds.ProcessRefund(ctx, ProcessRefundRequest{
			TenantID: f.tenant.ID,
			UserID:   f.userID,
			SaleID:   sale.ID,
			Lines:    []RefundLineRequest{{SaleLineItemID: sale.Lines[0].ID, Quantity: 1}},
			Reason:   "torn bag",
		})
		require.NoError(t, err)

		assert.Equal(t, int64(1), refund.RefundNumber)
		assert.Equal(t, int64(1), refund.SaleNumber)
		assert.Equal(t, "250", refund.Subtotal.String())
		assert.Equal(t, "40", refund.TaxAmount.String())
		assert.Equal(t, "290", refund.Total.String())
		assert.True(t, refund.ExchangeRate.Equal(sale.ExchangeRate))
		assert.Equal(t, "2.18", refund.ReportingTotal.String())

		assert.Equal(t, int64(8), f.onHand(t, f.rice.ID))

		stored, err := f.sales.GetSale(ctx, f.tenant.ID, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.SaleStatusPartiallyRefunded, stored.Status)
		assert.Equal(t, int64(1), stored.Lines[0].RefundedQuantity)

		moves, err := f.repos.StockMovements.ListBySource(ctx, f.tenant.ID, inventory.SourceRefund, refund.ID)
		require.NoError(t, err)
		require.Len(t, moves, 1)
		assert.Equal(t, inventory.MovementRefund, moves[0].Type)
		assert.Equal(t, int64(1), moves[0].QuantityChange)
		assert.Equal(t, "Refund #1 for Sale #1", moves[0].Reason)
		assert.Equal(t, int64(3), moves[0].MovementNumber, "sale used movements 1 and 2")
	})

	t.Run("refunding every unit marks the sale refunded", func(t *testing.T) {
		f := newPOSFixture(t)
		f.kesToUSD("0.0075")
		sale := f.checkout(t)

		_, err := f.refunds.ProcessRefund(ctx, ProcessRefundRequest{
			TenantID: f.tenant.ID,
			UserID:   f.userID,
			SaleID:   sale.ID,
			Lines:    []RefundLineRequest{{SaleLineItemID: sale.Lines[0].ID, Quantity: 2}},
		})
		require.NoError(t, err)

		second, err := f.refunds.ProcessRefund(ctx, ProcessRefundRequest{
			TenantID: f.tenant.ID,
			UserID:   f.userID,
			SaleID:   sale.ID,
			Lines: []RefundLineRequest{
				{SaleLineItemID: sale.Lines[0].ID, Quantity: 1},
				{SaleLineItemID: sale.Lines[1].ID, Quantity: 2},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), second.RefundNumber)

		stored, err := f.sales.GetSale(ctx, f.tenant.ID, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.SaleStatusRefunded, stored.Status)
		assert.Equal(t, int64(10), f.onHand(t, f.rice.ID))
		assert.Equal(t, int64(5), f.onHand(t, f.soap.ID))

		refunds, err := f.refunds.ListRefundsForSale(ctx, f.tenant.ID, sale.ID)
		require.NoError(t, err)
		assert.Len(t, refunds, 2)
	})

	t.Run("rejects over-refund and leaves everything untouched", func(t *testing.T) {
		f := newPOSFixture(t)
		f.kesToUSD("0.0075")
		sale := f.checkout(t)

		_, err := f.refunds.ProcessRefund(ctx, ProcessRefundRequest{
			TenantID: f.tenant.ID,
			UserID:   f.userID,
			SaleID:   sale.ID,
			Lines: []RefundLineRequest{
				{SaleLineItemID: sale.Lines[1].ID, Quantity: 1},
				{SaleLineItemID: sale.Lines[1].ID, Quantity: 2},
			},
		})
		assert.ErrorIs(t, err, shared.ErrOverRefund)

		stored, err := f.sales.GetSale(ctx, f.tenant.ID, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.SaleStatusCompleted, stored.Status)
		assert.Equal(t, int64(0), stored.Lines[1].RefundedQuantity)
		assert.Equal(t, int64(3), f.onHand(t, f.soap.ID))
	})

	t.Run("rejects a line from another sale", func(t *testing.T) {
		f := newPOSFixture(t)
		f.kesToUSD("0.0075")
		first := f.checkout(t)
		second := f.checkout(t)

		_, err := f.refunds.ProcessRefund(ctx, ProcessRefundRequest{
			TenantID: f.tenant.ID,
			UserID:   f.userID,
			SaleID:   first.ID,
			Lines:    []RefundLineRequest{{SaleLineItemID: second.Lines[0].ID, Quantity: 1}},
		})
		assert.ErrorIs(t, err, shared.ErrInvalidRefundLine)
	})

	t.Run("sale of another tenant is not found", func(t *testing.T) {
		f := newPOSFixture(t)
		f.kesToUSD("0.0075")
		sale := f.checkout(t)

		_, err := f.refunds.ProcessRefund(ctx, ProcessRefundRequest{
			TenantID: uuid.New(),
			UserID:   f.userID,
			SaleID:   sale.ID,
			Lines:    []RefundLineRequest{{SaleLineItemID: sale.Lines[0].ID, Quantity: 1}},
		})
		assert.ErrorIs(t, err, shared.ErrSaleNotFound)
	})

	t.Run("concurrent refunds never exceed the sold quantity", func(t *testing.T) {
		f := newPOSFixture(t)
		f.kesToUSD("0.0075")
		sale := f.checkout(t)

		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.refunds.ProcessRefund(ctx, ProcessRefundRequest{
					TenantID: f.tenant.ID,
					UserID:   f.userID,
					SaleID:   sale.ID,
					Lines:    []RefundLineRequest{{SaleLineItemID: sale.Lines[0].ID, Quantity: 1}},
				})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, shared.ErrOverRefund)
		}
		assert.Equal(t, 3, succeeded)
		assert.Equal(t, int64(10), f.onHand(t, f.rice.ID))
	})
}
