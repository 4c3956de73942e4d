package trade

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// RefundStatus represents the status of a refund
type RefundStatus string

const RefundStatusProcessed RefundStatus = "processed"

// Refund reverses some quantity of a sale's lines. Currency and rate are
// copied from the sale so the refund mirrors the original breakdown.
type Refund struct {
	shared.TenantEntity
	RefundNumber int64
	SaleID       uuid.UUID
	SaleNumber   int64
	UserID       uuid.UUID
	Reason       string
	Status       RefundStatus

	Currency  valueobject.Currency
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal

	ReportingCurrency  valueobject.Currency
	ReportingSubtotal  decimal.Decimal
	ReportingTaxAmount decimal.Decimal
	ReportingTotal     decimal.Decimal

	ExchangeRate decimal.Decimal

	Lines []RefundLineItem
}

// RefundLineItem is the refunded quantity of one sale line
type RefundLineItem struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	RefundID           uuid.UUID
	SaleLineItemID     uuid.UUID
	StockItemID        uuid.UUID
	Quantity           int64
	UnitPrice          decimal.Decimal
	Subtotal           decimal.Decimal
	ReportingUnitPrice decimal.Decimal
	ReportingSubtotal  decimal.Decimal
}

// RefundLineRequest asks to refund Quantity units of a sale line
type RefundLineRequest struct {
	SaleLineItemID uuid.UUID
	Quantity       int64
}

// RefundPlan is a validated refund line bound to its sale line
type RefundPlan struct {
	Line     *SaleLineItem
	Quantity int64
}

// PlanRefund validates requests against the sale's lines. Repeated line IDs
// are merged before the remaining-quantity check. Plans come back in the
// sale's line order.
func (s *Sale) PlanRefund(requests []RefundLineRequest) ([]RefundPlan, error) {
	if len(requests) == 0 {
		return nil, shared.ErrInvalidInput.Newf("refund must have at least one line")
	}
	wanted := make(map[uuid.UUID]int64, len(requests))
	for _, r := range requests {
		if r.Quantity <= 0 {
			return nil, shared.ErrInvalidInput.Newf("refund quantity must be positive")
		}
		if _, ok := s.FindLine(r.SaleLineItemID); !ok {
			return nil, shared.ErrInvalidRefundLine.Newf(
				"sale line %s not found in sale #%d", r.SaleLineItemID, s.SaleNumber)
		}
		wanted[r.SaleLineItemID] += r.Quantity
	}

	plans := make([]RefundPlan, 0, len(wanted))
	for i := range s.Lines {
		line := &s.Lines[i]
		qty, ok := wanted[line.ID]
		if !ok {
			continue
		}
		if qty > line.Refundable() {
			return nil, shared.ErrOverRefund.Newf(
				"cannot refund %d units of line %s: only %d refundable", qty, line.ID, line.Refundable())
		}
		plans = append(plans, RefundPlan{Line: line, Quantity: qty})
	}
	return plans, nil
}

// NewRefund prices plans from each line's original unit price and the
// sale's rate snapshot. Tax is refunded at the sale's tax rate on the
// refunded subtotal. prior holds the sale's earlier refunds: every amount is
// capped at what is still unrefunded, and the refund that empties a line (or
// the sale) returns the exact remainder, so refunds never sum past the sale.
func NewRefund(sale *Sale, prior []Refund, refundNumber int64, userID uuid.UUID, reason string, plans []RefundPlan) (*Refund, error) {
	if refundNumber <= 0 {
		return nil, shared.ErrInvalidInput.Newf("refund number must be positive")
	}
	if len(plans) == 0 {
		return nil, shared.ErrInvalidInput.Newf("refund must have at least one line")
	}

	r := &Refund{
		TenantEntity:      shared.NewTenantEntity(sale.TenantID),
		RefundNumber:      refundNumber,
		SaleID:            sale.ID,
		SaleNumber:        sale.SaleNumber,
		UserID:            userID,
		Reason:            reason,
		Status:            RefundStatusProcessed,
		Currency:          sale.Currency,
		ReportingCurrency: sale.ReportingCurrency,
		ExchangeRate:      sale.ExchangeRate,
		Subtotal:          decimal.Zero,
		ReportingSubtotal: decimal.Zero,
	}

	done := sumRefunds(prior)
	planned := make(map[uuid.UUID]int64, len(plans))
	for _, p := range plans {
		planned[p.Line.ID] += p.Quantity
		closing := p.Quantity >= p.Line.Refundable()
		before := done.lines[p.Line.ID]

		subtotal := valueobject.MustMoney(p.Line.UnitPrice, sale.Currency).MultiplyByInt(p.Quantity)
		lineSubtotal := boundedShare(subtotal.Amount(), p.Line.Subtotal.Sub(before.subtotal), closing)
		lineReporting := boundedShare(
			subtotal.Convert(p.Line.ExchangeRate, sale.ReportingCurrency).Amount(),
			p.Line.ReportingSubtotal.Sub(before.reporting),
			closing,
		)

		r.Lines = append(r.Lines, RefundLineItem{
			ID:                 uuid.New(),
			TenantID:           sale.TenantID,
			RefundID:           r.ID,
			SaleLineItemID:     p.Line.ID,
			StockItemID:        p.Line.StockItemID,
			Quantity:           p.Quantity,
			UnitPrice:          p.Line.UnitPrice,
			Subtotal:           lineSubtotal,
			ReportingUnitPrice: p.Line.ReportingUnitPrice,
			ReportingSubtotal:  lineReporting,
		})
		r.Subtotal = r.Subtotal.Add(lineSubtotal)
		r.ReportingSubtotal = r.ReportingSubtotal.Add(lineReporting)
	}

	closesSale := true
	for i := range sale.Lines {
		if sale.Lines[i].Refundable() > planned[sale.Lines[i].ID] {
			closesSale = false
			break
		}
	}

	tax := valueobject.MustMoney(r.Subtotal, sale.Currency).Percentage(sale.TaxRate)
	r.TaxAmount = boundedShare(tax.Amount(), sale.TaxAmount.Sub(done.tax), closesSale)
	r.ReportingTaxAmount = boundedShare(
		valueobject.MustMoney(r.TaxAmount, sale.Currency).Convert(sale.ExchangeRate, sale.ReportingCurrency).Amount(),
		sale.ReportingTaxAmount.Sub(done.reportingTax),
		closesSale,
	)
	r.Total = r.Subtotal.Add(r.TaxAmount)
	r.ReportingTotal = r.ReportingSubtotal.Add(r.ReportingTaxAmount)

	return r, nil
}

type lineRefunded struct {
	subtotal  decimal.Decimal
	reporting decimal.Decimal
}

type refundedSoFar struct {
	lines        map[uuid.UUID]lineRefunded
	tax          decimal.Decimal
	reportingTax decimal.Decimal
}

func sumRefunds(prior []Refund) refundedSoFar {
	out := refundedSoFar{lines: make(map[uuid.UUID]lineRefunded)}
	for _, r := range prior {
		out.tax = out.tax.Add(r.TaxAmount)
		out.reportingTax = out.reportingTax.Add(r.ReportingTaxAmount)
		for _, l := range r.Lines {
			acc := out.lines[l.SaleLineItemID]
			acc.subtotal = acc.subtotal.Add(l.Subtotal)
			acc.reporting = acc.reporting.Add(l.ReportingSubtotal)
			out.lines[l.SaleLineItemID] = acc
		}
	}
	return out
}

// boundedShare caps amount at remaining. A closing refund takes remaining
// as is.
func boundedShare(amount, remaining decimal.Decimal, closing bool) decimal.Decimal {
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	if closing || amount.GreaterThan(remaining) {
		return remaining
	}
	return amount
}

// Reference is the human-facing label used in stock ledger reasons.
func (r *Refund) Reference() string {
	return fmt.Sprintf("Refund #%d for Sale #%d", r.RefundNumber, r.SaleNumber)
}
