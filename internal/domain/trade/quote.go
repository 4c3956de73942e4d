package trade

import (
	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineInput is one requested cart line
type LineInput struct {
	StockItemID uuid.UUID
	Quantity    int64
	UnitPrice   decimal.Decimal
}

// PaymentInput is one tendered payment
type PaymentInput struct {
	Method         PaymentMethod
	Amount         decimal.Decimal
	TransactionRef string
}

// QuotedLine is a priced cart line in both currencies
type QuotedLine struct {
	StockItemID        uuid.UUID
	Quantity           int64
	UnitPrice          decimal.Decimal
	Subtotal           decimal.Decimal
	ReportingUnitPrice decimal.Decimal
	ReportingSubtotal  decimal.Decimal
}

// Quote holds the priced totals of a cart before it is committed.
//
// Entry-currency amounts are rounded to the entry currency's scale. Each
// reporting subtotal is converted and rounded per line, the reporting tax is
// converted and rounded once, and ReportingTotal is exactly their sum.
type Quote struct {
	Currency          valueobject.Currency
	ReportingCurrency valueobject.Currency
	ExchangeRate      decimal.Decimal
	TaxRate           decimal.Decimal
	Lines             []QuotedLine

	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal

	ReportingSubtotal  decimal.Decimal
	ReportingTaxAmount decimal.Decimal
	ReportingTotal     decimal.Decimal
}

// NewQuote prices lines in currency and converts them into reporting using
// rate (units of reporting per unit of currency).
func NewQuote(currency, reporting valueobject.Currency, rate, taxRatePercent decimal.Decimal, lines []LineInput) (*Quote, error) {
	if currency == "" || reporting == "" {
		return nil, shared.ErrUnknownCurrency.Newf("sale and reporting currencies are required")
	}
	if len(lines) == 0 {
		return nil, shared.ErrInvalidInput.Newf("sale must have at least one line")
	}
	if !rate.IsPositive() {
		return nil, shared.ErrInvalidInput.Newf("exchange rate must be positive")
	}
	if taxRatePercent.IsNegative() || taxRatePercent.GreaterThan(hundred) {
		return nil, shared.ErrInvalidInput.Newf("tax rate must be between 0 and 100")
	}

	q := &Quote{
		Currency:           currency,
		ReportingCurrency:  reporting,
		ExchangeRate:       rate,
		TaxRate:            taxRatePercent,
		Lines:              make([]QuotedLine, 0, len(lines)),
		Subtotal:           decimal.Zero,
		ReportingSubtotal:  decimal.Zero,
		ReportingTaxAmount: decimal.Zero,
	}

	for _, in := range lines {
		if in.StockItemID == uuid.Nil {
			return nil, shared.ErrInvalidInput.Newf("stock item ID cannot be empty")
		}
		if in.Quantity <= 0 {
			return nil, shared.ErrInvalidInput.Newf("quantity must be positive")
		}
		if in.UnitPrice.IsNegative() {
			return nil, shared.ErrInvalidInput.Newf("unit price cannot be negative")
		}
		unit := valueobject.MustMoney(in.UnitPrice, currency).Rounded()
		subtotal := unit.MultiplyByInt(in.Quantity)
		reportingSubtotal := subtotal.Convert(rate, reporting)

		q.Lines = append(q.Lines, QuotedLine{
			StockItemID:        in.StockItemID,
			Quantity:           in.Quantity,
			UnitPrice:          unit.Amount(),
			Subtotal:           subtotal.Amount(),
			ReportingUnitPrice: unit.Amount().Mul(rate).Round(valueobject.RateScale),
			ReportingSubtotal:  reportingSubtotal.Amount(),
		})
		q.Subtotal = q.Subtotal.Add(subtotal.Amount())
		q.ReportingSubtotal = q.ReportingSubtotal.Add(reportingSubtotal.Amount())
	}

	tax := valueobject.MustMoney(q.Subtotal, currency).Percentage(taxRatePercent)
	q.TaxAmount = tax.Amount()
	q.Total = q.Subtotal.Add(q.TaxAmount)
	q.ReportingTaxAmount = tax.Convert(rate, reporting).Amount()
	q.ReportingTotal = q.ReportingSubtotal.Add(q.ReportingTaxAmount)

	return q, nil
}

// QuantitiesByItem sums requested quantities per stock item, so a product
// appearing on several lines is checked against stock once.
func (q *Quote) QuantitiesByItem() map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64, len(q.Lines))
	for _, l := range q.Lines {
		out[l.StockItemID] += l.Quantity
	}
	return out
}

// CheckPayments verifies the tendered amounts sum to Total within tolerance.
func (q *Quote) CheckPayments(payments []PaymentInput, tolerance decimal.Decimal) error {
	if len(payments) == 0 {
		return shared.ErrInvalidInput.Newf("sale must have at least one payment")
	}
	paid := decimal.Zero
	for _, p := range payments {
		if !p.Method.IsValid() {
			return shared.ErrInvalidInput.Newf("invalid payment method: %s", p.Method)
		}
		if p.Amount.IsNegative() {
			return shared.ErrInvalidInput.Newf("payment amount cannot be negative")
		}
		paid = paid.Add(p.Amount)
	}
	ok, err := valueobject.MustMoney(paid, q.Currency).WithinTolerance(valueobject.MustMoney(q.Total, q.Currency), tolerance)
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrPaymentMismatch.Newf(
			"payment total %s does not match sale total %s",
			paid.StringFixed(q.Currency.Scale()), q.Total.StringFixed(q.Currency.Scale()))
	}
	return nil
}
