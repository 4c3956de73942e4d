package trade

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SaleStatus is the derived payment status of a sale
type SaleStatus string

const (
	SaleStatusCompleted         SaleStatus = "completed"
	SaleStatusPartiallyRefunded SaleStatus = "partially_refunded"
	SaleStatusRefunded          SaleStatus = "refunded"
)

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// Sale is a committed point-of-sale transaction. Amounts are held twice:
// in the tenant's entry currency and in the reporting currency, converted
// with the ExchangeRate snapshot taken at creation.
type Sale struct {
	shared.TenantEntity
	SaleNumber int64
	UserID     uuid.UUID
	Status     SaleStatus

	Currency  valueobject.Currency
	TaxRate   decimal.Decimal
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal

	ReportingCurrency  valueobject.Currency
	ReportingSubtotal  decimal.Decimal
	ReportingTaxAmount decimal.Decimal
	ReportingTotal     decimal.Decimal

	ExchangeRate decimal.Decimal

	Lines    []SaleLineItem
	Payments []Payment
}

// SaleLineItem is one product line on a sale
type SaleLineItem struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	SaleID             uuid.UUID
	StockItemID        uuid.UUID
	Quantity           int64
	UnitPrice          decimal.Decimal
	Subtotal           decimal.Decimal
	ReportingUnitPrice decimal.Decimal
	ReportingSubtotal  decimal.Decimal
	ExchangeRate       decimal.Decimal
	RefundedQuantity   int64
}

// Refundable returns how many units can still be refunded
func (l *SaleLineItem) Refundable() int64 {
	return l.Quantity - l.RefundedQuantity
}

// IsFullyRefunded reports whether every sold unit was refunded
func (l *SaleLineItem) IsFullyRefunded() bool {
	return l.RefundedQuantity >= l.Quantity
}

// AddRefunded books qty refunded units, keeping 0 <= refunded <= quantity.
func (l *SaleLineItem) AddRefunded(qty int64) error {
	if qty <= 0 {
		return shared.ErrInvalidInput.Newf("refund quantity must be positive")
	}
	if qty > l.Refundable() {
		return shared.ErrOverRefund.Newf(
			"cannot refund %d units of line %s: only %d refundable", qty, l.ID, l.Refundable())
	}
	l.RefundedQuantity += qty
	return nil
}

// PaymentMethod is how a payment was tendered
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentMobileMoney  PaymentMethod = "mobile_money"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentOther        PaymentMethod = "other"
)

// IsValid returns true if the method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentMobileMoney, PaymentBankTransfer, PaymentOther:
		return true
	}
	return false
}

// PaymentStatus is the settlement state of a payment
type PaymentStatus string

const PaymentStatusCompleted PaymentStatus = "completed"

// Payment is one tender applied to a sale
type Payment struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	SaleID          uuid.UUID
	Method          PaymentMethod
	Amount          decimal.Decimal
	ReportingAmount decimal.Decimal
	Currency        valueobject.Currency
	ExchangeRate    decimal.Decimal
	TransactionRef  string
	Status          PaymentStatus
}

// NewSale turns a priced quote into a sale with its sequence number.
func NewSale(tenantID, userID uuid.UUID, saleNumber int64, q *Quote, payments []PaymentInput) (*Sale, error) {
	if tenantID == uuid.Nil {
		return nil, shared.ErrInvalidInput.Newf("tenant ID cannot be empty")
	}
	if saleNumber <= 0 {
		return nil, shared.ErrInvalidInput.Newf("sale number must be positive")
	}

	sale := &Sale{
		TenantEntity:       shared.NewTenantEntity(tenantID),
		SaleNumber:         saleNumber,
		UserID:             userID,
		Status:             SaleStatusCompleted,
		Currency:           q.Currency,
		TaxRate:            q.TaxRate,
		Subtotal:           q.Subtotal,
		TaxAmount:          q.TaxAmount,
		Total:              q.Total,
		ReportingCurrency:  q.ReportingCurrency,
		ReportingSubtotal:  q.ReportingSubtotal,
		ReportingTaxAmount: q.ReportingTaxAmount,
		ReportingTotal:     q.ReportingTotal,
		ExchangeRate:       q.ExchangeRate,
	}

	sale.Lines = make([]SaleLineItem, 0, len(q.Lines))
	for _, ql := range q.Lines {
		sale.Lines = append(sale.Lines, SaleLineItem{
			ID:                 uuid.New(),
			TenantID:           tenantID,
			SaleID:             sale.ID,
			StockItemID:        ql.StockItemID,
			Quantity:           ql.Quantity,
			UnitPrice:          ql.UnitPrice,
			Subtotal:           ql.Subtotal,
			ReportingUnitPrice: ql.ReportingUnitPrice,
			ReportingSubtotal:  ql.ReportingSubtotal,
			ExchangeRate:       q.ExchangeRate,
		})
	}

	sale.Payments = make([]Payment, 0, len(payments))
	for _, p := range payments {
		amount := q.Currency.Round(p.Amount)
		sale.Payments = append(sale.Payments, Payment{
			ID:              uuid.New(),
			TenantID:        tenantID,
			SaleID:          sale.ID,
			Method:          p.Method,
			Amount:          amount,
			ReportingAmount: q.ReportingCurrency.Round(amount.Mul(q.ExchangeRate)),
			Currency:        q.Currency,
			ExchangeRate:    q.ExchangeRate,
			TransactionRef:  p.TransactionRef,
			Status:          PaymentStatusCompleted,
		})
	}

	return sale, nil
}

// FindLine returns the line item with id, if it belongs to this sale.
func (s *Sale) FindLine(id uuid.UUID) (*SaleLineItem, bool) {
	for i := range s.Lines {
		if s.Lines[i].ID == id {
			return &s.Lines[i], true
		}
	}
	return nil, false
}

// RefreshStatus derives the status from the line items' refunded counters.
func (s *Sale) RefreshStatus() {
	if len(s.Lines) == 0 {
		return
	}
	fully, partly := true, false
	for i := range s.Lines {
		if !s.Lines[i].IsFullyRefunded() {
			fully = false
		}
		if s.Lines[i].RefundedQuantity > 0 {
			partly = true
		}
	}
	switch {
	case fully:
		s.Status = SaleStatusRefunded
	case partly:
		s.Status = SaleStatusPartiallyRefunded
	default:
		s.Status = SaleStatusCompleted
	}
}

// Reference is the human-facing label used in stock ledger reasons.
func (s *Sale) Reference() string {
	return fmt.Sprintf("Sale #%d", s.SaleNumber)
}
