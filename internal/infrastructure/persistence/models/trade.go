package models

import (
	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/possuite/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale aggregate root.
type SaleModel struct {
	BaseModel
	TenantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sales_number,priority:1;index:idx_sales_created,priority:1"`
	SaleNumber int64     `gorm:"not null;uniqueIndex:idx_sales_number,priority:2"`
	UserID     uuid.UUID `gorm:"type:uuid;not null"`
	Status     string    `gorm:"type:varchar(20);not null"`

	CurrencyCode string          `gorm:"type:varchar(3);not null"`
	TaxRate      decimal.Decimal `gorm:"type:numeric(7,4);not null"`
	Subtotal     decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	TaxAmount    decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	TotalAmount  decimal.Decimal `gorm:"type:numeric(18,4);not null"`

	ReportingCurrency  string          `gorm:"type:varchar(3);not null"`
	ReportingSubtotal  decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	ReportingTaxAmount decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	ReportingTotal     decimal.Decimal `gorm:"type:numeric(18,4);not null"`

	ExchangeRate decimal.Decimal `gorm:"type:numeric(20,10);not null"`

	Lines    []SaleLineItemModel `gorm:"foreignKey:SaleID;references:ID"`
	Payments []PaymentModel      `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model, with any loaded lines and
// payments, to a domain Sale.
func (m *SaleModel) ToDomain() *trade.Sale {
	s := &trade.Sale{
		TenantEntity:       m.BaseModel.tenantEntity(m.TenantID),
		SaleNumber:         m.SaleNumber,
		UserID:             m.UserID,
		Status:             trade.SaleStatus(m.Status),
		Currency:           valueobject.Currency(m.CurrencyCode),
		TaxRate:            m.TaxRate,
		Subtotal:           m.Subtotal,
		TaxAmount:          m.TaxAmount,
		Total:              m.TotalAmount,
		ReportingCurrency:  valueobject.Currency(m.ReportingCurrency),
		ReportingSubtotal:  m.ReportingSubtotal,
		ReportingTaxAmount: m.ReportingTaxAmount,
		ReportingTotal:     m.ReportingTotal,
		ExchangeRate:       m.ExchangeRate,
		Lines:              make([]trade.SaleLineItem, len(m.Lines)),
		Payments:           make([]trade.Payment, len(m.Payments)),
	}
	for i := range m.Lines {
		s.Lines[i] = m.Lines[i].ToDomain()
	}
	for i := range m.Payments {
		s.Payments[i] = m.Payments[i].ToDomain()
	}
	return s
}

// SaleModelFromDomain creates a persistence model from a domain Sale,
// including lines and payments.
func SaleModelFromDomain(s *trade.Sale) *SaleModel {
	m := &SaleModel{
		TenantID:           s.TenantID,
		SaleNumber:         s.SaleNumber,
		UserID:             s.UserID,
		Status:             s.Status.String(),
		CurrencyCode:       s.Currency.String(),
		TaxRate:            s.TaxRate,
		Subtotal:           s.Subtotal,
		TaxAmount:          s.TaxAmount,
		TotalAmount:        s.Total,
		ReportingCurrency:  s.ReportingCurrency.String(),
		ReportingSubtotal:  s.ReportingSubtotal,
		ReportingTaxAmount: s.ReportingTaxAmount,
		ReportingTotal:     s.ReportingTotal,
		ExchangeRate:       s.ExchangeRate,
		Lines:              make([]SaleLineItemModel, len(s.Lines)),
		Payments:           make([]PaymentModel, len(s.Payments)),
	}
	m.BaseModel = baseModelOf(s.BaseEntity)
	for i := range s.Lines {
		m.Lines[i] = SaleLineItemModelFromDomain(&s.Lines[i])
		m.Lines[i].LineNo = i + 1
	}
	for i := range s.Payments {
		m.Payments[i] = PaymentModelFromDomain(&s.Payments[i])
		m.Payments[i].LineNo = i + 1
	}
	return m
}

// SaleLineItemModel is one sold line.
type SaleLineItemModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo             int             `gorm:"not null"`
	StockItemID        uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity           int64           `gorm:"not null;check:quantity > 0"`
	UnitPrice          decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Subtotal           decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	ReportingUnitPrice decimal.Decimal `gorm:"type:numeric(20,10);not null"`
	ReportingSubtotal  decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	ExchangeRate       decimal.Decimal `gorm:"type:numeric(20,10);not null"`
	RefundedQuantity   int64           `gorm:"not null;default:0;check:refunded_quantity BETWEEN 0 AND quantity"`
}

// TableName returns the table name for GORM
func (SaleLineItemModel) TableName() string {
	return "sale_line_items"
}

// ToDomain converts the persistence model to a domain SaleLineItem.
func (m *SaleLineItemModel) ToDomain() trade.SaleLineItem {
	return trade.SaleLineItem{
		ID:                 m.ID,
		TenantID:           m.TenantID,
		SaleID:             m.SaleID,
		StockItemID:        m.StockItemID,
		Quantity:           m.Quantity,
		UnitPrice:          m.UnitPrice,
		Subtotal:           m.Subtotal,
		ReportingUnitPrice: m.ReportingUnitPrice,
		ReportingSubtotal:  m.ReportingSubtotal,
		ExchangeRate:       m.ExchangeRate,
		RefundedQuantity:   m.RefundedQuantity,
	}
}

// SaleLineItemModelFromDomain creates a persistence model from a domain line.
func SaleLineItemModelFromDomain(l *trade.SaleLineItem) SaleLineItemModel {
	return SaleLineItemModel{
		ID:                 l.ID,
		TenantID:           l.TenantID,
		SaleID:             l.SaleID,
		StockItemID:        l.StockItemID,
		Quantity:           l.Quantity,
		UnitPrice:          l.UnitPrice,
		Subtotal:           l.Subtotal,
		ReportingUnitPrice: l.ReportingUnitPrice,
		ReportingSubtotal:  l.ReportingSubtotal,
		ExchangeRate:       l.ExchangeRate,
		RefundedQuantity:   l.RefundedQuantity,
	}
}

// PaymentModel is one tender against a sale.
type PaymentModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo          int             `gorm:"not null"`
	Method          string          `gorm:"type:varchar(20);not null"`
	Amount          decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	ReportingAmount decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	CurrencyCode    string          `gorm:"type:varchar(3);not null"`
	ExchangeRate    decimal.Decimal `gorm:"type:numeric(20,10);not null"`
	TransactionRef  string          `gorm:"type:varchar(100)"`
	Status          string          `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() trade.Payment {
	return trade.Payment{
		ID:              m.ID,
		TenantID:        m.TenantID,
		SaleID:          m.SaleID,
		Method:          trade.PaymentMethod(m.Method),
		Amount:          m.Amount,
		ReportingAmount: m.ReportingAmount,
		Currency:        valueobject.Currency(m.CurrencyCode),
		ExchangeRate:    m.ExchangeRate,
		TransactionRef:  m.TransactionRef,
		Status:          trade.PaymentStatus(m.Status),
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment.
func PaymentModelFromDomain(p *trade.Payment) PaymentModel {
	return PaymentModel{
		ID:              p.ID,
		TenantID:        p.TenantID,
		SaleID:          p.SaleID,
		Method:          string(p.Method),
		Amount:          p.Amount,
		ReportingAmount: p.ReportingAmount,
		CurrencyCode:    p.Currency.String(),
		ExchangeRate:    p.ExchangeRate,
		TransactionRef:  p.TransactionRef,
		Status:          string(p.Status),
	}
}

// RefundModel is the persistence model for the Refund aggregate root.
type RefundModel struct {
	BaseModel
	TenantID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_refunds_number,priority:1;index:idx_refunds_sale,priority:1"`
	RefundNumber int64     `gorm:"not null;uniqueIndex:idx_refunds_number,priority:2"`
	SaleID       uuid.UUID `gorm:"type:uuid;not null;index:idx_refunds_sale,priority:2"`
	SaleNumber   int64     `gorm:"not null"`
	UserID       uuid.UUID `gorm:"type:uuid;not null"`
	Reason       string    `gorm:"type:varchar(500)"`
	Status       string    `gorm:"type:varchar(20);not null"`

	CurrencyCode string          `gorm:"type:varchar(3);not null"`
	Subtotal     decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	TaxAmount    decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	TotalAmount  decimal.Decimal `gorm:"type:numeric(18,4);not null"`

	ReportingCurrency  string          `gorm:"type:varchar(3);not null"`
	ReportingSubtotal  decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	ReportingTaxAmount decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	ReportingTotal     decimal.Decimal `gorm:"type:numeric(18,4);not null"`

	ExchangeRate decimal.Decimal `gorm:"type:numeric(20,10);not null"`

	Lines []RefundLineItemModel `gorm:"foreignKey:RefundID;references:ID"`
}

// TableName returns the table name for GORM
func (RefundModel) TableName() string {
	return "refunds"
}

// ToDomain converts the persistence model to a domain Refund.
func (m *RefundModel) ToDomain() *trade.Refund {
	r := &trade.Refund{
		TenantEntity:       m.BaseModel.tenantEntity(m.TenantID),
		RefundNumber:       m.RefundNumber,
		SaleID:             m.SaleID,
		SaleNumber:         m.SaleNumber,
		UserID:             m.UserID,
		Reason:             m.Reason,
		Status:             trade.RefundStatus(m.Status),
		Currency:           valueobject.Currency(m.CurrencyCode),
		Subtotal:           m.Subtotal,
		TaxAmount:          m.TaxAmount,
		Total:              m.TotalAmount,
		ReportingCurrency:  valueobject.Currency(m.ReportingCurrency),
		ReportingSubtotal:  m.ReportingSubtotal,
		ReportingTaxAmount: m.ReportingTaxAmount,
		ReportingTotal:     m.ReportingTotal,
		ExchangeRate:       m.ExchangeRate,
		Lines:              make([]trade.RefundLineItem, len(m.Lines)),
	}
	for i, l := range m.Lines {
		r.Lines[i] = trade.RefundLineItem{
			ID:                 l.ID,
			TenantID:           l.TenantID,
			RefundID:           l.RefundID,
			SaleLineItemID:     l.SaleLineItemID,
			StockItemID:        l.StockItemID,
			Quantity:           l.Quantity,
			UnitPrice:          l.UnitPrice,
			Subtotal:           l.Subtotal,
			ReportingUnitPrice: l.ReportingUnitPrice,
			ReportingSubtotal:  l.ReportingSubtotal,
		}
	}
	return r
}

// RefundModelFromDomain creates a persistence model from a domain Refund.
func RefundModelFromDomain(r *trade.Refund) *RefundModel {
	m := &RefundModel{
		TenantID:           r.TenantID,
		RefundNumber:       r.RefundNumber,
		SaleID:             r.SaleID,
		SaleNumber:         r.SaleNumber,
		UserID:             r.UserID,
		Reason:             r.Reason,
		Status:             string(r.Status),
		CurrencyCode:       r.Currency.String(),
		Subtotal:           r.Subtotal,
		TaxAmount:          r.TaxAmount,
		TotalAmount:        r.Total,
		ReportingCurrency:  r.ReportingCurrency.String(),
		ReportingSubtotal:  r.ReportingSubtotal,
		ReportingTaxAmount: r.ReportingTaxAmount,
		ReportingTotal:     r.ReportingTotal,
		ExchangeRate:       r.ExchangeRate,
		Lines:              make([]RefundLineItemModel, len(r.Lines)),
	}
	m.BaseModel = baseModelOf(r.BaseEntity)
	for i, l := range r.Lines {
		m.Lines[i] = RefundLineItemModel{
			ID:                 l.ID,
			TenantID:           l.TenantID,
			RefundID:           l.RefundID,
			LineNo:             i + 1,
			SaleLineItemID:     l.SaleLineItemID,
			StockItemID:        l.StockItemID,
			Quantity:           l.Quantity,
			UnitPrice:          l.UnitPrice,
			Subtotal:           l.Subtotal,
			ReportingUnitPrice: l.ReportingUnitPrice,
			ReportingSubtotal:  l.ReportingSubtotal,
		}
	}
	return m
}

// RefundLineItemModel is one refunded line.
type RefundLineItemModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	RefundID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo             int             `gorm:"not null"`
	SaleLineItemID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	StockItemID        uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity           int64           `gorm:"not null;check:quantity > 0"`
	UnitPrice          decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Subtotal           decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	ReportingUnitPrice decimal.Decimal `gorm:"type:numeric(20,10);not null"`
	ReportingSubtotal  decimal.Decimal `gorm:"type:numeric(18,4);not null"`
}

// TableName returns the table name for GORM
func (RefundLineItemModel) TableName() string {
	return "refund_line_items"
}

// AllModels lists every model in dependency order, for AutoMigrate in
// tests and embedded SQLite deployments.
func AllModels() []any {
	return []any{
		&TenantModel{},
		&SequenceCounterModel{},
		&StockItemModel{},
		&StockMovementModel{},
		&SaleModel{},
		&SaleLineItemModel{},
		&PaymentModel{},
		&RefundModel{},
		&RefundLineItemModel{},
		&ExchangeRateModel{},
	}
}
