package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// ==================== Sale DTOs ====================

// CreateSaleRequest is a checkout: the lines sold and how they were paid.
type CreateSaleRequest struct {
	TenantID       uuid.UUID         `json:"tenant_id" validate:"required"`
	UserID         uuid.UUID         `json:"user_id" validate:"required"`
	Lines          []SaleLineRequest `json:"lines" validate:"required,min=1,dive"`
	Payments       []PaymentRequest  `json:"payments" validate:"required,min=1,dive"`
	TaxRatePercent decimal.Decimal   `json:"tax_rate_percent" validate:"gte=0,lte=100"`
}

// SaleLineRequest is one cart line, priced in the tenant's entry currency.
type SaleLineRequest struct {
	StockItemID uuid.UUID       `json:"stock_item_id" validate:"required"`
	Quantity    int64           `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

// PaymentRequest is one tender.
type PaymentRequest struct {
	Method         string          `json:"method" validate:"required,oneof=cash card mobile_money bank_transfer other"`
	Amount         decimal.Decimal `json:"amount" validate:"gte=0"`
	TransactionRef string          `json:"transaction_ref" validate:"max=100"`
}

// SaleListFilter represents filter options for the sale list
type SaleListFilter struct {
	From     *time.Time `json:"from"`
	To       *time.Time `json:"to"`
	Status   string     `json:"status" validate:"omitempty,oneof=completed partially_refunded refunded"`
	Page     int        `json:"page" validate:"gte=0"`
	PageSize int        `json:"page_size" validate:"gte=0,lte=200"`
	SortBy   string     `json:"sort_by" validate:"omitempty,oneof=sale_number created_at status total_amount reporting_total"`
	OrderDir string     `json:"order_dir" validate:"omitempty,oneof=asc desc"`
}

func (r CreateSaleRequest) lineInputs() []trade.LineInput {
	out := make([]trade.LineInput, 0, len(r.Lines))
	for _, l := range r.Lines {
		out = append(out, trade.LineInput{
			StockItemID: l.StockItemID,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	return out
}

func (r CreateSaleRequest) paymentInputs() []trade.PaymentInput {
	out := make([]trade.PaymentInput, 0, len(r.Payments))
	for _, p := range r.Payments {
		out = append(out, trade.PaymentInput{
			Method:         trade.PaymentMethod(p.Method),
			Amount:         p.Amount,
			TransactionRef: p.TransactionRef,
		})
	}
	return out
}

func (f SaleListFilter) toDomain() trade.SaleFilter {
	return trade.SaleFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderDir: f.OrderDir,
		}.Normalize(),
		From:   f.From,
		To:     f.To,
		Status: trade.SaleStatus(f.Status),
		SortBy: f.SortBy,
	}
}

// ==================== Refund DTOs ====================

// ProcessRefundRequest returns some or all units of a completed sale.
type ProcessRefundRequest struct {
	TenantID uuid.UUID           `json:"tenant_id" validate:"required"`
	UserID   uuid.UUID           `json:"user_id" validate:"required"`
	SaleID   uuid.UUID           `json:"sale_id" validate:"required"`
	Lines    []RefundLineRequest `json:"lines" validate:"required,min=1,dive"`
	Reason   string              `json:"reason" validate:"max=500"`
}

// RefundLineRequest names a sale line and how many units come back.
type RefundLineRequest struct {
	SaleLineItemID uuid.UUID `json:"sale_line_item_id" validate:"required"`
	Quantity       int64     `json:"quantity" validate:"gt=0"`
}

func (r ProcessRefundRequest) lineRequests() []trade.RefundLineRequest {
	out := make([]trade.RefundLineRequest, 0, len(r.Lines))
	for _, l := range r.Lines {
		out = append(out, trade.RefundLineRequest{
			SaleLineItemID: l.SaleLineItemID,
			Quantity:       l.Quantity,
		})
	}
	return out
}
