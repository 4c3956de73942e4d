package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared"
)

// SaleFilter narrows a sale listing
type SaleFilter struct {
	shared.Filter
	From   *time.Time
	To     *time.Time
	Status SaleStatus
	// SortBy names a column; unknown values sort by sale number.
	SortBy string
}

// SaleRepository persists sales with their lines and payments
type SaleRepository interface {
	// Create writes the header, lines and payments.
	Create(ctx context.Context, sale *Sale) error
	// LockForUpdate loads the sale under an exclusive row lock together with
	// its lines. It returns shared.ErrSaleNotFound for a missing sale or one
	// owned by another tenant.
	LockForUpdate(ctx context.Context, tenantID, saleID uuid.UUID) (*Sale, error)
	// SaveRefundState writes the sale status and each line's refunded quantity.
	SaveRefundState(ctx context.Context, sale *Sale) error
	FindByIDForTenant(ctx context.Context, tenantID, saleID uuid.UUID) (*Sale, error)
	List(ctx context.Context, tenantID uuid.UUID, filter SaleFilter) ([]Sale, int64, error)
}

// RefundRepository persists refunds with their lines
type RefundRepository interface {
	Create(ctx context.Context, refund *Refund) error
	FindByIDForTenant(ctx context.Context, tenantID, refundID uuid.UUID) (*Refund, error)
	ListBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]Refund, error)
}
