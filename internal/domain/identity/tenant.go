package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
)

// TenantStatus represents the status of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusInactive  TenantStatus = "inactive"
	TenantStatusSuspended TenantStatus = "suspended"
)

// Tenant is an independently operated business. It owns the entry currency
// in which its staff type amounts.
type Tenant struct {
	shared.BaseEntity
	Code         string
	Name         string
	Status       TenantStatus
	CurrencyCode valueobject.Currency
}

// NewTenant creates a new active tenant
func NewTenant(code, name string, currency valueobject.Currency) (*Tenant, error) {
	code = strings.TrimSpace(code)
	if code == "" || len(code) > 50 {
		return nil, shared.ErrInvalidInput.Newf("tenant code must be 1-50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.ErrInvalidInput.Newf("tenant name cannot be empty")
	}
	if currency == "" {
		currency = valueobject.ReportingCurrency
	}
	currency, err := valueobject.ParseCurrency(string(currency))
	if err != nil {
		return nil, shared.ErrUnknownCurrency.Wrap(err)
	}

	return &Tenant{
		BaseEntity:   shared.NewBaseEntity(),
		Code:         strings.ToUpper(code),
		Name:         name,
		Status:       TenantStatusActive,
		CurrencyCode: currency,
	}, nil
}

// IsActive returns true if the tenant may post transactions
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// TenantRepository loads tenants.
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindActiveByCode(ctx context.Context, code string) (*Tenant, error)
	FindAllActive(ctx context.Context) ([]Tenant, error)
	Save(ctx context.Context, tenant *Tenant) error
}
