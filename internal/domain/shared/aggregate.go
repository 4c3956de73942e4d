package shared

import (
	"github.com/google/uuid"
)

// TenantAggregateRoot is a tenant-owned aggregate with a version number
// used for optimistic checks on rows that are not locked.
type TenantAggregateRoot struct {
	TenantEntity
	Version int
}

// IncrementVersion increments the version number
func (a *TenantAggregateRoot) IncrementVersion() {
	a.Version++
	a.Touch()
}

// NewTenantAggregateRoot creates a new tenant-scoped aggregate root
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{
		TenantEntity: NewTenantEntity(tenantID),
		Version:      1,
	}
}
