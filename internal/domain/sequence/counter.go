package sequence

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Counter is the last number issued for a (tenant, kind) pair. Zero means
// nothing has been issued yet.
type Counter struct {
	TenantID  uuid.UUID
	Kind      EntityKind
	LastValue int64
	UpdatedAt time.Time
}

// Next advances the counter and returns the newly issued number.
func (c *Counter) Next() int64 {
	c.LastValue++
	c.UpdatedAt = time.Now()
	return c.LastValue
}

// RaiseTo moves the counter forward to at least n. It never moves backward.
func (c *Counter) RaiseTo(n int64) bool {
	if n <= c.LastValue {
		return false
	}
	c.LastValue = n
	c.UpdatedAt = time.Now()
	return true
}

// CounterRepository persists counters. Methods that lock rely on being
// called inside an open transaction.
type CounterRepository interface {
	// LockForUpdate returns the counter row under an exclusive row lock.
	// It returns shared.ErrNotFound when the row does not exist.
	LockForUpdate(ctx context.Context, tenantID uuid.UUID, kind EntityKind) (*Counter, error)
	// CreateIfMissing inserts a zero-valued row, doing nothing when one exists.
	CreateIfMissing(ctx context.Context, tenantID uuid.UUID, kind EntityKind) error
	// Save persists LastValue.
	Save(ctx context.Context, counter *Counter) error
	// Find reads without locking.
	Find(ctx context.Context, tenantID uuid.UUID, kind EntityKind) (*Counter, error)
	// MaxAssigned returns the highest number already stored on records of kind.
	MaxAssigned(ctx context.Context, tenantID uuid.UUID, kind EntityKind) (int64, error)
}
