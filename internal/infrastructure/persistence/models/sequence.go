package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/sequence"
)

// SequenceCounterModel holds the last issued number per (tenant, kind).
type SequenceCounterModel struct {
	TenantID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	EntityKind string    `gorm:"type:varchar(20);primaryKey"`
	LastValue  int64     `gorm:"not null;default:0"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceCounterModel) TableName() string {
	return "sequence_counters"
}

// ToDomain converts the persistence model to a domain Counter.
func (m *SequenceCounterModel) ToDomain() *sequence.Counter {
	return &sequence.Counter{
		TenantID:  m.TenantID,
		Kind:      sequence.EntityKind(m.EntityKind),
		LastValue: m.LastValue,
		UpdatedAt: m.UpdatedAt,
	}
}
