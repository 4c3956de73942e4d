package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared"
)

// BaseModel carries the id and timestamps every table shares. GORM fills
// CreatedAt and UpdatedAt by name when the domain left them zero.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func baseModelOf(e shared.BaseEntity) BaseModel {
	return BaseModel{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

func (m BaseModel) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m BaseModel) tenantEntity(tenantID uuid.UUID) shared.TenantEntity {
	return shared.TenantEntity{BaseEntity: m.entity(), TenantID: tenantID}
}
