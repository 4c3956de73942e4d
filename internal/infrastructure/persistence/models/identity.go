package models

import (
	"github.com/possuite/backend/internal/domain/identity"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
)

// TenantModel is the persistence model for Tenant.
type TenantModel struct {
	BaseModel
	Code         string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name         string `gorm:"type:varchar(200);not null"`
	Status       string `gorm:"type:varchar(20);not null;default:'active'"`
	CurrencyCode string `gorm:"type:varchar(3);not null;default:'USD'"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant.
func (m *TenantModel) ToDomain() *identity.Tenant {
	return &identity.Tenant{
		BaseEntity:   m.BaseModel.entity(),
		Code:         m.Code,
		Name:         m.Name,
		Status:       identity.TenantStatus(m.Status),
		CurrencyCode: valueobject.Currency(m.CurrencyCode),
	}
}

// TenantModelFromDomain creates a persistence model from a domain Tenant.
func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	m := &TenantModel{
		Code:         t.Code,
		Name:         t.Name,
		Status:       string(t.Status),
		CurrencyCode: t.CurrencyCode.String(),
	}
	m.BaseModel = baseModelOf(t.BaseEntity)
	return m
}
