package identity

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTenant(t *testing.T) {
	t.Run("creates active tenant with upper-cased code", func(t *testing.T) {
		tenant, err := NewTenant("  nbo-cbd ", "Nairobi CBD", "KES")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, tenant.ID)
		assert.Equal(t, "NBO-CBD", tenant.Code)
		assert.Equal(t, "Nairobi CBD", tenant.Name)
		assert.Equal(t, valueobject.Currency("KES"), tenant.CurrencyCode)
		assert.Equal(t, TenantStatusActive, tenant.Status)
		assert.True(t, tenant.IsActive())
		assert.False(t, tenant.CreatedAt.IsZero())
	})

	t.Run("defaults entry currency to USD", func(t *testing.T) {
		tenant, err := NewTenant("KLA", "Kampala", "")
		require.NoError(t, err)
		assert.Equal(t, valueobject.ReportingCurrency, tenant.CurrencyCode)
	})

	tests := []struct {
		name     string
		code     string
		tenant   string
		currency valueobject.Currency
		want     error
	}{
		{"empty code", "  ", "Shop", "USD", shared.ErrInvalidInput},
		{"code too long", strings.Repeat("x", 51), "Shop", "USD", shared.ErrInvalidInput},
		{"empty name", "DAR", " ", "TZS", shared.ErrInvalidInput},
		{"unknown currency", "DAR", "Dar", "ZZZ", shared.ErrUnknownCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTenant(tt.code, tt.tenant, tt.currency)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTenant_IsActive(t *testing.T) {
	tenant, err := NewTenant("MSA", "Mombasa", "KES")
	require.NoError(t, err)

	for status, want := range map[TenantStatus]bool{
		TenantStatusActive:    true,
		TenantStatusInactive:  false,
		TenantStatusSuspended: false,
	} {
		tenant.Status = status
		assert.Equal(t, want, tenant.IsActive(), status)
	}
}
