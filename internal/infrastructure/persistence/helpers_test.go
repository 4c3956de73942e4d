package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/identity"
	"github.com/possuite/backend/internal/domain/inventory"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/possuite/backend/internal/domain/trade"
	"github.com/possuite/backend/tests/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a migrated in-memory SQLite database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	d, err := NewSQLiteMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d.DB
}

// newMockPostgres returns a GORM handle on the postgres dialector backed by sqlmock.
func newMockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	m := testutil.NewMockDB(t)
	return m.DB, m.Mock, m.SqlDB
}

func seedTenant(t *testing.T, db *gorm.DB, code string, cur valueobject.Currency) *identity.Tenant {
	t.Helper()
	tenant := testutil.NewTenant(t, code, cur)
	require.NoError(t, NewGormTenantRepository(db).Save(context.Background(), tenant))
	return tenant
}

func seedStockItem(t *testing.T, db *gorm.DB, tenantID uuid.UUID, number int64, sku string, qty int64) *inventory.StockItem {
	t.Helper()
	item := testutil.NewStockItem(t, tenantID, number, sku, qty)
	require.NoError(t, NewGormStockItemRepository(db).Create(context.Background(), item))
	return item
}

// newTestSale builds an unsaved KES sale reported in USD at 0.0075.
func newTestSale(t *testing.T, tenantID uuid.UUID, number int64, lines ...trade.LineInput) *trade.Sale {
	t.Helper()
	return testutil.NewSale(t, tenantID, number, lines...)
}
