package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/possuite/backend/internal/application/txn"
	"github.com/possuite/backend/internal/domain/currency"
	"github.com/possuite/backend/internal/domain/identity"
	"github.com/possuite/backend/internal/domain/inventory"
	"github.com/possuite/backend/internal/domain/sequence"
	"github.com/possuite/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements txn.TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGormTransactionScope creates a new GormTransactionScope. On PostgreSQL
// a positive lockTimeout bounds every row-lock wait inside the transaction.
func NewGormTransactionScope(db *gorm.DB, lockTimeout time.Duration) *GormTransactionScope {
	return &GormTransactionScope{db: db, lockTimeout: lockTimeout}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos txn.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return translate("set lock timeout", err)
			}
		}
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Tenants() identity.TenantRepository {
	return NewGormTenantRepository(r.tx)
}

func (r *gormTransactionalRepositories) Counters() sequence.CounterRepository {
	return NewGormCounterRepository(r.tx)
}

func (r *gormTransactionalRepositories) StockItems() inventory.StockItemRepository {
	return NewGormStockItemRepository(r.tx)
}

func (r *gormTransactionalRepositories) StockMovements() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

func (r *gormTransactionalRepositories) Sales() trade.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormTransactionalRepositories) Refunds() trade.RefundRepository {
	return NewGormRefundRepository(r.tx)
}

func (r *gormTransactionalRepositories) Rates() currency.RateRepository {
	return NewGormRateRepository(r.tx)
}

// SavePoint creates a named savepoint in the open transaction.
func (r *gormTransactionalRepositories) SavePoint(name string) error {
	return r.tx.SavePoint(name).Error
}

// RollbackTo rolls the transaction back to a named savepoint.
func (r *gormTransactionalRepositories) RollbackTo(name string) error {
	return r.tx.RollbackTo(name).Error
}

// Ensure GormTransactionScope implements TransactionScope
var _ txn.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ txn.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
