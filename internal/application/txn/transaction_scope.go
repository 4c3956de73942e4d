// Package txn defines the unit-of-work boundary shared by the POS services.
package txn

import (
	"context"

	"github.com/possuite/backend/internal/domain/currency"
	"github.com/possuite/backend/internal/domain/identity"
	"github.com/possuite/backend/internal/domain/inventory"
	"github.com/possuite/backend/internal/domain/sequence"
	"github.com/possuite/backend/internal/domain/trade"
)

// TransactionScope runs work inside one database transaction. If fn returns
// an error the transaction is rolled back, otherwise it is committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to repositories bound to the open
// transaction. Every repository returned shares the same transaction, so
// row locks taken through one are held until the scope ends.
type TransactionalRepositories interface {
	Tenants() identity.TenantRepository
	Counters() sequence.CounterRepository
	StockItems() inventory.StockItemRepository
	StockMovements() inventory.StockMovementRepository
	Sales() trade.SaleRepository
	Refunds() trade.RefundRepository
	Rates() currency.RateRepository

	// SavePoint marks a point the transaction can later roll back to
	// without aborting the enclosing work.
	SavePoint(name string) error
	// RollbackTo undoes everything after the named savepoint.
	RollbackTo(name string) error
}

// NoOpTransactionScope runs fn against plain repositories without a
// transaction. Savepoints are ignored. Used by tests and read paths.
type NoOpTransactionScope struct {
	tenants        identity.TenantRepository
	counters       sequence.CounterRepository
	stockItems     inventory.StockItemRepository
	stockMovements inventory.StockMovementRepository
	sales          trade.SaleRepository
	refunds        trade.RefundRepository
	rates          currency.RateRepository
}

// NoOpRepositories lists the repositories a NoOpTransactionScope hands out.
// Nil fields stay nil.
type NoOpRepositories struct {
	Tenants        identity.TenantRepository
	Counters       sequence.CounterRepository
	StockItems     inventory.StockItemRepository
	StockMovements inventory.StockMovementRepository
	Sales          trade.SaleRepository
	Refunds        trade.RefundRepository
	Rates          currency.RateRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over repos.
func NewNoOpTransactionScope(repos NoOpRepositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		tenants:        repos.Tenants,
		counters:       repos.Counters,
		stockItems:     repos.StockItems,
		stockMovements: repos.StockMovements,
		sales:          repos.Sales,
		refunds:        repos.Refunds,
		rates:          repos.Rates,
	}
}

// Execute runs fn without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Tenants() identity.TenantRepository                { return s.tenants }
func (s *NoOpTransactionScope) Counters() sequence.CounterRepository              { return s.counters }
func (s *NoOpTransactionScope) StockItems() inventory.StockItemRepository         { return s.stockItems }
func (s *NoOpTransactionScope) StockMovements() inventory.StockMovementRepository { return s.stockMovements }
func (s *NoOpTransactionScope) Sales() trade.SaleRepository                       { return s.sales }
func (s *NoOpTransactionScope) Refunds() trade.RefundRepository                   { return s.refunds }
func (s *NoOpTransactionScope) Rates() currency.RateRepository                    { return s.rates }
func (s *NoOpTransactionScope) SavePoint(string) error                            { return nil }
func (s *NoOpTransactionScope) RollbackTo(string) error                           { return nil }
