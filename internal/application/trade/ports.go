package trade

import (
	"bytes"
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/application/txn"
	"github.com/possuite/backend/internal/domain/sequence"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// NumberAllocator issues document numbers inside an open transaction.
type NumberAllocator interface {
	NextNumberInTx(ctx context.Context, repos txn.TransactionalRepositories, tenantID uuid.UUID, kind sequence.EntityKind) (int64, error)
}

// RateProvider resolves base→target exchange rates.
type RateProvider interface {
	Rate(ctx context.Context, base, target valueobject.Currency) (decimal.Decimal, error)
}

// sortedIDs returns the distinct ids in ascending byte order, the order in
// which stock rows are locked.
func sortedIDs(ids []uuid.UUID) []uuid.UUID {
	out := slices.Clone(ids)
	slices.SortFunc(out, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return slices.Compact(out)
}
