package persistence

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/possuite/backend/internal/application/txn"
	"github.com/possuite/backend/internal/domain/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		db := newTestDB(t)
		scope := NewGormTransactionScope(db, 0)
		tenantID := uuid.New()

		err := scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
			return repos.Counters().CreateIfMissing(ctx, tenantID, sequence.KindSale)
		})
		require.NoError(t, err)

		_, err = NewGormCounterRepository(db).Find(ctx, tenantID, sequence.KindSale)
		assert.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db := newTestDB(t)
		scope := NewGormTransactionScope(db, 0)
		tenantID := uuid.New()
		boom := errors.New("boom")

		err := scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
			if err := repos.Counters().CreateIfMissing(ctx, tenantID, sequence.KindSale); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = NewGormCounterRepository(db).Find(ctx, tenantID, sequence.KindSale)
		assert.Error(t, err, "counter row must not survive the rollback")
	})

	t.Run("rollback to savepoint keeps earlier work", func(t *testing.T) {
		db := newTestDB(t)
		scope := NewGormTransactionScope(db, 0)
		tenantID := uuid.New()

		err := scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
			counters := repos.Counters()
			require.NoError(t, counters.CreateIfMissing(ctx, tenantID, sequence.KindSale))
			require.NoError(t, repos.SavePoint("seq_refund"))
			require.NoError(t, counters.CreateIfMissing(ctx, tenantID, sequence.KindRefund))
			return repos.RollbackTo("seq_refund")
		})
		require.NoError(t, err)

		counters := NewGormCounterRepository(db)
		_, err = counters.Find(ctx, tenantID, sequence.KindSale)
		assert.NoError(t, err)
		_, err = counters.Find(ctx, tenantID, sequence.KindRefund)
		assert.Error(t, err)
	})
}

func TestGormTransactionScope_PostgresLockTimeout(t *testing.T) {
	ctx := context.Background()

	t.Run("bounds lock waits with SET LOCAL", func(t *testing.T) {
		db, mock, mockDB := newMockPostgres(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = '2000ms'")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT seq_sale")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("ROLLBACK TO SAVEPOINT seq_sale")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		scope := NewGormTransactionScope(db, 2*time.Second)
		err := scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
			if err := repos.SavePoint("seq_sale"); err != nil {
				return err
			}
			return repos.RollbackTo("seq_sale")
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero timeout issues no SET", func(t *testing.T) {
		db, mock, mockDB := newMockPostgres(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := NewGormTransactionScope(db, 0).Execute(ctx, func(txn.TransactionalRepositories) error { return nil })
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
