package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("syntax error"), false},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"serialization failure", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40001"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{"sqlite locked", sqlite3.Error{Code: sqlite3.ErrLocked}, true},
		{"sqlite constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, false},
		{"already classified", fmt.Errorf("lock: %w", shared.ErrLockContention), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}))
	assert.False(t, IsUniqueViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintCheck}))
	assert.False(t, IsUniqueViolation(nil))
}

func TestTranslate(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, translate("op", nil))
	})

	t.Run("transient errors carry lock contention", func(t *testing.T) {
		err := translate("lock counter", &pgconn.PgError{Code: "55P03"})
		assert.ErrorIs(t, err, shared.ErrLockContention)
		assert.Contains(t, err.Error(), "lock counter")
	})

	t.Run("unique violations become conflicts", func(t *testing.T) {
		err := translate("create sale", &pgconn.PgError{Code: "23505"})
		assert.True(t, shared.IsKind(err, shared.KindConflict))
	})

	t.Run("not found maps to the given domain error", func(t *testing.T) {
		err := notFound("find sale", gorm.ErrRecordNotFound, shared.ErrSaleNotFound)
		assert.ErrorIs(t, err, shared.ErrSaleNotFound)
	})

	t.Run("other errors keep their cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := notFound("find sale", cause, shared.ErrSaleNotFound)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, shared.ErrSaleNotFound)
	})
}
