package persistence

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/possuite/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes the repositories care about.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
)

// IsTransient reports whether err is a lock or serialization failure that
// a fresh attempt may not hit again.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, shared.ErrLockContention) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return true
		}
		return false
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// IsUniqueViolation reports whether err is a unique constraint failure.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// translate wraps driver errors so callers can classify them without
// importing a driver. Transient failures carry shared.ErrLockContention.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case IsTransient(err):
		return fmt.Errorf("%s: %w: %v", op, shared.ErrLockContention, err)
	case IsUniqueViolation(err):
		return shared.ErrConflict.Newf("%s: duplicate key", op).Wrap(err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// notFound maps gorm.ErrRecordNotFound to the given domain error and
// translates everything else.
func notFound(op string, err error, missing *shared.DomainError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return missing
	}
	return translate(op, err)
}
