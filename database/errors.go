package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes treated as lock conflicts.
const (
	sqlStateDeadlock        = "40P01" // deadlock_detected
	sqlStateLockUnavailable = "55P03" // lock_not_available (lock_timeout)
	sqlStateUniqueViolation = "23505"
	sqlStateFKViolation     = "23503"
	sqlStateCheckViolation  = "23514"
)

var (
	// ErrContention is returned once a unit of work has been retried the
	// maximum number of times and still hit a lock conflict.
	ErrContention = errors.New("database contention")

	ErrNotFound = errors.New("record not found")
)

// ContentionError carries the attempt count and the last lock conflict.
// It matches ErrContention with errors.Is.
type ContentionError struct {
	Attempts int
	Err      error
}

func (e *ContentionError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrContention, e.Attempts, e.Err)
}

func (e *ContentionError) Is(target error) bool {
	return target == ErrContention
}

func (e *ContentionError) Unwrap() error {
	return e.Err
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsLockConflict reports whether err is a deadlock or lock-wait timeout.
func IsLockConflict(err error) bool {
	switch sqlState(err) {
	case sqlStateDeadlock, sqlStateLockUnavailable:
		return true
	}
	return false
}

func IsUniqueViolation(err error) bool {
	return sqlState(err) == sqlStateUniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	return sqlState(err) == sqlStateFKViolation
}

func IsCheckViolation(err error) bool {
	return sqlState(err) == sqlStateCheckViolation
}

// ConstraintName returns the violated constraint, if any.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
