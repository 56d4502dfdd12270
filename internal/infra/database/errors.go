package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"bicycle_rental/internal/domain/rental"
)

const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"

	sqliteBusy   = 5
	sqliteLocked = 6
)

// sqliteError is implemented by modernc.org/sqlite errors.
type sqliteError interface {
	Code() int
}

// isWriteConflict reports whether err means another writer won the race.
func isWriteConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqSerializationFailure || pqErr.Code == pqDeadlockDetected
	}
	var liteErr sqliteError
	if errors.As(err, &liteErr) {
		primary := liteErr.Code() & 0xff // extended codes keep the primary code in the low byte
		return primary == sqliteBusy || primary == sqliteLocked
	}
	return false
}

// wrap annotates err with the failed operation and tags write conflicts with
// rental.ErrWriteConflict.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if isWriteConflict(err) {
		return fmt.Errorf("error %s: %w: %w", op, rental.ErrWriteConflict, err)
	}
	return fmt.Errorf("error %s: %w", op, err)
}
