package database

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"bicycle_rental/internal/domain/rental"
)

type fakeSQLiteError struct{ code int }

func (e fakeSQLiteError) Error() string { return "database is locked" }
func (e fakeSQLiteError) Code() int     { return e.code }

func Test_Wrap_TagsWriteConflicts(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		conflict bool
	}{
		{name: "postgres serialization failure", err: &pq.Error{Code: "40001"}, conflict: true},
		{name: "postgres deadlock", err: &pq.Error{Code: "40P01"}, conflict: true},
		{name: "postgres unique violation", err: &pq.Error{Code: "23505"}},
		{name: "sqlite busy", err: fakeSQLiteError{code: 5}, conflict: true},
		{name: "sqlite busy snapshot", err: fakeSQLiteError{code: 517}, conflict: true},
		{name: "sqlite constraint", err: fakeSQLiteError{code: 19}},
		{name: "plain error", err: errors.New("connection reset")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := wrap("committing transaction", tc.err)
			assert.ErrorIs(t, wrapped, tc.err)
			assert.Equal(t, tc.conflict, errors.Is(wrapped, rental.ErrWriteConflict))
		})
	}

	assert.NoError(t, wrap("noop", nil))
}
