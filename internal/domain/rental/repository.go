// internal/domain/rental/repository.go
package rental

import (
	"context"
	"fmt"

	"bicycle_rental/internal/domain/bicycle"
	"bicycle_rental/internal/domain/calendar"
)

// Store errors shared by every backend.
var ErrBicycleNotFound = fmt.Errorf("bicycle not found")
var ErrRentalNotFound = fmt.Errorf("rental record not found")
var ErrWriteConflict = fmt.Errorf("concurrent write conflict, retry the operation")

// Tx is a single unit of work. All reads and writes of one rent or return
// go through the same Tx and become visible together on commit.
type Tx interface {
	// Bicycle methods
	GetBicycle(ctx context.Context, id int64) (*bicycle.Bicycle, error)
	// SetBicycleStatus updates the status and, when condition is non-nil, the condition.
	SetBicycleStatus(ctx context.Context, id int64, status bicycle.Status, condition *bicycle.Condition) error

	// Rental history methods
	// GetLatestOpenRental returns the most recent record of a bicycle that is currently Rented.
	GetLatestOpenRental(ctx context.Context, bicycleID int64) (*Record, error)
	InsertRental(ctx context.Context, record *Record) error
	UpdateRentalReturnDate(ctx context.Context, bicycleID int64, oldReturnDate, newReturnDate calendar.Date) error
	// CountOpenRentals counts the member's records whose ReturnDate is strictly after asOf.
	CountOpenRentals(ctx context.Context, memberID string, asOf calendar.Date) (int, error)
	// ListOpenRentals returns the latest record of every Rented bicycle, earliest due first.
	ListOpenRentals(ctx context.Context) ([]*Record, error)

	// Audit log methods
	AppendLog(ctx context.Context, entry *LogEntry) error
	ListLogEntries(ctx context.Context, bicycleID int64) ([]*LogEntry, error)
}

// Store hands out units of work. The Tx passed to fn must not be retained.
type Store interface {
	// RunInTransaction commits when fn returns nil and rolls back otherwise.
	// The error returned by fn is passed through unchanged.
	RunInTransaction(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn in a unit of work that is always rolled back.
	View(ctx context.Context, fn func(tx Tx) error) error
}
