// internal/domain/rental/record.go
package rental

import (
	"fmt"

	"bicycle_rental/internal/domain/calendar"
)

// Record is one row of the rental history. ReturnDate holds the scheduled
// return until a late return rewrites it to the actual return day.
// Corresponds to the 'rental_history' table.
type Record struct {
	BicycleID  int64         `db:"bicycle_id"`
	MemberID   string        `db:"member_id"`
	RentalDate calendar.Date `db:"rental_date"`
	ReturnDate calendar.Date `db:"return_date"`
}

// Validate enforces RentalDate < ReturnDate.
func (r *Record) Validate() error {
	if r.RentalDate.IsZero() || r.ReturnDate.IsZero() {
		return fmt.Errorf("rental record for bicycle %d is missing a date", r.BicycleID)
	}
	if !r.RentalDate.Before(r.ReturnDate) {
		return fmt.Errorf("rental record for bicycle %d: rental date %s must be before return date %s",
			r.BicycleID, r.RentalDate, r.ReturnDate)
	}
	return nil
}
