package bicycle

import (
	"strings"

	"bicycle_rental/internal/domain/calendar"
)

// Status is the rentable state of a bicycle. Stored values are compared
// case-insensitively because imported data is not normalised.
type Status string

const (
	StatusAvailable        Status = "Available"
	StatusRented           Status = "Rented"
	StatusUnavailable      Status = "Unavailable"
	StatusUnderMaintenance Status = "Under Maintenance" // appears in imported history only
)

// Is reports whether s names the same status as other, ignoring case.
func (s Status) Is(other Status) bool {
	return strings.EqualFold(string(s), string(other))
}

// Condition is the physical state recorded on return.
type Condition string

const (
	ConditionNew     Condition = "New"
	ConditionGood    Condition = "Good"
	ConditionDamaged Condition = "Damaged"
)

// Bicycle is a single rentable unit of the fleet.
type Bicycle struct {
	ID             int64         `db:"bicycle_id"`
	Brand          string        `db:"brand"`
	Type           string        `db:"type"`
	FrameSize      string        `db:"frame_size"`
	DailyRate      int64         `db:"daily_rate"`
	WeeklyRate     int64         `db:"weekly_rate"`
	Status         Status        `db:"status"`
	DateOfPurchase calendar.Date `db:"date_of_purchase"`
	Condition      Condition     `db:"condition"`
	InventoryID    int64         `db:"inventory_id"`
}

func (b *Bicycle) IsAvailable() bool { return b.Status.Is(StatusAvailable) }

func (b *Bicycle) IsRented() bool { return b.Status.Is(StatusRented) }
