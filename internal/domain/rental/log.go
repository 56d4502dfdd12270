package rental

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bicycle_rental/internal/domain/bicycle"
)

// LogEntry is the append-only audit record written for every processed return.
// Corresponds to the 'log_entries' table.
type LogEntry struct {
	ID           uuid.UUID
	BicycleID    int64
	ActionAt     time.Time
	LateFee      decimal.Decimal
	DamageCharge decimal.Decimal
	DamageNote   sql.NullString
	StatusChange bicycle.Condition // condition the bicycle was left in
}

// NewLogEntry stamps a fresh entry with an ID and the action time.
func NewLogEntry(bicycleID int64, at time.Time, lateFee, damageCharge decimal.Decimal, note string, condition bicycle.Condition) *LogEntry {
	entry := &LogEntry{
		ID:           uuid.New(),
		BicycleID:    bicycleID,
		ActionAt:     at.UTC(),
		LateFee:      lateFee,
		DamageCharge: damageCharge,
		StatusChange: condition,
	}
	if note != "" {
		entry.DamageNote = sql.NullString{String: note, Valid: true}
	}
	return entry
}
