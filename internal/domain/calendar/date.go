// internal/domain/calendar/date.go
package calendar

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Layout is the storage and display format of a calendar date.
const Layout = "2006-01-02"

// Date is a calendar day without time-of-day. The zero value means "no date".
type Date struct {
	t time.Time // always midnight UTC
}

// DateOf takes the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return Date{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// NewDate builds a date from its parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts "2006-01-02" and, for values read back from a database
// driver as text, any RFC3339 timestamp (only the date part is kept).
func ParseDate(s string) (Date, error) {
	if len(s) >= len(Layout) {
		if t, err := time.Parse(Layout, s[:len(Layout)]); err == nil {
			return Date{t: t}, nil
		}
	}
	return Date{}, fmt.Errorf("invalid calendar date %q", s)
}

// MustParseDate is ParseDate for literals in tests and fixtures.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool { return d.t.IsZero() }

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return d.t }

func (d Date) AddDays(n int) Date {
	if d.IsZero() {
		return d
	}
	return Date{t: d.t.AddDate(0, 0, n)}
}

// DaysSince returns d - other in whole days (negative when d is earlier).
func (d Date) DaysSince(other Date) int {
	return int(d.t.Sub(other.t).Hours() / 24)
}

func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

// Scan implements sql.Scanner. Postgres DATE columns arrive as time.Time,
// SQLite TEXT columns as string or []byte. NULL scans into the zero Date.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into calendar.Date", src)
	}
}

// Value implements driver.Valuer; dates are written as "2006-01-02".
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// NullDate is a Date that may be missing, like sql.NullTime.
type NullDate struct {
	Date  Date
	Valid bool
}

func SomeDate(d Date) NullDate { return NullDate{Date: d, Valid: !d.IsZero()} }

func (n *NullDate) Scan(src any) error {
	if src == nil {
		n.Date, n.Valid = Date{}, false
		return nil
	}
	if s, ok := src.(string); ok && s == "" {
		n.Date, n.Valid = Date{}, false
		return nil
	}
	if err := n.Date.Scan(src); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n NullDate) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Date.Value()
}
