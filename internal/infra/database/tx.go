package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bicycle_rental/internal/domain/bicycle"
	"bicycle_rental/internal/domain/calendar"
	"bicycle_rental/internal/domain/rental"
)

// actionAtLayout is a fixed-width UTC layout so that text columns sort in time order.
const actionAtLayout = "2006-01-02T15:04:05.000000Z"

const bicycleColumns = `bicycle_id, brand, type, frame_size, daily_rate, weekly_rate,
               status, date_of_purchase, condition, inventory_id`

const rentalColumns = `r.bicycle_id, r.member_id, r.rental_date, r.return_date`

type sqlTx struct {
	tx       *sqlx.Tx
	lockRows bool
}

func (t *sqlTx) get(ctx context.Context, dest any, query string, args ...any) error {
	return t.tx.GetContext(ctx, dest, t.tx.Rebind(query), args...)
}

func (t *sqlTx) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return t.tx.SelectContext(ctx, dest, t.tx.Rebind(query), args...)
}

func (t *sqlTx) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *sqlTx) GetBicycle(ctx context.Context, id int64) (*bicycle.Bicycle, error) {
	query := `SELECT ` + bicycleColumns + ` FROM bicycle_info WHERE bicycle_id = ?`
	if t.lockRows {
		query += ` FOR UPDATE`
	}
	b := &bicycle.Bicycle{}
	if err := t.get(ctx, b, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bicycle %d: %w", id, rental.ErrBicycleNotFound)
		}
		return nil, wrap("getting bicycle", err)
	}
	return b, nil
}

func (t *sqlTx) SetBicycleStatus(ctx context.Context, id int64, status bicycle.Status, condition *bicycle.Condition) error {
	var (
		affected int64
		err      error
	)
	if condition != nil {
		affected, err = t.exec(ctx, `UPDATE bicycle_info SET status = ?, condition = ? WHERE bicycle_id = ?`,
			string(status), string(*condition), id)
	} else {
		affected, err = t.exec(ctx, `UPDATE bicycle_info SET status = ? WHERE bicycle_id = ?`, string(status), id)
	}
	if err != nil {
		return wrap("updating bicycle status", err)
	}
	if affected == 0 {
		return fmt.Errorf("bicycle %d: %w", id, rental.ErrBicycleNotFound)
	}
	return nil
}

func (t *sqlTx) bicycleExists(ctx context.Context, id int64) (bool, error) {
	var count int
	if err := t.get(ctx, &count, `SELECT COUNT(*) FROM bicycle_info WHERE bicycle_id = ?`, id); err != nil {
		return false, wrap("checking bicycle", err)
	}
	return count > 0, nil
}

func (t *sqlTx) GetLatestOpenRental(ctx context.Context, bicycleID int64) (*rental.Record, error) {
	query := `SELECT ` + rentalColumns + `
               FROM rental_history r
               JOIN bicycle_info b ON b.bicycle_id = r.bicycle_id
               WHERE r.bicycle_id = ? AND LOWER(b.status) = 'rented'
               ORDER BY r.rental_date DESC, r.rental_id DESC
               LIMIT 1`
	record := &rental.Record{}
	err := t.get(ctx, record, query, bicycleID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, wrap("getting latest open rental", err)
	}

	exists, existsErr := t.bicycleExists(ctx, bicycleID)
	if existsErr != nil {
		return nil, existsErr
	}
	if !exists {
		return nil, fmt.Errorf("bicycle %d: %w", bicycleID, rental.ErrBicycleNotFound)
	}
	return nil, fmt.Errorf("bicycle %d: %w", bicycleID, rental.ErrRentalNotFound)
}

func (t *sqlTx) InsertRental(ctx context.Context, record *rental.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	_, err := t.exec(ctx, `INSERT INTO rental_history (bicycle_id, member_id, rental_date, return_date)
               VALUES (?, ?, ?, ?)`,
		record.BicycleID, record.MemberID, record.RentalDate, record.ReturnDate)
	return wrap("inserting rental", err)
}

func (t *sqlTx) UpdateRentalReturnDate(ctx context.Context, bicycleID int64, oldReturnDate, newReturnDate calendar.Date) error {
	affected, err := t.exec(ctx, `UPDATE rental_history SET return_date = ?
               WHERE bicycle_id = ? AND return_date = ?`,
		newReturnDate, bicycleID, oldReturnDate)
	if err != nil {
		return wrap("updating rental return date", err)
	}
	if affected == 0 {
		return fmt.Errorf("bicycle %d due %s: %w", bicycleID, oldReturnDate, rental.ErrRentalNotFound)
	}
	return nil
}

func (t *sqlTx) CountOpenRentals(ctx context.Context, memberID string, asOf calendar.Date) (int, error) {
	var count int
	err := t.get(ctx, &count, `SELECT COUNT(*) FROM rental_history WHERE member_id = ? AND return_date > ?`, memberID, asOf)
	if err != nil {
		return 0, wrap("counting open rentals", err)
	}
	return count, nil
}

func (t *sqlTx) ListOpenRentals(ctx context.Context) ([]*rental.Record, error) {
	query := `SELECT ` + rentalColumns + `
               FROM rental_history r
               JOIN bicycle_info b ON b.bicycle_id = r.bicycle_id
               WHERE LOWER(b.status) = 'rented'
                 AND r.rental_id = (
                     SELECT r2.rental_id FROM rental_history r2
                     WHERE r2.bicycle_id = r.bicycle_id
                     ORDER BY r2.rental_date DESC, r2.rental_id DESC
                     LIMIT 1)
               ORDER BY r.return_date, r.bicycle_id`
	records := make([]*rental.Record, 0)
	if err := t.selectAll(ctx, &records, query); err != nil {
		return nil, wrap("listing open rentals", err)
	}
	return records, nil
}

type logRow struct {
	ID           uuid.UUID         `db:"log_id"`
	BicycleID    int64             `db:"bicycle_id"`
	ActionAt     string            `db:"action_at"`
	LateFee      decimal.Decimal   `db:"late_fee"`
	DamageCharge decimal.Decimal   `db:"damage_charge"`
	DamageNote   sql.NullString    `db:"damage_note"`
	StatusChange bicycle.Condition `db:"status_change"`
}

func (t *sqlTx) AppendLog(ctx context.Context, entry *rental.LogEntry) error {
	_, err := t.exec(ctx, `INSERT INTO log_entries
               (log_id, bicycle_id, action_at, late_fee, damage_charge, damage_note, status_change)
               VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID.String(),
		entry.BicycleID,
		entry.ActionAt.UTC().Format(actionAtLayout),
		entry.LateFee.String(),
		entry.DamageCharge.String(),
		entry.DamageNote,
		string(entry.StatusChange),
	)
	return wrap("appending log entry", err)
}

func (t *sqlTx) ListLogEntries(ctx context.Context, bicycleID int64) ([]*rental.LogEntry, error) {
	var rows []logRow
	err := t.selectAll(ctx, &rows, `SELECT log_id, bicycle_id, action_at, late_fee, damage_charge, damage_note, status_change
               FROM log_entries WHERE bicycle_id = ? ORDER BY action_at`, bicycleID)
	if err != nil {
		return nil, wrap("listing log entries", err)
	}

	entries := make([]*rental.LogEntry, 0, len(rows))
	for _, row := range rows {
		at, err := time.Parse(time.RFC3339Nano, row.ActionAt)
		if err != nil {
			return nil, fmt.Errorf("error parsing action_at of log entry %s: %w", row.ID, err)
		}
		entries = append(entries, &rental.LogEntry{
			ID:           row.ID,
			BicycleID:    row.BicycleID,
			ActionAt:     at.UTC(),
			LateFee:      row.LateFee,
			DamageCharge: row.DamageCharge,
			DamageNote:   row.DamageNote,
			StatusChange: row.StatusChange,
		})
	}
	return entries, nil
}
