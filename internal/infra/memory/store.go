package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bicycle_rental/internal/domain/bicycle"
	"bicycle_rental/internal/domain/calendar"
	"bicycle_rental/internal/domain/catalog"
	"bicycle_rental/internal/domain/rental"
)

type state struct {
	bicycles map[int64]bicycle.Bicycle
	rentals  []rental.Record
	logs     []rental.LogEntry
}

func newState() state {
	return state{bicycles: make(map[int64]bicycle.Bicycle)}
}

func (s state) clone() state {
	cloned := state{
		bicycles: make(map[int64]bicycle.Bicycle, len(s.bicycles)),
		rentals:  make([]rental.Record, len(s.rentals)),
		logs:     make([]rental.LogEntry, len(s.logs)),
	}
	for k, v := range s.bicycles {
		cloned.bicycles[k] = v
	}
	copy(cloned.rentals, s.rentals)
	copy(cloned.logs, s.logs)
	return cloned
}

// Store keeps the fleet in process memory. A write transaction works on a
// copy of the state that replaces the committed state only when fn succeeds.
// Write transactions are serialised by the store lock.
type Store struct {
	mu      sync.RWMutex
	state   state
	catalog []catalog.Entry
}

func NewStore() *Store {
	return &Store{state: newState()}
}

// SeedBicycles adds or replaces bicycles outside of any transaction.
func (s *Store) SeedBicycles(bicycles ...bicycle.Bicycle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bicycles {
		s.state.bicycles[b.ID] = b
	}
}

// SeedRentals appends history records outside of any transaction.
func (s *Store) SeedRentals(records ...rental.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return err
		}
	}
	s.state.rentals = append(s.state.rentals, records...)
	return nil
}

// SeedCatalog appends catalog entries.
func (s *Store) SeedCatalog(entries ...catalog.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = append(s.catalog, entries...)
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx rental.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// View executes fn against a snapshot that is discarded afterwards.
func (s *Store) View(ctx context.Context, fn func(tx rental.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	return fn(&transaction{state: snapshot})
}

// ListUsageHistory returns every bicycle joined with its rental records, in
// bicycle ID order and then insertion order. Bicycles never rented yield one
// row without rental dates.
func (s *Store) ListUsageHistory(ctx context.Context) ([]catalog.UsageRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.state.bicycles))
	for id := range s.state.bicycles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([]catalog.UsageRow, 0, len(s.state.rentals)+len(ids))
	for _, id := range ids {
		b := s.state.bicycles[id]
		base := catalog.UsageRow{
			BicycleID:   b.ID,
			Brand:       b.Brand,
			Type:        b.Type,
			FrameSize:   b.FrameSize,
			DailyRate:   b.DailyRate,
			WeeklyRate:  b.WeeklyRate,
			Status:      b.Status,
			Condition:   b.Condition,
			InventoryID: b.InventoryID,
		}
		if !b.DateOfPurchase.IsZero() {
			base.DateOfPurchase = calendar.SomeDate(b.DateOfPurchase)
		}

		rented := false
		for _, r := range s.state.rentals {
			if r.BicycleID != id {
				continue
			}
			row := base
			row.RentalDate = calendar.SomeDate(r.RentalDate)
			row.ReturnDate = calendar.SomeDate(r.ReturnDate)
			rows = append(rows, row)
			rented = true
		}
		if !rented {
			rows = append(rows, base)
		}
	}
	return rows, nil
}

func (s *Store) ListEntries(ctx context.Context) ([]catalog.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Entry, len(s.catalog))
	copy(out, s.catalog)
	return out, nil
}

type transaction struct {
	state state
}

func (tx *transaction) GetBicycle(ctx context.Context, id int64) (*bicycle.Bicycle, error) {
	b, ok := tx.state.bicycles[id]
	if !ok {
		return nil, fmt.Errorf("bicycle %d: %w", id, rental.ErrBicycleNotFound)
	}
	return &b, nil
}

func (tx *transaction) SetBicycleStatus(ctx context.Context, id int64, status bicycle.Status, condition *bicycle.Condition) error {
	b, ok := tx.state.bicycles[id]
	if !ok {
		return fmt.Errorf("bicycle %d: %w", id, rental.ErrBicycleNotFound)
	}
	b.Status = status
	if condition != nil {
		b.Condition = *condition
	}
	tx.state.bicycles[id] = b
	return nil
}

// latestRental returns the index of the bicycle's record with the greatest
// rental date; among equal dates the one inserted last wins.
func (tx *transaction) latestRental(bicycleID int64) int {
	latest := -1
	for i, r := range tx.state.rentals {
		if r.BicycleID != bicycleID {
			continue
		}
		if latest < 0 || !r.RentalDate.Before(tx.state.rentals[latest].RentalDate) {
			latest = i
		}
	}
	return latest
}

func (tx *transaction) GetLatestOpenRental(ctx context.Context, bicycleID int64) (*rental.Record, error) {
	b, ok := tx.state.bicycles[bicycleID]
	if !ok {
		return nil, fmt.Errorf("bicycle %d: %w", bicycleID, rental.ErrBicycleNotFound)
	}
	if !b.IsRented() {
		return nil, fmt.Errorf("bicycle %d is %s: %w", bicycleID, b.Status, rental.ErrRentalNotFound)
	}
	i := tx.latestRental(bicycleID)
	if i < 0 {
		return nil, fmt.Errorf("bicycle %d: %w", bicycleID, rental.ErrRentalNotFound)
	}
	r := tx.state.rentals[i]
	return &r, nil
}

func (tx *transaction) InsertRental(ctx context.Context, record *rental.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if _, ok := tx.state.bicycles[record.BicycleID]; !ok {
		return fmt.Errorf("bicycle %d: %w", record.BicycleID, rental.ErrBicycleNotFound)
	}
	tx.state.rentals = append(tx.state.rentals, *record)
	return nil
}

func (tx *transaction) UpdateRentalReturnDate(ctx context.Context, bicycleID int64, oldReturnDate, newReturnDate calendar.Date) error {
	updated := 0
	for i := range tx.state.rentals {
		r := &tx.state.rentals[i]
		if r.BicycleID != bicycleID || !r.ReturnDate.Equal(oldReturnDate) {
			continue
		}
		next := *r
		next.ReturnDate = newReturnDate
		if err := next.Validate(); err != nil {
			return err
		}
		*r = next
		updated++
	}
	if updated == 0 {
		return fmt.Errorf("bicycle %d due %s: %w", bicycleID, oldReturnDate, rental.ErrRentalNotFound)
	}
	return nil
}

func (tx *transaction) CountOpenRentals(ctx context.Context, memberID string, asOf calendar.Date) (int, error) {
	count := 0
	for _, r := range tx.state.rentals {
		if r.MemberID == memberID && r.ReturnDate.After(asOf) {
			count++
		}
	}
	return count, nil
}

func (tx *transaction) ListOpenRentals(ctx context.Context) ([]*rental.Record, error) {
	out := make([]*rental.Record, 0)
	for id, b := range tx.state.bicycles {
		if !b.IsRented() {
			continue
		}
		if i := tx.latestRental(id); i >= 0 {
			r := tx.state.rentals[i]
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReturnDate.Equal(out[j].ReturnDate) {
			return out[i].ReturnDate.Before(out[j].ReturnDate)
		}
		return out[i].BicycleID < out[j].BicycleID
	})
	return out, nil
}

func (tx *transaction) AppendLog(ctx context.Context, entry *rental.LogEntry) error {
	if _, ok := tx.state.bicycles[entry.BicycleID]; !ok {
		return fmt.Errorf("bicycle %d: %w", entry.BicycleID, rental.ErrBicycleNotFound)
	}
	tx.state.logs = append(tx.state.logs, *entry)
	return nil
}

func (tx *transaction) ListLogEntries(ctx context.Context, bicycleID int64) ([]*rental.LogEntry, error) {
	out := make([]*rental.LogEntry, 0)
	for _, e := range tx.state.logs {
		if e.BicycleID == bicycleID {
			entry := e
			out = append(out, &entry)
		}
	}
	return out, nil
}
