package app_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"bicycle_rental/internal/app"
	"bicycle_rental/internal/domain/bicycle"
	"bicycle_rental/internal/domain/calendar"
	"bicycle_rental/internal/domain/member"
	"bicycle_rental/internal/domain/rental"
	"bicycle_rental/internal/infra/membership"
	"bicycle_rental/internal/infra/memory"
)

var fixedNow = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

var today = calendar.DateOf(fixedNow)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// testClock is a settable time source shared by every service of a fixture.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) AdvanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}

type observation struct {
	operation string
	outcome   string
}

type recordingMetrics struct {
	mu           sync.Mutex
	observations []observation
}

func (m *recordingMetrics) Observe(_ context.Context, operation, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observations = append(m.observations, observation{operation: operation, outcome: outcome})
}

func (m *recordingMetrics) last() observation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.observations) == 0 {
		return observation{}
	}
	return m.observations[len(m.observations)-1]
}

// failingStore fails every unit of work before fn runs.
type failingStore struct {
	err error
}

func (s failingStore) RunInTransaction(context.Context, func(tx rental.Tx) error) error { return s.err }
func (s failingStore) View(context.Context, func(tx rental.Tx) error) error             { return s.err }

type fixture struct {
	store        *memory.Store
	members      *membership.Store
	clock        *testClock
	metrics      *recordingMetrics
	membership   *app.MembershipValidator
	availability *app.AvailabilityChecker
	rentals      *app.RentalService
	returns      *app.ReturnService
	overdue      *app.OverdueService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.NewStore(),
		members: membership.NewStaticStore(
			member.Member{ID: "M1", Active: true, RentalLimit: 2},
			member.Member{ID: "M2", Active: false, RentalLimit: 2},
			member.Member{ID: "M3", Active: true, RentalLimit: 1},
		),
		clock:   &testClock{now: fixedNow},
		metrics: &recordingMetrics{},
	}
	f.store.SeedBicycles(
		bicycle.Bicycle{ID: 1, Brand: "Trek", Type: "Road", FrameSize: "M", DailyRate: 10, WeeklyRate: 60,
			Status: bicycle.StatusAvailable, Condition: bicycle.ConditionGood, InventoryID: 100,
			DateOfPurchase: calendar.MustParseDate("2023-06-11")},
		bicycle.Bicycle{ID: 2, Brand: "Giant", Type: "Mountain", FrameSize: "L", DailyRate: 10, WeeklyRate: 60,
			Status: bicycle.StatusRented, Condition: bicycle.ConditionGood, InventoryID: 200,
			DateOfPurchase: calendar.MustParseDate("2022-06-10")},
		bicycle.Bicycle{ID: 3, Brand: "Brompton", Type: "Folding", FrameSize: "S", DailyRate: 15, WeeklyRate: 80,
			Status: bicycle.StatusUnavailable, Condition: bicycle.ConditionDamaged, InventoryID: 300},
	)

	opts := []app.Option{app.WithClock(f.clock.Now), app.WithMetrics(f.metrics)}
	logger := testLogger()
	f.membership = app.NewMembershipValidator(f.members, f.store, logger, opts...)
	f.availability = app.NewAvailabilityChecker(f.store, logger)
	f.rentals = app.NewRentalService(f.store, f.membership, f.availability, logger, opts...)
	f.returns = app.NewReturnService(f.store, logger, opts...)
	f.overdue = app.NewOverdueService(f.store, logger, opts...)
	return f
}

// seedOpenRental records a rental of bicycle 2 by M1 due on the given day.
func (f *fixture) seedOpenRental(t *testing.T, due calendar.Date) {
	t.Helper()
	require.NoError(t, f.store.SeedRentals(rental.Record{
		BicycleID:  2,
		MemberID:   "M1",
		RentalDate: due.AddDays(-5),
		ReturnDate: due,
	}))
}

func (f *fixture) bicycle(t *testing.T, id int64) *bicycle.Bicycle {
	t.Helper()
	var b *bicycle.Bicycle
	require.NoError(t, f.store.View(context.Background(), func(tx rental.Tx) error {
		var err error
		b, err = tx.GetBicycle(context.Background(), id)
		return err
	}))
	return b
}

func (f *fixture) logEntries(t *testing.T, bicycleID int64) []*rental.LogEntry {
	t.Helper()
	var entries []*rental.LogEntry
	require.NoError(t, f.store.View(context.Background(), func(tx rental.Tx) error {
		var err error
		entries, err = tx.ListLogEntries(context.Background(), bicycleID)
		return err
	}))
	return entries
}

func countOpen(ctx context.Context, f *fixture, memberID string, asOf calendar.Date) (int, error) {
	var count int
	err := f.store.View(ctx, func(tx rental.Tx) error {
		var err error
		count, err = tx.CountOpenRentals(ctx, memberID, asOf)
		return err
	})
	return count, err
}
