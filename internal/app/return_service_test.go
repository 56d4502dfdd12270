package app_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bicycle_rental/internal/app"
	"bicycle_rental/internal/domain/bicycle"
	"bicycle_rental/internal/domain/rental"
	"bicycle_rental/internal/infra/memory"
)

func Test_ReturnService_ProcessReturn_Overdue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedOpenRental(t, today.AddDays(-3))

	summary, err := f.returns.ProcessReturn(ctx, 2, money(0), "")
	require.NoError(t, err)

	assert.Equal(t, 3, summary.OverdueDays)
	assert.Equal(t, "45.00", summary.LateFee.StringFixed(2))
	assert.True(t, summary.Total.Equal(money(45)))
	assert.Equal(t, bicycle.StatusAvailable, summary.NewStatus)
	assert.Equal(t, bicycle.ConditionGood, summary.NewCondition)

	b := f.bicycle(t, 2)
	assert.Equal(t, bicycle.StatusAvailable, b.Status)
	assert.Equal(t, bicycle.ConditionGood, b.Condition)

	// the scheduled return date was rewritten to the actual return day
	count, err := countOpen(ctx, f, "M1", today.AddDays(-1))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	entries := f.logEntries(t, 2)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].LateFee.Equal(money(45)))
	assert.True(t, entries[0].DamageCharge.IsZero())
	assert.False(t, entries[0].DamageNote.Valid)
	assert.Equal(t, bicycle.ConditionGood, entries[0].StatusChange)
	assert.True(t, fixedNow.Equal(entries[0].ActionAt))
}

func Test_ReturnService_ProcessReturn_OnDueDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedOpenRental(t, today)

	summary, err := f.returns.ProcessReturn(ctx, 2, money(0), "")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.OverdueDays)
	assert.True(t, summary.LateFee.IsZero())
	assert.True(t, summary.ScheduledFor.Equal(today))
}

func Test_ReturnService_ProcessReturn_NotYetDue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedOpenRental(t, today.AddDays(1))

	_, err := f.returns.ProcessReturn(ctx, 2, money(0), "")
	require.Error(t, err)
	assert.Equal(t, app.ReasonReturnNotYetDue, app.ReasonOf(err))

	assert.Equal(t, bicycle.StatusRented, f.bicycle(t, 2).Status)
	assert.Empty(t, f.logEntries(t, 2))
}

func Test_ReturnService_ProcessReturn_Damaged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedOpenRental(t, today.AddDays(-1))

	summary, err := f.returns.ProcessReturn(ctx, 2, decimal.RequireFromString("25.50"), "bent wheel")
	require.NoError(t, err)

	assert.Equal(t, "15.00", summary.LateFee.StringFixed(2))
	assert.Equal(t, "40.50", summary.Total.StringFixed(2))
	assert.Equal(t, "bent wheel", summary.DamageNote)

	b := f.bicycle(t, 2)
	assert.Equal(t, bicycle.StatusUnavailable, b.Status)
	assert.Equal(t, bicycle.ConditionDamaged, b.Condition)

	entries := f.logEntries(t, 2)
	require.Len(t, entries, 1)
	assert.Equal(t, "bent wheel", entries[0].DamageNote.String)
	assert.Equal(t, bicycle.ConditionDamaged, entries[0].StatusChange)
}

func Test_ReturnService_ProcessReturn_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.returns.ProcessReturn(ctx, 1, money(0), "")
	assert.Equal(t, app.ReasonNoOpenRental, app.ReasonOf(err))
	assert.Equal(t, "No rental record found for bicycle ID: 1.", err.Error())

	_, err = f.returns.ProcessReturn(ctx, 42, money(0), "")
	assert.Equal(t, app.ReasonNoOpenRental, app.ReasonOf(err))

	// rented but without a history record
	_, err = f.returns.ProcessReturn(ctx, 2, money(0), "")
	assert.Equal(t, app.ReasonNoOpenRental, app.ReasonOf(err))

	_, err = f.returns.ProcessReturn(ctx, 2, money(-1), "")
	assert.Equal(t, app.ReasonInvalidRequest, app.ReasonOf(err))
}

func Test_ReturnService_VerifyRented(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedOpenRental(t, today.AddDays(-3))

	testCases := []struct {
		name      string
		bicycleID int64
		verified  bool
		message   string
	}{
		{name: "rented", bicycleID: 2, verified: true, message: "Bicycle ID - 2 and rental status verified."},
		{name: "available", bicycleID: 1, message: "Bicycle ID - 1 found, but rental status is 'Available', not 'Rented'."},
		{name: "unknown", bicycleID: 42, message: "Bicycle ID - 42 not found."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := snapshot(t, f)

			verified, message := f.returns.VerifyRented(ctx, tc.bicycleID)
			assert.Equal(t, tc.verified, verified)
			assert.Equal(t, tc.message, message)

			assert.Equal(t, before, snapshot(t, f))
		})
	}
}

func Test_ReturnService_VerifyRented_CaseInsensitiveStatus(t *testing.T) {
	f := newFixture(t)
	f.store.SeedBicycles(bicycle.Bicycle{ID: 7, Brand: "Trek", Type: "Road", DailyRate: 10, WeeklyRate: 60, Status: "rented"})

	verified, _ := f.returns.VerifyRented(context.Background(), 7)
	assert.True(t, verified)
}

func Test_ReturnService_AuditTrail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedOpenRental(t, today.AddDays(-2))

	_, err := f.returns.ProcessReturn(ctx, 2, money(0), "")
	require.NoError(t, err)

	entries, err := f.returns.AuditTrail(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].LateFee.Equal(money(30)))

	_, err = f.returns.AuditTrail(ctx, 42)
	assert.Equal(t, app.ReasonNotFound, app.ReasonOf(err))
}

type stateSnapshot struct {
	bicycles []bicycle.Bicycle
	open     []rental.Record
	logs     int
}

func snapshot(t *testing.T, f *fixture) stateSnapshot {
	t.Helper()
	var s stateSnapshot
	require.NoError(t, f.store.View(context.Background(), func(tx rental.Tx) error {
		for _, id := range []int64{1, 2, 3} {
			b, err := tx.GetBicycle(context.Background(), id)
			if err != nil {
				return err
			}
			s.bicycles = append(s.bicycles, *b)
		}
		open, err := tx.ListOpenRentals(context.Background())
		if err != nil {
			return err
		}
		for _, r := range open {
			s.open = append(s.open, *r)
		}
		logs, err := tx.ListLogEntries(context.Background(), 2)
		s.logs = len(logs)
		return err
	}))
	return s
}

// staleRentalStore hands out an open rental record regardless of the
// bicycle's current status, as an unlocked read racing another return would.
type staleRentalStore struct {
	*memory.Store
	record rental.Record
}

type staleRentalTx struct {
	rental.Tx
	record rental.Record
}

func (tx staleRentalTx) GetLatestOpenRental(context.Context, int64) (*rental.Record, error) {
	r := tx.record
	return &r, nil
}

func (s staleRentalStore) RunInTransaction(ctx context.Context, fn func(tx rental.Tx) error) error {
	return s.Store.RunInTransaction(ctx, func(tx rental.Tx) error {
		return fn(staleRentalTx{Tx: tx, record: s.record})
	})
}

func Test_ReturnService_ProcessReturn_RechecksBicycleStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	store := staleRentalStore{Store: f.store, record: rental.Record{
		BicycleID:  3,
		MemberID:   "M1",
		RentalDate: today.AddDays(-5),
		ReturnDate: today.AddDays(-1),
	}}
	returns := app.NewReturnService(store, testLogger(), app.WithClock(f.clock.Now))

	_, err := returns.ProcessReturn(ctx, 3, money(0), "")
	require.Error(t, err)
	assert.Equal(t, app.ReasonNoOpenRental, app.ReasonOf(err))

	b := f.bicycle(t, 3)
	assert.Equal(t, bicycle.StatusUnavailable, b.Status)
	assert.Equal(t, bicycle.ConditionDamaged, b.Condition)
	assert.Empty(t, f.logEntries(t, 3))
}

func Test_ReturnService_ProcessReturn_ConcurrentReturnsSerialize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedOpenRental(t, today.AddDays(-3))

	const attempts = 16
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.returns.ProcessReturn(ctx, 2, money(0), "")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.Equal(t, app.ReasonNoOpenRental, app.ReasonOf(err))
	}
	assert.Equal(t, 1, successes)
	assert.Len(t, f.logEntries(t, 2), 1)
	assert.Equal(t, bicycle.StatusAvailable, f.bicycle(t, 2).Status)
}
