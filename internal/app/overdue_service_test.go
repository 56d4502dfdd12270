package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bicycle_rental/internal/app"
	"bicycle_rental/internal/domain/bicycle"
	"bicycle_rental/internal/domain/rental"
)

func Test_OverdueService_Report(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedOpenRental(t, today.AddDays(-3))

	f.store.SeedBicycles(bicycle.Bicycle{ID: 5, Brand: "Trek", Type: "Road", DailyRate: 20, WeeklyRate: 100, Status: bicycle.StatusRented})
	require.NoError(t, f.store.SeedRentals(
		rental.Record{BicycleID: 5, MemberID: "M3", RentalDate: today.AddDays(-2), ReturnDate: today.AddDays(2)},
	))

	overdue, err := f.overdue.Report(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)

	assert.Equal(t, int64(2), overdue[0].BicycleID)
	assert.Equal(t, "M1", overdue[0].MemberID)
	assert.Equal(t, "Giant", overdue[0].Brand)
	assert.Equal(t, 3, overdue[0].OverdueDays)
	assert.Equal(t, "45.00", overdue[0].AccruedFee.StringFixed(2))
	assert.Equal(t, observation{operation: app.OperationOverdueReport, outcome: "success"}, f.metrics.last())

	// the report itself changes nothing
	assert.Equal(t, bicycle.StatusRented, f.bicycle(t, 2).Status)
}

func Test_OverdueService_Report_Empty(t *testing.T) {
	overdue, err := newFixture(t).overdue.Report(context.Background())
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func Test_OverdueService_Report_StoreFailure(t *testing.T) {
	service := app.NewOverdueService(failingStore{err: rental.ErrWriteConflict}, testLogger())

	_, err := service.Report(context.Background())
	require.Error(t, err)
	assert.Equal(t, app.ReasonPersistenceFailure, app.ReasonOf(err))
}
