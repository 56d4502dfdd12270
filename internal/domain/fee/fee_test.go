package fee_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"bicycle_rental/internal/domain/fee"
)

func Test_RentalCost_DailyAndWeeklyRates(t *testing.T) {
	testCases := []struct {
		name     string
		days     int
		expected int64
	}{
		{name: "zero days", days: 0, expected: 0},
		{name: "negative days", days: -3, expected: 0},
		{name: "one day", days: 1, expected: 10},
		{name: "six days", days: 6, expected: 60},
		{name: "one week", days: 7, expected: 60},
		{name: "one week and a day", days: 8, expected: 70},
		{name: "ten days", days: 10, expected: 90},
		{name: "two weeks", days: 14, expected: 120},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cost := fee.RentalCost(tc.days, 10, 60)
			assert.True(t, decimal.NewFromInt(tc.expected).Equal(cost), "got %s", cost)
		})
	}
}

func Test_RentalCost_MonotonicWhenWeeklyRateCoversSixDays(t *testing.T) {
	previous := decimal.Zero
	for days := 0; days <= 60; days++ {
		cost := fee.RentalCost(days, 10, 60)
		assert.True(t, cost.GreaterThanOrEqual(previous), "cost dropped at %d days", days)
		previous = cost
	}
}

func Test_LateFee(t *testing.T) {
	assert.True(t, fee.LateFee(0, 10).IsZero())
	assert.True(t, fee.LateFee(-2, 10).IsZero())

	for d := 1; d <= 30; d++ {
		expected := decimal.NewFromInt(int64(d) * 15)
		assert.True(t, expected.Equal(fee.LateFee(d, 10)), "overdue days %d", d)
	}

	assert.Equal(t, "45.00", fee.Display(fee.LateFee(3, 10)))
}

func Test_OverdueDays_ClampsAtZero(t *testing.T) {
	assert.Equal(t, 0, fee.OverdueDays(-1))
	assert.Equal(t, 0, fee.OverdueDays(0))
	assert.Equal(t, 4, fee.OverdueDays(4))
}

func Test_Display_KeepsStoredPrecision(t *testing.T) {
	amount := decimal.RequireFromString("12.345")
	assert.Equal(t, "12.35", fee.Display(amount))
	assert.Equal(t, "12.345", amount.String())
}
