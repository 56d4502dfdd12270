// Package fee holds the pricing rules for rentals and late returns.
// Everything here is pure; callers supply rates and durations.
package fee

import "github.com/shopspring/decimal"

// LatePremiumPerDay is charged on top of the daily rate for every overdue day.
const LatePremiumPerDay int64 = 5

// DaysPerWeek is the rental length at which the weekly rate kicks in.
const DaysPerWeek = 7

// RentalCost prices a rental of the given length. From one week on, whole
// weeks are charged at the weekly rate and the remaining days at the daily rate.
func RentalCost(rentalDays int, dailyRate, weeklyRate int64) decimal.Decimal {
	if rentalDays <= 0 {
		return decimal.Zero
	}
	var cost int64
	if rentalDays >= DaysPerWeek {
		weeks := int64(rentalDays / DaysPerWeek)
		extraDays := int64(rentalDays % DaysPerWeek)
		cost = weeks*weeklyRate + extraDays*dailyRate
	} else {
		cost = int64(rentalDays) * dailyRate
	}
	return nonNegative(decimal.NewFromInt(cost))
}

// LateFee charges overdueDays × (dailyRate + LatePremiumPerDay); zero when not overdue.
func LateFee(overdueDays int, dailyRate int64) decimal.Decimal {
	if overdueDays <= 0 {
		return decimal.Zero
	}
	return nonNegative(decimal.NewFromInt(int64(overdueDays) * (dailyRate + LatePremiumPerDay)))
}

// OverdueDays clamps a signed day difference at zero.
func OverdueDays(daysPastDue int) int {
	if daysPastDue < 0 {
		return 0
	}
	return daysPastDue
}

// Display renders an amount with two decimals without touching its stored precision.
func Display(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
