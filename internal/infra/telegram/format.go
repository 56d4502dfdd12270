package telegram

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bicycle_rental/internal/app"
	"bicycle_rental/internal/domain/fee"
	"bicycle_rental/internal/domain/rental"
)

func pounds(amount decimal.Decimal) string {
	return "£" + fee.Display(amount)
}

// FormatQuote renders the rental confirmation sent back to staff.
func FormatQuote(q *app.Quote) string {
	var b strings.Builder
	b.WriteString("Rental Confirmed!\n")
	fmt.Fprintf(&b, "- Bicycle ID: %d\n", q.BicycleID)
	fmt.Fprintf(&b, "- Bicycle: %s - %s\n", q.Brand, q.Type)
	fmt.Fprintf(&b, "- Daily Rate: £%d\n", q.DailyRate)
	fmt.Fprintf(&b, "- Weekly Rate: £%d\n", q.WeeklyRate)
	fmt.Fprintf(&b, "- Total Price: %s\n", pounds(q.Cost))
	fmt.Fprintf(&b, "- Status: %s\n", q.Status)
	fmt.Fprintf(&b, "- Rental Start: %s\n", q.RentalDate)
	fmt.Fprintf(&b, "- Expected Return: %s", q.ExpectedReturn)
	return b.String()
}

// FormatReturnSummary renders the charges of a processed return.
func FormatReturnSummary(s *app.ReturnSummary) string {
	note := s.DamageNote
	if note == "" {
		note = "None"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Return Summary for Bicycle ID: %d\n", s.BicycleID)
	b.WriteString("- Return Status: Successfully returned\n")
	if s.OverdueDays > 0 {
		fmt.Fprintf(&b, "- Days Overdue: %d (due %s)\n", s.OverdueDays, s.ScheduledFor)
	}
	fmt.Fprintf(&b, "- Late Fee: %s\n", pounds(s.LateFee))
	fmt.Fprintf(&b, "- Damage Charge: %s\n", pounds(s.DamageCharge))
	fmt.Fprintf(&b, "- Total Charges: %s\n", pounds(s.Total))
	fmt.Fprintf(&b, "- Damage Note: %s\n", note)
	fmt.Fprintf(&b, "- Bicycle is now %s (%s)", s.NewStatus, s.NewCondition)
	return b.String()
}

// FormatRecommendations renders a ranked recommendation list under its status message.
func FormatRecommendations(r app.RecommendationReport) string {
	var b strings.Builder
	b.WriteString(r.Message)
	for i, rec := range r.Items {
		fmt.Fprintf(&b, "\n%d. %s %s (inventory %d) score %.2f, rented %d times",
			i+1, rec.Brand, rec.Type, rec.InventoryID, rec.Score, rec.RentalFrequency)
		if rec.Entry != nil {
			fmt.Fprintf(&b, ", catalog price %s", pounds(rec.Entry.Price))
		}
	}
	return b.String()
}

// FormatPurchasePlan renders the allocation lines with the spent and remaining budget.
func FormatPurchasePlan(p app.PurchasePlan) string {
	var b strings.Builder
	b.WriteString(p.Message)
	for _, line := range p.Allocation.Lines {
		fmt.Fprintf(&b, "\n- %s %s (inventory %d): %d x %s = %s",
			line.Entry.Brand, line.Entry.Type, line.Entry.InventoryID,
			line.Units, pounds(line.Entry.Price), pounds(line.Spent))
	}
	fmt.Fprintf(&b, "\nTotal Spent: %s", pounds(p.Allocation.TotalSpent))
	fmt.Fprintf(&b, "\nBudget Left: %s", pounds(p.Allocation.Remaining))
	return b.String()
}

// FormatOverdueReport renders the open rentals past their scheduled return date.
func FormatOverdueReport(overdue []app.OverdueRental) string {
	if len(overdue) == 0 {
		return "No overdue rentals."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Overdue rentals (%d):", len(overdue))
	for _, o := range overdue {
		fmt.Fprintf(&b, "\n- Bicycle %d (%s %s), member %s, due %s, %d days overdue, late fee so far %s",
			o.BicycleID, o.Brand, o.Type, o.MemberID, o.ScheduledFor, o.OverdueDays, pounds(o.AccruedFee))
	}
	return b.String()
}

// FormatAuditTrail renders the log entries written by past returns of a bicycle.
func FormatAuditTrail(bicycleID int64, entries []*rental.LogEntry) string {
	if len(entries) == 0 {
		return fmt.Sprintf("No returns logged for bicycle %d.", bicycleID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Returns logged for bicycle %d:", bicycleID)
	for _, e := range entries {
		fmt.Fprintf(&b, "\n- %s: late fee %s, damage %s, left %s",
			e.ActionAt.Format("2006-01-02 15:04"), pounds(e.LateFee), pounds(e.DamageCharge), e.StatusChange)
		if e.DamageNote.Valid {
			fmt.Fprintf(&b, " (%s)", e.DamageNote.String)
		}
	}
	return b.String()
}
