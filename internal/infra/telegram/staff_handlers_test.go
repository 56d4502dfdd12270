package telegram

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	"bicycle_rental/internal/app"
	"bicycle_rental/internal/domain/bicycle"
	"bicycle_rental/internal/domain/calendar"
	"bicycle_rental/internal/domain/catalog"
	"bicycle_rental/internal/domain/member"
	"bicycle_rental/internal/domain/rental"
	"bicycle_rental/internal/infra/config"
	"bicycle_rental/internal/infra/membership"
	"bicycle_rental/internal/infra/memory"
)

const staffID int64 = 4242

var fixedNow = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

// fakeContext records replies; only the methods the handlers call are implemented.
type fakeContext struct {
	telebot.Context
	sender *telebot.User
	args   []string
	sent   []string
}

func (c *fakeContext) Sender() *telebot.User { return c.sender }
func (c *fakeContext) Args() []string        { return c.args }

func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	c.sent = append(c.sent, fmt.Sprint(what))
	return nil
}

func (c *fakeContext) reply(t *testing.T) string {
	t.Helper()
	require.Len(t, c.sent, 1)
	return c.sent[0]
}

type botFixture struct {
	store    *memory.Store
	handlers *StaffHandlers
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	logger := logrus.NewEntry(l)

	store := memory.NewStore()
	store.SeedBicycles(
		bicycle.Bicycle{ID: 1, Brand: "Trek", Type: "Road", DailyRate: 10, WeeklyRate: 60,
			Status: bicycle.StatusAvailable, Condition: bicycle.ConditionGood, InventoryID: 100,
			DateOfPurchase: calendar.MustParseDate("2023-06-11")},
		bicycle.Bicycle{ID: 2, Brand: "Giant", Type: "Mountain", DailyRate: 10, WeeklyRate: 60,
			Status: bicycle.StatusRented, Condition: bicycle.ConditionGood, InventoryID: 200,
			DateOfPurchase: calendar.MustParseDate("2022-06-10")},
	)
	require.NoError(t, store.SeedRentals(rental.Record{
		BicycleID:  2,
		MemberID:   "M1",
		RentalDate: calendar.MustParseDate("2024-06-02"),
		ReturnDate: calendar.MustParseDate("2024-06-07"),
	}))
	store.SeedCatalog(catalog.Entry{InventoryID: 900, Brand: "Trek", Type: "Road", Price: decimal.NewFromInt(1000)})

	members := membership.NewStaticStore(
		member.Member{ID: "M1", Active: true, RentalLimit: 2},
		member.Member{ID: "M2", Active: false, RentalLimit: 2},
	)
	opts := []app.Option{app.WithClock(func() time.Time { return fixedNow })}
	validator := app.NewMembershipValidator(members, store, logger, opts...)
	availability := app.NewAvailabilityChecker(store, logger)

	services := Services{
		Rentals:         app.NewRentalService(store, validator, availability, logger, opts...),
		Returns:         app.NewReturnService(store, logger, opts...),
		Recommendations: app.NewRecommendationService(store, logger, opts...),
		Overdue:         app.NewOverdueService(store, logger, opts...),
	}
	cfg := &config.AppConfig{
		StaffTelegramID:       staffID,
		DefaultPurchaseBudget: decimal.NewFromInt(2500),
		RecommendationTopN:    10,
	}
	return &botFixture{store: store, handlers: NewStaffHandlers(services, cfg, logger)}
}

func (f *botFixture) run(t *testing.T, command string, senderID int64, args ...string) *fakeContext {
	t.Helper()
	fn, ok := f.handlers.commands()[command]
	require.True(t, ok, "unknown command %s", command)

	c := &fakeContext{sender: &telebot.User{ID: senderID, FirstName: "Sam"}, args: args}
	require.NoError(t, f.handlers.guard(context.Background(), command, fn)(c))
	return c
}

func (f *botFixture) status(t *testing.T, id int64) bicycle.Status {
	t.Helper()
	var b *bicycle.Bicycle
	require.NoError(t, f.store.View(context.Background(), func(tx rental.Tx) error {
		var err error
		b, err = tx.GetBicycle(context.Background(), id)
		return err
	}))
	return b.Status
}

func Test_StaffHandlers_RejectsOtherUsers(t *testing.T) {
	f := newBotFixture(t)

	c := f.run(t, "/rent", 1, "M1", "1")

	assert.Equal(t, msgUnauthorized, c.reply(t))
	assert.Equal(t, bicycle.StatusAvailable, f.status(t, 1))
}

func Test_StaffHandlers_Rent(t *testing.T) {
	f := newBotFixture(t)

	reply := f.run(t, "/rent", staffID, "M1", "1", "3").reply(t)

	assert.Contains(t, reply, "Rental Confirmed!")
	assert.Contains(t, reply, "- Bicycle: Trek - Road")
	assert.Contains(t, reply, "- Total Price: £30.00")
	assert.Contains(t, reply, "- Expected Return: 2024-06-13")
	assert.Equal(t, bicycle.StatusRented, f.status(t, 1))
}

func Test_StaffHandlers_RentReplies(t *testing.T) {
	testCases := []struct {
		name  string
		args  []string
		reply string
	}{
		{name: "missing bicycle", args: []string{"M1"}, reply: "Invalid format. Use: /rent <MemberID> <BicycleID> [days]"},
		{name: "inactive member", args: []string{"M2", "1"}, reply: "Inactive membership."},
		{name: "unknown member", args: []string{"M9", "1"}, reply: "Invalid Member ID."},
		{name: "unknown bicycle", args: []string{"M1", "77"}, reply: "Invalid Bicycle ID: 77"},
		{name: "bad days", args: []string{"M1", "1", "zero"}, reply: `Error: rental days: expected a positive number, got "zero"`},
		{name: "bad bicycle id", args: []string{"M1", "abc"}, reply: `Error: bicycle ID must be a positive number, got "abc"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBotFixture(t)
			assert.Equal(t, tc.reply, f.run(t, "/rent", staffID, tc.args...).reply(t))
			assert.Equal(t, bicycle.StatusAvailable, f.status(t, 1))
		})
	}
}

func Test_StaffHandlers_VerifyAndReturn(t *testing.T) {
	f := newBotFixture(t)

	assert.Equal(t, "Bicycle ID - 2 and rental status verified.", f.run(t, "/verify", staffID, "2").reply(t))
	assert.Equal(t, "Bicycle ID - 1 found, but rental status is 'Available', not 'Rented'.",
		f.run(t, "/verify", staffID, "1").reply(t))

	reply := f.run(t, "/return", staffID, "2", "£20", "scratched", "frame").reply(t)
	assert.Contains(t, reply, "Return Summary for Bicycle ID: 2")
	assert.Contains(t, reply, "- Days Overdue: 3 (due 2024-06-07)")
	assert.Contains(t, reply, "- Late Fee: £45.00")
	assert.Contains(t, reply, "- Damage Charge: £20.00")
	assert.Contains(t, reply, "- Total Charges: £65.00")
	assert.Contains(t, reply, "- Damage Note: scratched frame")
	assert.Equal(t, bicycle.StatusUnavailable, f.status(t, 2))

	trail := f.run(t, "/log", staffID, "2").reply(t)
	assert.Contains(t, trail, "Returns logged for bicycle 2:")
	assert.Contains(t, trail, "late fee £45.00, damage £20.00, left Damaged (scratched frame)")

	assert.Equal(t, "No rental record found for bicycle ID: 2.", f.run(t, "/return", staffID, "2").reply(t))
	assert.Equal(t, "Bicycle ID - 9 not found.", f.run(t, "/log", staffID, "9").reply(t))
}

func Test_StaffHandlers_ReturnWithoutDamage(t *testing.T) {
	f := newBotFixture(t)

	reply := f.run(t, "/return", staffID, "2").reply(t)

	assert.Contains(t, reply, "- Damage Charge: £0.00")
	assert.Contains(t, reply, "- Damage Note: None")
	assert.Equal(t, bicycle.StatusAvailable, f.status(t, 2))
}

func Test_StaffHandlers_Overdue(t *testing.T) {
	f := newBotFixture(t)

	reply := f.run(t, "/overdue", staffID).reply(t)

	assert.Equal(t, "Overdue rentals (1):\n- Bicycle 2 (Giant Mountain), member M1, due 2024-06-07, 3 days overdue, late fee so far £45.00", reply)
}

func Test_StaffHandlers_Recommendations(t *testing.T) {
	f := newBotFixture(t)

	top := f.run(t, "/recommend", staffID, "1").reply(t)
	assert.Contains(t, top, app.MessageTopRecommendations)
	assert.Contains(t, top, "\n1. ")
	assert.NotContains(t, top, "\n2. ")

	replace := f.run(t, "/replace", staffID).reply(t)
	assert.Contains(t, replace, app.MessageReplacements)

	assert.Equal(t, `Error: expected a positive number, got "-1"`, f.run(t, "/recommend", staffID, "-1").reply(t))
}

func Test_StaffHandlers_Budget(t *testing.T) {
	f := newBotFixture(t)

	plan := f.run(t, "/budget", staffID).reply(t)

	assert.Contains(t, plan, app.AllocationStatusSuccess)
	assert.Contains(t, plan, "- Trek Road (inventory 900): 2 x £1000.00 = £2000.00")
	assert.Contains(t, plan, "Total Spent: £2000.00")
	assert.Contains(t, plan, "Budget Left: £500.00")

	small := f.run(t, "/budget", staffID, "500").reply(t)
	assert.Contains(t, small, app.MessageNoneWithinBudget)
	assert.Contains(t, small, "Budget Left: £500.00")

	negative := f.run(t, "/budget", staffID, "-5").reply(t)
	assert.Contains(t, negative, "Budget cannot be negative.")
}

func Test_StaffHandlers_Help(t *testing.T) {
	f := newBotFixture(t)

	help := f.run(t, "/help", staffID).reply(t)

	for command := range f.handlers.commands() {
		assert.Contains(t, help, command)
	}
	assert.Contains(t, help, "£2500.00")
}

func Test_FailureText_HidesUnexpectedErrors(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)

	assert.Equal(t, msgInternal, failureText(fmt.Errorf("connection reset"), logrus.NewEntry(l)))
}

func Test_FormatOverdueReport_Empty(t *testing.T) {
	assert.Equal(t, "No overdue rentals.", FormatOverdueReport(nil))
}
