package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"bicycle_rental/internal/app"
	"bicycle_rental/internal/infra/config"
)

const (
	msgUnauthorized = "Error: you are not allowed to run this command."
	msgInternal     = "Something went wrong. Please try again later."
)

// Services bundles the application services the staff bot drives.
type Services struct {
	Rentals         *app.RentalService
	Returns         *app.ReturnService
	Recommendations *app.RecommendationService
	Overdue         *app.OverdueService
}

// StaffHandlers serves the desk staff commands. Only the configured staff
// account may use them.
type StaffHandlers struct {
	services      Services
	staffID       int64
	defaultBudget decimal.Decimal
	defaultTopN   int
	logger        *logrus.Entry
}

func NewStaffHandlers(services Services, cfg *config.AppConfig, baseLogger *logrus.Entry) *StaffHandlers {
	return &StaffHandlers{
		services:      services,
		staffID:       cfg.StaffTelegramID,
		defaultBudget: cfg.DefaultPurchaseBudget,
		defaultTopN:   cfg.RecommendationTopN,
		logger:        baseLogger.WithField("handler_group", "staff"),
	}
}

type commandFunc func(ctx context.Context, c telebot.Context, logCtx *logrus.Entry) error

// Register binds every staff command to the bot.
func (h *StaffHandlers) Register(ctx context.Context, b *telebot.Bot) {
	for command, fn := range h.commands() {
		b.Handle(command, h.guard(ctx, command, fn))
	}
}

func (h *StaffHandlers) commands() map[string]commandFunc {
	return map[string]commandFunc{
		"/start":     h.start,
		"/help":      h.help,
		"/rent":      h.rent,
		"/verify":    h.verify,
		"/return":    h.processReturn,
		"/log":       h.auditTrail,
		"/recommend": h.recommend,
		"/replace":   h.replacements,
		"/budget":    h.budget,
		"/overdue":   h.overdue,
	}
}

func (h *StaffHandlers) guard(ctx context.Context, command string, fn commandFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		handlerLogger := h.logger.WithFields(logrus.Fields{
			"handler":   command,
			"sender_id": sender.ID,
		})
		handlerLogger.Info("Command received")

		if sender.ID != h.staffID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(msgUnauthorized)
		}
		return fn(ctx, c, handlerLogger)
	}
}

// failureText renders an application failure verbatim; anything else is internal.
func failureText(err error, logCtx *logrus.Entry) string {
	var f *app.Failure
	if errors.As(err, &f) {
		return f.Message
	}
	logCtx.WithError(err).Error("Unexpected command error")
	return msgInternal
}

func (h *StaffHandlers) start(_ context.Context, c telebot.Context, _ *logrus.Entry) error {
	return c.Send(fmt.Sprintf("Hello, %s! The rental desk bot is ready. Use /help for the command list.", c.Sender().FirstName))
}

func (h *StaffHandlers) help(_ context.Context, c telebot.Context, _ *logrus.Entry) error {
	var helpText strings.Builder
	helpText.WriteString("Staff commands:\n\n")
	helpText.WriteString("/rent <MemberID> <BicycleID> [days]\n - Rent a bicycle to a member (1 day by default).\n\n")
	helpText.WriteString("/verify <BicycleID>\n - Check that a bicycle is currently rented.\n\n")
	helpText.WriteString("/return <BicycleID> [damage charge] [note...]\n - Process a return, charging late fees and damage.\n\n")
	helpText.WriteString("/log <BicycleID>\n - Show the returns logged for a bicycle.\n\n")
	helpText.WriteString(fmt.Sprintf("/recommend [n]\n - Top bicycle groups by usage (%d by default).\n\n", h.defaultTopN))
	helpText.WriteString("/replace [n]\n - Groups most in need of replacement.\n\n")
	helpText.WriteString(fmt.Sprintf("/budget [amount] [n]\n - Spread a purchase budget (£%s by default) over new catalog bicycles.\n\n", h.defaultBudget.StringFixed(2)))
	helpText.WriteString("/overdue\n - List rentals past their return date.\n\n")
	helpText.WriteString("/start\n - Check that the bot is running.\n\n")
	helpText.WriteString("/help\n - Show this message.")
	return c.Send(helpText.String())
}

func (h *StaffHandlers) rent(ctx context.Context, c telebot.Context, logCtx *logrus.Entry) error {
	args := c.Args()
	if len(args) < 2 || len(args) > 3 {
		logCtx.WithField("args_count", len(args)).Warn("Invalid command format")
		return c.Send("Invalid format. Use: /rent <MemberID> <BicycleID> [days]")
	}
	bicycleID, err := parseBicycleID(args[1])
	if err != nil {
		return c.Send("Error: " + err.Error())
	}
	days, err := optionalCount(args, 2, app.DefaultRentalDays)
	if err != nil {
		return c.Send("Error: rental days: " + err.Error())
	}

	quote, err := h.services.Rentals.Rent(ctx, args[0], bicycleID, days)
	if err != nil {
		return c.Send(failureText(err, logCtx))
	}
	return c.Send(FormatQuote(quote))
}

func (h *StaffHandlers) verify(ctx context.Context, c telebot.Context, logCtx *logrus.Entry) error {
	args := c.Args()
	if len(args) != 1 {
		logCtx.WithField("args_count", len(args)).Warn("Invalid command format")
		return c.Send("Invalid format. Use: /verify <BicycleID>")
	}
	bicycleID, err := parseBicycleID(args[0])
	if err != nil {
		return c.Send("Error: " + err.Error())
	}

	_, message := h.services.Returns.VerifyRented(ctx, bicycleID)
	return c.Send(message)
}

func (h *StaffHandlers) processReturn(ctx context.Context, c telebot.Context, logCtx *logrus.Entry) error {
	args := c.Args()
	if len(args) < 1 {
		logCtx.Warn("Invalid command format")
		return c.Send("Invalid format. Use: /return <BicycleID> [damage charge] [note...]")
	}
	bicycleID, err := parseBicycleID(args[0])
	if err != nil {
		return c.Send("Error: " + err.Error())
	}
	charge, err := optionalAmount(args, 1, decimal.Zero)
	if err != nil {
		return c.Send("Error: damage charge: " + err.Error())
	}
	var note string
	if len(args) > 2 {
		note = strings.Join(args[2:], " ")
	}

	summary, err := h.services.Returns.ProcessReturn(ctx, bicycleID, charge, note)
	if err != nil {
		return c.Send(failureText(err, logCtx))
	}
	return c.Send(FormatReturnSummary(summary))
}

func (h *StaffHandlers) auditTrail(ctx context.Context, c telebot.Context, logCtx *logrus.Entry) error {
	args := c.Args()
	if len(args) != 1 {
		logCtx.WithField("args_count", len(args)).Warn("Invalid command format")
		return c.Send("Invalid format. Use: /log <BicycleID>")
	}
	bicycleID, err := parseBicycleID(args[0])
	if err != nil {
		return c.Send("Error: " + err.Error())
	}

	entries, err := h.services.Returns.AuditTrail(ctx, bicycleID)
	if err != nil {
		return c.Send(failureText(err, logCtx))
	}
	return c.Send(FormatAuditTrail(bicycleID, entries))
}

func (h *StaffHandlers) recommend(ctx context.Context, c telebot.Context, _ *logrus.Entry) error {
	n, err := optionalCount(c.Args(), 0, h.defaultTopN)
	if err != nil {
		return c.Send("Error: " + err.Error())
	}
	return c.Send(FormatRecommendations(h.services.Recommendations.Recommend(ctx, n)))
}

func (h *StaffHandlers) replacements(ctx context.Context, c telebot.Context, _ *logrus.Entry) error {
	n, err := optionalCount(c.Args(), 0, h.defaultTopN)
	if err != nil {
		return c.Send("Error: " + err.Error())
	}
	return c.Send(FormatRecommendations(h.services.Recommendations.Replacements(ctx, n)))
}

func (h *StaffHandlers) budget(ctx context.Context, c telebot.Context, _ *logrus.Entry) error {
	args := c.Args()
	budget, err := optionalAmount(args, 0, h.defaultBudget)
	if err != nil {
		return c.Send("Error: budget: " + err.Error())
	}
	n, err := optionalCount(args, 1, h.defaultTopN)
	if err != nil {
		return c.Send("Error: " + err.Error())
	}
	return c.Send(FormatPurchasePlan(h.services.Recommendations.PlanPurchases(ctx, budget, n)))
}

func (h *StaffHandlers) overdue(ctx context.Context, c telebot.Context, logCtx *logrus.Entry) error {
	report, err := h.services.Overdue.Report(ctx)
	if err != nil {
		return c.Send(failureText(err, logCtx))
	}
	return c.Send(FormatOverdueReport(report))
}
