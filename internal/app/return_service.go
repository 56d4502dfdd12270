package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bicycle_rental/internal/domain/bicycle"
	"bicycle_rental/internal/domain/calendar"
	"bicycle_rental/internal/domain/fee"
	"bicycle_rental/internal/domain/rental"
)

// ReturnSummary describes a processed return.
type ReturnSummary struct {
	BicycleID    int64
	ReturnedOn   calendar.Date
	ScheduledFor calendar.Date
	OverdueDays  int
	LateFee      decimal.Decimal
	DamageCharge decimal.Decimal
	Total        decimal.Decimal
	DamageNote   string
	NewStatus    bicycle.Status
	NewCondition bicycle.Condition
}

// ReturnService runs the return transaction.
type ReturnService struct {
	store  rental.Store
	logger *logrus.Entry
	cfg    serviceConfig
}

func NewReturnService(store rental.Store, logger *logrus.Entry, opts ...Option) *ReturnService {
	return &ReturnService{
		store:  store,
		logger: logger.WithField("component", "return_service"),
		cfg:    buildConfig(opts),
	}
}

// VerifyRented is the read-only pre-check offered before charging: true iff
// the bicycle exists and is currently Rented.
func (s *ReturnService) VerifyRented(ctx context.Context, bicycleID int64) (bool, string) {
	started := time.Now()
	var verified bool
	var message string

	err := s.store.View(ctx, func(tx rental.Tx) error {
		b, err := tx.GetBicycle(ctx, bicycleID)
		if err != nil {
			return err
		}
		if b.IsRented() {
			verified = true
			message = fmt.Sprintf("Bicycle ID - %d and rental status verified.", bicycleID)
		} else {
			message = fmt.Sprintf("Bicycle ID - %d found, but rental status is '%s', not 'Rented'.", bicycleID, b.Status)
		}
		return nil
	})

	switch {
	case errors.Is(err, rental.ErrBicycleNotFound):
		verified, message = false, fmt.Sprintf("Bicycle ID - %d not found.", bicycleID)
		err = fail(ReasonUnknownBicycle, "%s", message)
	case err != nil:
		s.logger.WithField("bicycle_id", bicycleID).WithError(err).Error("Failed to verify bicycle")
		verified, message = false, fmt.Sprintf("Could not verify bicycle %d.", bicycleID)
		err = persistenceFailure(err, "%s", message)
	case !verified:
		err = fail(ReasonNoOpenRental, "%s", message)
	}
	observe(ctx, s.cfg.metrics, OperationVerify, started, err)
	return verified, message
}

// ProcessReturn charges the late fee and the damage charge, updates the bicycle,
// reconciles an overdue rental record and appends the audit log entry, all in
// one unit of work. An empty damageNote means no note.
func (s *ReturnService) ProcessReturn(ctx context.Context, bicycleID int64, damageCharge decimal.Decimal, damageNote string) (summary *ReturnSummary, err error) {
	started := time.Now()
	defer func() { observe(ctx, s.cfg.metrics, OperationReturn, started, err) }()

	logCtx := s.logger.WithFields(logrus.Fields{
		"bicycle_id":    bicycleID,
		"damage_charge": fee.Display(damageCharge),
	})
	logCtx.Info("Processing return")

	if damageCharge.IsNegative() {
		logCtx.Warn("Rejected return with negative damage charge")
		return nil, fail(ReasonInvalidRequest, "Damage charge cannot be negative, got %s.", fee.Display(damageCharge))
	}

	today := s.cfg.today()
	actionAt := s.cfg.nowFn()

	err = s.store.RunInTransaction(ctx, func(tx rental.Tx) error {
		// The bicycle read takes the row lock, so a concurrent return sees
		// the status this one leaves behind.
		b, err := tx.GetBicycle(ctx, bicycleID)
		if err != nil {
			if errors.Is(err, rental.ErrBicycleNotFound) {
				return fail(ReasonNoOpenRental, "No rental record found for bicycle ID: %d.", bicycleID)
			}
			return persistenceFailure(err, "Failed to process return for Bicycle ID: %d", bicycleID)
		}
		if !b.IsRented() {
			return fail(ReasonNoOpenRental, "No rental record found for bicycle ID: %d.", bicycleID)
		}

		record, err := tx.GetLatestOpenRental(ctx, bicycleID)
		if err != nil {
			if errors.Is(err, rental.ErrRentalNotFound) || errors.Is(err, rental.ErrBicycleNotFound) {
				return fail(ReasonNoOpenRental, "No rental record found for bicycle ID: %d.", bicycleID)
			}
			return persistenceFailure(err, "Failed to process return for Bicycle ID: %d", bicycleID)
		}

		if record.ReturnDate.After(today) {
			return fail(ReasonReturnNotYetDue,
				"Bicycle ID: %d has a scheduled return date of %s, which is in the future. Return cannot be processed.",
				bicycleID, record.ReturnDate)
		}

		overdueDays := fee.OverdueDays(today.DaysSince(record.ReturnDate))
		lateFee := fee.LateFee(overdueDays, b.DailyRate)

		newStatus, newCondition := bicycle.StatusAvailable, bicycle.ConditionGood
		if !damageCharge.IsZero() {
			newStatus, newCondition = bicycle.StatusUnavailable, bicycle.ConditionDamaged
		}

		if err := tx.SetBicycleStatus(ctx, bicycleID, newStatus, &newCondition); err != nil {
			return persistenceFailure(err, "Failed to process return for Bicycle ID: %d", bicycleID)
		}
		if overdueDays > 0 {
			if err := tx.UpdateRentalReturnDate(ctx, bicycleID, record.ReturnDate, today); err != nil {
				return persistenceFailure(err, "Failed to process return for Bicycle ID: %d", bicycleID)
			}
		}

		entry := rental.NewLogEntry(bicycleID, actionAt, lateFee, damageCharge, damageNote, newCondition)
		if err := tx.AppendLog(ctx, entry); err != nil {
			return persistenceFailure(err, "Failed to process return for Bicycle ID: %d", bicycleID)
		}

		summary = &ReturnSummary{
			BicycleID:    bicycleID,
			ReturnedOn:   today,
			ScheduledFor: record.ReturnDate,
			OverdueDays:  overdueDays,
			LateFee:      lateFee,
			DamageCharge: damageCharge,
			Total:        lateFee.Add(damageCharge),
			DamageNote:   damageNote,
			NewStatus:    newStatus,
			NewCondition: newCondition,
		}
		return nil
	})
	if err != nil {
		err = persistenceFailure(err, "Failed to process return for Bicycle ID: %d", bicycleID)
		if ReasonOf(err) == ReasonPersistenceFailure {
			logCtx.WithError(err).Error("Return transaction failed")
		} else {
			logCtx.WithField("reason", ReasonOf(err)).Warn("Return rejected")
		}
		return nil, err
	}

	logCtx.WithFields(logrus.Fields{
		"overdue_days":  summary.OverdueDays,
		"late_fee":      fee.Display(summary.LateFee),
		"total":         fee.Display(summary.Total),
		"new_condition": summary.NewCondition,
	}).Info("Return processed")
	return summary, nil
}

// AuditTrail lists the log entries written by past returns of a bicycle,
// oldest first. It fails with NotFound when the bicycle does not exist.
func (s *ReturnService) AuditTrail(ctx context.Context, bicycleID int64) ([]*rental.LogEntry, error) {
	var entries []*rental.LogEntry
	err := s.store.View(ctx, func(tx rental.Tx) error {
		if _, err := tx.GetBicycle(ctx, bicycleID); err != nil {
			if errors.Is(err, rental.ErrBicycleNotFound) {
				return fail(ReasonNotFound, "Bicycle ID - %d not found.", bicycleID)
			}
			return err
		}
		var err error
		entries, err = tx.ListLogEntries(ctx, bicycleID)
		return err
	})
	if err != nil {
		err = persistenceFailure(err, "Could not read the audit trail of bicycle %d.", bicycleID)
		if ReasonOf(err) == ReasonPersistenceFailure {
			s.logger.WithField("bicycle_id", bicycleID).WithError(err).Error("Failed to read audit trail")
		}
		return nil, err
	}
	return entries, nil
}
