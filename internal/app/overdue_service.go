package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bicycle_rental/internal/domain/calendar"
	"bicycle_rental/internal/domain/fee"
	"bicycle_rental/internal/domain/rental"
)

// OverdueRental is an open rental past its scheduled return date.
type OverdueRental struct {
	BicycleID    int64
	MemberID     string
	Brand        string
	Type         string
	ScheduledFor calendar.Date
	OverdueDays  int
	AccruedFee   decimal.Decimal
}

// OverdueService lists rentals that should already have come back.
type OverdueService struct {
	store  rental.Store
	logger *logrus.Entry
	cfg    serviceConfig
}

func NewOverdueService(store rental.Store, logger *logrus.Entry, opts ...Option) *OverdueService {
	return &OverdueService{
		store:  store,
		logger: logger.WithField("component", "overdue_service"),
		cfg:    buildConfig(opts),
	}
}

// Report returns every overdue rental with the late fee accrued as of today,
// earliest due first. It has no side effects.
func (s *OverdueService) Report(ctx context.Context) (overdue []OverdueRental, err error) {
	started := time.Now()
	defer func() { observe(ctx, s.cfg.metrics, OperationOverdueReport, started, err) }()

	today := s.cfg.today()
	overdue = []OverdueRental{}

	err = s.store.View(ctx, func(tx rental.Tx) error {
		open, err := tx.ListOpenRentals(ctx)
		if err != nil {
			return err
		}
		for _, record := range open {
			days := fee.OverdueDays(today.DaysSince(record.ReturnDate))
			if days == 0 {
				continue
			}
			b, err := tx.GetBicycle(ctx, record.BicycleID)
			if err != nil {
				if errors.Is(err, rental.ErrBicycleNotFound) {
					s.logger.WithField("bicycle_id", record.BicycleID).Warn("Open rental references a missing bicycle")
					continue
				}
				return err
			}
			overdue = append(overdue, OverdueRental{
				BicycleID:    record.BicycleID,
				MemberID:     record.MemberID,
				Brand:        b.Brand,
				Type:         b.Type,
				ScheduledFor: record.ReturnDate,
				OverdueDays:  days,
				AccruedFee:   fee.LateFee(days, b.DailyRate),
			})
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to build overdue report")
		return nil, persistenceFailure(err, "Could not build the overdue report.")
	}

	s.logger.WithField("overdue", len(overdue)).Info("Overdue report built")
	return overdue, nil
}
