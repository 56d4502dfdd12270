package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bicycle_rental/internal/domain/bicycle"
	"bicycle_rental/internal/domain/calendar"
	"bicycle_rental/internal/domain/fee"
	"bicycle_rental/internal/domain/rental"
)

// DefaultRentalDays is used when a caller does not specify a rental length.
const DefaultRentalDays = 1

// Quote confirms a successful rental.
type Quote struct {
	BicycleID      int64
	Brand          string
	Type           string
	DailyRate      int64
	WeeklyRate     int64
	RentalDays     int
	Cost           decimal.Decimal
	Status         bicycle.Status
	RentalDate     calendar.Date
	ExpectedReturn calendar.Date
}

// CostDisplay is the cost rounded to two decimals.
func (q *Quote) CostDisplay() string { return fee.Display(q.Cost) }

// RentalService runs the rent transaction.
type RentalService struct {
	store        rental.Store
	membership   *MembershipValidator
	availability *AvailabilityChecker
	logger       *logrus.Entry
	cfg          serviceConfig
}

func NewRentalService(
	store rental.Store,
	membership *MembershipValidator,
	availability *AvailabilityChecker,
	logger *logrus.Entry,
	opts ...Option,
) *RentalService {
	return &RentalService{
		store:        store,
		membership:   membership,
		availability: availability,
		logger:       logger.WithField("component", "rental_service"),
		cfg:          buildConfig(opts),
	}
}

// Rent validates the member, checks the bicycle, flips it to Rented and records
// the rental in one unit of work, then prices the rental from the re-read bicycle.
func (s *RentalService) Rent(ctx context.Context, memberID string, bicycleID int64, rentalDays int) (quote *Quote, err error) {
	started := time.Now()
	defer func() { observe(ctx, s.cfg.metrics, OperationRent, started, err) }()

	logCtx := s.logger.WithFields(logrus.Fields{
		"member_id":   memberID,
		"bicycle_id":  bicycleID,
		"rental_days": rentalDays,
	})
	logCtx.Info("Processing rent request")

	if rentalDays < 1 {
		logCtx.Warn("Rejected rent request with non-positive rental days")
		return nil, fail(ReasonInvalidRequest, "Rental days must be at least 1, got %d.", rentalDays)
	}

	today := s.cfg.today()
	record := &rental.Record{
		BicycleID:  bicycleID,
		MemberID:   memberID,
		RentalDate: today,
		ReturnDate: today.AddDays(rentalDays),
	}

	err = s.store.RunInTransaction(ctx, func(tx rental.Tx) error {
		if err := s.membership.validateWithin(ctx, tx, memberID, today); err != nil {
			return err
		}
		if _, err := s.availability.checkWithin(ctx, tx, bicycleID); err != nil {
			return err
		}

		if err := tx.SetBicycleStatus(ctx, bicycleID, bicycle.StatusRented, nil); err != nil {
			return persistenceFailure(err, "Rental failed due to a database error.")
		}
		if err := tx.InsertRental(ctx, record); err != nil {
			return persistenceFailure(err, "Rental failed due to a database error.")
		}

		rented, err := tx.GetBicycle(ctx, bicycleID)
		if err != nil {
			return persistenceFailure(err, "Rental failed due to a database error.")
		}
		quote = buildQuote(rented, record, rentalDays)
		return nil
	})
	if err != nil {
		err = persistenceFailure(err, "Rental failed due to a database error.")
		if ReasonOf(err) == ReasonPersistenceFailure {
			logCtx.WithError(err).Error("Rent transaction failed")
		} else {
			logCtx.WithField("reason", ReasonOf(err)).Warn("Rent rejected")
		}
		return nil, err
	}

	logCtx.WithFields(logrus.Fields{
		"cost":            quote.CostDisplay(),
		"expected_return": quote.ExpectedReturn.String(),
	}).Info("Rental confirmed")
	return quote, nil
}

func buildQuote(b *bicycle.Bicycle, record *rental.Record, rentalDays int) *Quote {
	return &Quote{
		BicycleID:      b.ID,
		Brand:          b.Brand,
		Type:           b.Type,
		DailyRate:      b.DailyRate,
		WeeklyRate:     b.WeeklyRate,
		RentalDays:     rentalDays,
		Cost:           fee.RentalCost(rentalDays, b.DailyRate, b.WeeklyRate).Round(2),
		Status:         b.Status,
		RentalDate:     record.RentalDate,
		ExpectedReturn: record.ReturnDate,
	}
}
