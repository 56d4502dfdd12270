package app

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"bicycle_rental/internal/domain/bicycle"
	"bicycle_rental/internal/domain/rental"
)

// AvailabilityChecker reports whether a bicycle can be rented right now.
type AvailabilityChecker struct {
	store  rental.Store
	logger *logrus.Entry
}

func NewAvailabilityChecker(store rental.Store, logger *logrus.Entry) *AvailabilityChecker {
	return &AvailabilityChecker{
		store:  store,
		logger: logger.WithField("component", "availability_checker"),
	}
}

// CheckAvailable fails with UnknownBicycle or NotAvailable. It has no side effects.
func (c *AvailabilityChecker) CheckAvailable(ctx context.Context, bicycleID int64) error {
	err := c.store.View(ctx, func(tx rental.Tx) error {
		_, err := c.checkWithin(ctx, tx, bicycleID)
		return err
	})
	if err != nil {
		return persistenceFailure(err, "Could not check availability of bicycle %d.", bicycleID)
	}
	return nil
}

func (c *AvailabilityChecker) checkWithin(ctx context.Context, tx rental.Tx, bicycleID int64) (*bicycle.Bicycle, error) {
	logCtx := c.logger.WithField("bicycle_id", bicycleID)

	b, err := tx.GetBicycle(ctx, bicycleID)
	if err != nil {
		if errors.Is(err, rental.ErrBicycleNotFound) {
			logCtx.Warn("Unknown bicycle")
			return nil, fail(ReasonUnknownBicycle, "Invalid Bicycle ID: %d", bicycleID)
		}
		logCtx.WithError(err).Error("Failed to read bicycle")
		return nil, persistenceFailure(err, "Could not read bicycle %d.", bicycleID)
	}

	if !b.IsAvailable() {
		logCtx.WithField("status", b.Status).Warn("Bicycle not available")
		return nil, fail(ReasonNotAvailable, "Bicycle %d is not available (status: %s).", bicycleID, b.Status)
	}
	return b, nil
}
