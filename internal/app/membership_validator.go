package app

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"bicycle_rental/internal/domain/calendar"
	"bicycle_rental/internal/domain/member"
	"bicycle_rental/internal/domain/rental"
)

// MembershipValidator decides whether a member may start another rental.
type MembershipValidator struct {
	members member.Repository
	store   rental.Store
	logger  *logrus.Entry
	cfg     serviceConfig
}

func NewMembershipValidator(members member.Repository, store rental.Store, logger *logrus.Entry, opts ...Option) *MembershipValidator {
	return &MembershipValidator{
		members: members,
		store:   store,
		logger:  logger.WithField("component", "membership_validator"),
		cfg:     buildConfig(opts),
	}
}

// Validate checks membership state and the open-rental count. It has no side effects.
func (v *MembershipValidator) Validate(ctx context.Context, memberID string) error {
	today := v.cfg.today()
	err := v.store.View(ctx, func(tx rental.Tx) error {
		return v.validateWithin(ctx, tx, memberID, today)
	})
	if err != nil {
		return persistenceFailure(err, "Could not validate member %s.", memberID)
	}
	return nil
}

// validateWithin runs the checks against an already open unit of work so that
// RentalService sees the same open-rental count it later writes against.
func (v *MembershipValidator) validateWithin(ctx context.Context, tx rental.Tx, memberID string, today calendar.Date) error {
	logCtx := v.logger.WithField("member_id", memberID)

	m, err := v.members.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, member.ErrMemberNotFound) {
			logCtx.Warn("Unknown member")
			return fail(ReasonInvalidMember, "Invalid Member ID.")
		}
		logCtx.WithError(err).Error("Failed to read membership")
		return persistenceFailure(err, "Could not read membership for member %s.", memberID)
	}

	if !m.Active {
		logCtx.Warn("Membership inactive")
		return fail(ReasonInactiveMembership, "Inactive membership.")
	}

	current, err := tx.CountOpenRentals(ctx, memberID, today)
	if err != nil {
		logCtx.WithError(err).Error("Failed to count open rentals")
		return persistenceFailure(err, "Could not count open rentals for member %s.", memberID)
	}

	if current >= m.RentalLimit {
		logCtx.WithFields(logrus.Fields{"open_rentals": current, "rental_limit": m.RentalLimit}).Warn("Rental limit reached")
		return fail(ReasonRentalLimitExceeded, "Rental limit exceeded.")
	}

	logCtx.WithField("open_rentals", current).Debug("Membership is valid")
	return nil
}
