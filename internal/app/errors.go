package app

import (
	"errors"
	"fmt"
)

// Reason is the kind of a failed operation. Callers show Failure.Message as is
// and branch on the Reason.
type Reason string

const (
	ReasonInvalidMember       Reason = "InvalidMember"
	ReasonInactiveMembership  Reason = "InactiveMembership"
	ReasonRentalLimitExceeded Reason = "RentalLimitExceeded"
	ReasonUnknownBicycle      Reason = "UnknownBicycle"
	ReasonNotAvailable        Reason = "NotAvailable"
	ReasonNoOpenRental        Reason = "NoOpenRental"
	ReasonReturnNotYetDue     Reason = "ReturnNotYetDue"
	ReasonPersistenceFailure  Reason = "PersistenceFailure"
	ReasonNotFound            Reason = "NotFound"
	ReasonInvalidRequest      Reason = "InvalidRequest"
)

// Failure is the typed error returned by every application operation.
type Failure struct {
	Reason  Reason
	Message string
	cause   error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.cause }

func fail(reason Reason, format string, args ...any) *Failure {
	return &Failure{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// persistenceFailure wraps a store error. An error that already is a Failure
// passes through so validation results raised inside a unit of work keep their reason.
func persistenceFailure(err error, format string, args ...any) error {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{
		Reason:  ReasonPersistenceFailure,
		Message: fmt.Sprintf(format, args...),
		cause:   err,
	}
}

// ReasonOf extracts the Reason of err, or "" when err is nil or not a Failure.
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ""
}
