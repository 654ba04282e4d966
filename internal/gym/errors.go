package gym

import (
	"errors"
	"fmt"
)

// Kind classifies every error the services return.
type Kind int

const (
	KindUnavailable Kind = iota
	KindValidation
	KindForbidden
	KindNotFound
	KindCapacityExceeded
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindCapacityExceeded:
		return "capacity_exceeded"
	case KindConflict:
		return "conflict"
	default:
		return "unavailable"
	}
}

// Error is a classified domain error. Message is safe to show to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrUserNotFound        = newError(KindNotFound, "user not found")
	ErrClassNotFound       = newError(KindNotFound, "class not found")
	ErrSessionNotFound     = newError(KindNotFound, "session not found")
	ErrReservationNotFound = newError(KindNotFound, "reservation not found")

	ErrMembershipInactive = newError(KindForbidden, "membership not active")
	ErrNotPermitted       = newError(KindForbidden, "your role is not allowed to perform this action")
	ErrNotOwner           = newError(KindForbidden, "only the owner or staff can cancel this reservation")
	ErrLocationRequired   = newError(KindForbidden, "location is required to register a shift")
	ErrOutsideGeofence    = newError(KindForbidden, "you are too far from the gym to register a shift")

	ErrCapacityExceeded = newError(KindCapacityExceeded, "session is full")

	ErrAlreadyReserved       = newError(KindConflict, "you already have a reservation for this session")
	ErrClassExists           = newError(KindConflict, "a class with this name already exists")
	ErrClassHasSessions      = newError(KindConflict, "class still has scheduled sessions")
	ErrCapacityBelowBookings = newError(KindConflict, "capacity cannot be lower than the current number of reservations")
	ErrShiftAlreadyOpen      = newError(KindConflict, "an entry is already registered for today without an exit")
	ErrNoOpenShift           = newError(KindConflict, "no open shift to close")

	ErrInvalidTimeWindow = newError(KindValidation, "hora_inicio must be earlier than hora_fin (sessions cannot cross midnight)")
	ErrSessionInPast     = newError(KindValidation, "session has already started")
)

// Validationf builds a KindValidation error with a formatted message.
func Validationf(format string, args ...any) error {
	return newError(KindValidation, fmt.Sprintf(format, args...))
}

// KindOf returns the Kind of err; unclassified errors are KindUnavailable.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnavailable
}

// storeErr keeps classified errors as they are and marks everything else as a storage failure.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindUnavailable, Message: "storage unavailable", Err: fmt.Errorf("%s: %w", op, err)}
}
