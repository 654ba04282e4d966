package gym

import (
	"context"
	"errors"
	"fmt"

	"github.com/gymcore/gym-api/internal/auth"
	"github.com/gymcore/gym-api/internal/models"
)

// Reservation attempt outcomes, as reported to a Recorder.
const (
	OutcomeCreated          = "created"
	OutcomeCapacityExceeded = "capacity_exceeded"
	OutcomeInactive         = "membership_inactive"
	OutcomeRejected         = "rejected"
	OutcomeError            = "error"
)

// Recorder observes reservation attempts (metrics).
type Recorder interface {
	ReservationAttempt(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ReservationAttempt(string) {}

// Reservations creates and cancels reservations under the membership and
// capacity rules.
type Reservations struct {
	store    Store
	gate     *MembershipGate
	clock    Clock
	recorder Recorder
}

func NewReservations(store Store, gate *MembershipGate, clock Clock, rec Recorder) *Reservations {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Reservations{store: store, gate: gate, clock: clock, recorder: rec}
}

// Create books one seat of sessionID for the actor.
//
// The membership check, the session lock, the capacity count and the insert
// all happen in one transaction. Holding the session row lock while counting
// serializes concurrent bookings of the same session, so the number of
// reservations can never pass capacidad_maxima.
func (r *Reservations) Create(ctx context.Context, actor Actor, sessionID int64) (models.Reservation, error) {
	res, err := r.create(ctx, actor, sessionID)
	r.recorder.ReservationAttempt(outcomeOf(err))
	return res, err
}

func (r *Reservations) create(ctx context.Context, actor Actor, sessionID int64) (models.Reservation, error) {
	if !actor.can(auth.ActionCreateReservation) {
		return models.Reservation{}, ErrNotPermitted
	}

	reservation := models.Reservation{
		UserID:    actor.UserID,
		SessionID: sessionID,
		Status:    models.ReservationPending,
	}

	err := r.store.InTx(ctx, func(tx Tx) error {
		// 1. --- Membership gate ---
		user, err := getUser(ctx, tx, actor.UserID)
		if err != nil {
			return err
		}
		active, err := r.gate.activeIn(ctx, tx, user)
		if err != nil {
			return err
		}
		if !active {
			return ErrMembershipInactive
		}

		// 2. --- Lock the session row ---
		session, err := tx.LockSession(ctx, sessionID)
		if errors.Is(err, ErrNoRows) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		now := r.clock.now()
		if !r.clock.startOf(session).After(now) {
			return ErrSessionInPast
		}

		// 3. --- One seat per user ---
		dup, err := tx.HasReservation(ctx, actor.UserID, sessionID)
		if err != nil {
			return err
		}
		if dup {
			return ErrAlreadyReserved
		}

		// 4. --- Capacity ---
		reserved, err := tx.CountReservations(ctx, sessionID)
		if err != nil {
			return err
		}
		if reserved >= session.Capacity {
			return ErrCapacityExceeded
		}

		// 5. --- Write ---
		reservation.CreatedAt = now
		if err := tx.InsertReservation(ctx, &reservation); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return ErrAlreadyReserved
			}
			return err
		}
		msg := fmt.Sprintf("Your reservation for %s at %s is pending confirmation.", session.Date, session.StartTime)
		return tx.AddNotification(ctx, actor.UserID, msg, fmt.Sprintf("/reservas/%d", reservation.ID))
	})
	if err != nil {
		return models.Reservation{}, storeErr("create reservation", err)
	}
	return reservation, nil
}

// Cancel deletes a reservation. Only its owner or staff may do it.
func (r *Reservations) Cancel(ctx context.Context, actor Actor, reservationID int64) error {
	err := r.store.InTx(ctx, func(tx Tx) error {
		res, err := tx.GetReservation(ctx, reservationID)
		if errors.Is(err, ErrNoRows) {
			return ErrReservationNotFound
		}
		if err != nil {
			return err
		}
		owner := res.UserID == actor.UserID
		if !owner && !actor.can(auth.ActionCancelAnyReservation) {
			return ErrNotOwner
		}

		// Same lock as Create so the count seen by a concurrent booking is exact.
		session, err := tx.LockSession(ctx, res.SessionID)
		if err != nil && !errors.Is(err, ErrNoRows) {
			return err
		}
		if err := tx.DeleteReservation(ctx, reservationID); err != nil {
			if errors.Is(err, ErrNoRows) {
				return ErrReservationNotFound
			}
			return err
		}

		if !owner {
			msg := fmt.Sprintf("Your reservation for %s at %s was cancelled by the gym staff.", session.Date, session.StartTime)
			return tx.AddNotification(ctx, res.UserID, msg, "/reservas")
		}
		return nil
	})
	return storeErr("cancel reservation", err)
}

// Confirm moves a pending reservation to confirmada. Confirming twice is a no-op.
func (r *Reservations) Confirm(ctx context.Context, actor Actor, reservationID int64) (models.Reservation, error) {
	if !actor.can(auth.ActionConfirmReservation) {
		return models.Reservation{}, ErrNotPermitted
	}
	var res models.Reservation
	err := r.store.InTx(ctx, func(tx Tx) error {
		var err error
		res, err = tx.GetReservation(ctx, reservationID)
		if errors.Is(err, ErrNoRows) {
			return ErrReservationNotFound
		}
		if err != nil {
			return err
		}
		if res.Status == models.ReservationConfirmed {
			return nil
		}
		if err := tx.UpdateReservationStatus(ctx, reservationID, models.ReservationConfirmed); err != nil {
			return err
		}
		res.Status = models.ReservationConfirmed
		return tx.AddNotification(ctx, res.UserID, "Your reservation has been confirmed.", fmt.Sprintf("/reservas/%d", res.ID))
	})
	if err != nil {
		return models.Reservation{}, storeErr("confirm reservation", err)
	}
	return res, nil
}

// ListMine returns the caller's reservations, soonest session first.
func (r *Reservations) ListMine(ctx context.Context, actor Actor) ([]models.Reservation, error) {
	var out []models.Reservation
	err := r.store.View(ctx, func(tx Tx) error {
		var err error
		out, err = tx.ListReservationsForUser(ctx, actor.UserID)
		return err
	})
	if err != nil {
		return nil, storeErr("list reservations", err)
	}
	return out, nil
}

// ListForSession is the staff view of who booked a session.
func (r *Reservations) ListForSession(ctx context.Context, actor Actor, sessionID int64) ([]models.Reservation, error) {
	if !actor.can(auth.ActionListSessionBookings) {
		return nil, ErrNotPermitted
	}
	var out []models.Reservation
	err := r.store.View(ctx, func(tx Tx) error {
		if _, err := tx.GetSession(ctx, sessionID); err != nil {
			if errors.Is(err, ErrNoRows) {
				return ErrSessionNotFound
			}
			return err
		}
		var err error
		out, err = tx.ListReservationsForSession(ctx, sessionID)
		return err
	})
	if err != nil {
		return nil, storeErr("list session reservations", err)
	}
	return out, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeCreated
	case errors.Is(err, ErrCapacityExceeded):
		return OutcomeCapacityExceeded
	case errors.Is(err, ErrMembershipInactive):
		return OutcomeInactive
	case KindOf(err) == KindUnavailable:
		return OutcomeError
	default:
		return OutcomeRejected
	}
}
