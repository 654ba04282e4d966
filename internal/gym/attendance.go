package gym

import (
	"context"
	"errors"
	"time"

	"github.com/gymcore/gym-api/internal/auth"
	"github.com/gymcore/gym-api/internal/models"
)

// MaxShiftLength bounds how long an entry stays open. An entry from the
// previous day can still be closed after midnight within this window.
const MaxShiftLength = 16 * time.Hour

// ShiftResult is a recorded shift plus the distance hint, when a position was sent.
type ShiftResult struct {
	Shift          models.Shift `json:"turno"`
	DistanceMeters *float64     `json:"distancia_metros,omitempty"`
}

// Attendance records staff shifts and client gym accesses.
type Attendance struct {
	store    Store
	gate     *MembershipGate
	clock    Clock
	geofence Geofence
}

func NewAttendance(store Store, gate *MembershipGate, clock Clock, fence Geofence) *Attendance {
	return &Attendance{store: store, gate: gate, clock: clock, geofence: fence}
}

// RegisterEntry opens today's shift for a trainer or administrator.
func (a *Attendance) RegisterEntry(ctx context.Context, actor Actor, pos models.Coordinates) (ShiftResult, error) {
	return a.registerShift(ctx, actor, pos, models.ShiftEntry)
}

// RegisterExit closes today's open shift.
func (a *Attendance) RegisterExit(ctx context.Context, actor Actor, pos models.Coordinates) (ShiftResult, error) {
	return a.registerShift(ctx, actor, pos, models.ShiftExit)
}

// registerShift enforces the cycle no-shift -> entrada -> salida -> entrada ...
// per user. The user row is locked first so concurrent requests for the same
// user run one after the other.
func (a *Attendance) registerShift(ctx context.Context, actor Actor, pos models.Coordinates, kind string) (ShiftResult, error) {
	if !actor.can(auth.ActionRegisterShift) {
		return ShiftResult{}, ErrNotPermitted
	}
	distance, err := a.geofence.Check(pos)
	if err != nil {
		return ShiftResult{DistanceMeters: distance}, err
	}

	now := a.clock.now()
	shift := models.Shift{UserID: actor.UserID, Type: kind, At: now}

	err = a.store.InTx(ctx, func(tx Tx) error {
		if _, err := lockUser(ctx, tx, actor.UserID); err != nil {
			return err
		}
		from, to := a.clock.dayBounds(now)
		if lookback := now.Add(-MaxShiftLength); lookback.Before(from) {
			from = lookback
		}
		last, err := tx.LastShiftBetween(ctx, actor.UserID, from, to)
		if err != nil && !errors.Is(err, ErrNoRows) {
			return err
		}
		open := err == nil && last.Type == models.ShiftEntry && a.clock.StillOpen(last.At, now)

		switch {
		case kind == models.ShiftEntry && open:
			return ErrShiftAlreadyOpen
		case kind == models.ShiftExit && !open:
			return ErrNoOpenShift
		}
		return tx.InsertShift(ctx, &shift)
	})
	if err != nil {
		return ShiftResult{}, storeErr("register shift", err)
	}
	return ShiftResult{Shift: shift, DistanceMeters: distance}, nil
}

// RegisterAccess logs a client's entry to the gym. Inactive memberships are
// turned away and nothing is written.
func (a *Attendance) RegisterAccess(ctx context.Context, actor Actor) (models.Access, error) {
	if !actor.can(auth.ActionRegisterAccess) {
		return models.Access{}, ErrNotPermitted
	}
	access := models.Access{UserID: actor.UserID, At: a.clock.now()}

	err := a.store.InTx(ctx, func(tx Tx) error {
		user, err := getUser(ctx, tx, actor.UserID)
		if err != nil {
			return err
		}
		active, err := a.gate.activeIn(ctx, tx, user)
		if err != nil {
			return err
		}
		if !active {
			return ErrMembershipInactive
		}
		return tx.InsertAccess(ctx, &access)
	})
	if err != nil {
		return models.Access{}, storeErr("register access", err)
	}
	return access, nil
}

// ListShifts returns shifts in [from, to). Staff see their own; administrators may pass any userID (0 = everyone).
func (a *Attendance) ListShifts(ctx context.Context, actor Actor, userID int64, from, to time.Time) ([]models.Shift, error) {
	if userID != actor.UserID && !actor.can(auth.ActionListAllShifts) {
		return nil, ErrNotPermitted
	}
	var out []models.Shift
	err := a.store.View(ctx, func(tx Tx) error {
		var err error
		out, err = tx.ListShifts(ctx, userID, from, to)
		return err
	})
	if err != nil {
		return nil, storeErr("list shifts", err)
	}
	return out, nil
}

// ListAccesses returns accesses in [from, to). Clients see their own; staff may pass any userID (0 = everyone).
func (a *Attendance) ListAccesses(ctx context.Context, actor Actor, userID int64, from, to time.Time) ([]models.Access, error) {
	if userID != actor.UserID && !actor.can(auth.ActionListAllAccesses) {
		return nil, ErrNotPermitted
	}
	var out []models.Access
	err := a.store.View(ctx, func(tx Tx) error {
		var err error
		out, err = tx.ListAccesses(ctx, userID, from, to)
		return err
	})
	if err != nil {
		return nil, storeErr("list accesses", err)
	}
	return out, nil
}
