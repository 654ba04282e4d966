package gym

import (
	"context"
	"errors"

	"github.com/gymcore/gym-api/internal/models"
)

// MembershipGate answers whether a user's membership is active right now.
//
// It is the only place activity is decided: a user is active when a
// membership is assigned to them and at least one payment is dated inside
// the current calendar month (in the gym's timezone).
type MembershipGate struct {
	store Store
	clock Clock
}

func NewMembershipGate(store Store, clock Clock) *MembershipGate {
	return &MembershipGate{store: store, clock: clock}
}

// IsActive reports whether userID holds an active membership.
func (g *MembershipGate) IsActive(ctx context.Context, userID int64) (bool, error) {
	var active bool
	err := g.store.View(ctx, func(tx Tx) error {
		user, err := getUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		active, err = g.activeIn(ctx, tx, user)
		return err
	})
	if err != nil {
		return false, storeErr("membership gate", err)
	}
	return active, nil
}

// Status is IsActive plus the membership the user is attached to.
func (g *MembershipGate) Status(ctx context.Context, userID int64) (models.MembershipStatus, error) {
	status := models.MembershipStatus{UserID: userID}
	err := g.store.View(ctx, func(tx Tx) error {
		user, err := getUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		status.MembershipID = user.MembershipID
		if user.MembershipID != nil {
			m, err := tx.GetMembership(ctx, *user.MembershipID)
			if err != nil && !errors.Is(err, ErrNoRows) {
				return err
			}
			status.MembershipName = m.Name
		}
		status.Active, err = g.activeIn(ctx, tx, user)
		return err
	})
	if err != nil {
		return models.MembershipStatus{}, storeErr("membership status", err)
	}
	return status, nil
}

// activeIn evaluates the rule inside an existing transaction so callers can
// gate a write on the same snapshot they write with.
func (g *MembershipGate) activeIn(ctx context.Context, tx Tx, user models.User) (bool, error) {
	if user.MembershipID == nil {
		return false, nil
	}
	from, to := g.clock.monthBounds(g.clock.now())
	n, err := tx.CountPaymentsBetween(ctx, user.ID, from, to)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func getUser(ctx context.Context, tx Tx, userID int64) (models.User, error) {
	return findUser(ctx, userID, tx.GetUser)
}

func lockUser(ctx context.Context, tx Tx, userID int64) (models.User, error) {
	return findUser(ctx, userID, tx.LockUser)
}

func findUser(ctx context.Context, userID int64, get func(context.Context, int64) (models.User, error)) (models.User, error) {
	if userID <= 0 {
		return models.User{}, ErrUserNotFound
	}
	u, err := get(ctx, userID)
	if errors.Is(err, ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return u, err
}
