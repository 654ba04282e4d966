package gym

import (
	"context"

	"github.com/gymcore/gym-api/internal/models"
)

// Users reads account state the request pipeline needs outside any service.
type Users struct {
	store Store
}

func NewUsers(store Store) *Users {
	return &Users{store: store}
}

// CurrentRole is the role stored for userID right now. A deleted account
// returns ErrUserNotFound.
func (u *Users) CurrentRole(ctx context.Context, userID int64) (models.Role, error) {
	var role models.Role
	err := u.store.View(ctx, func(tx Tx) error {
		user, err := getUser(ctx, tx, userID)
		role = user.Role
		return err
	})
	if err != nil {
		return "", storeErr("current role", err)
	}
	return role, nil
}
