package gym

import (
	"github.com/gymcore/gym-api/internal/auth"
	"github.com/gymcore/gym-api/internal/models"
)

// Actor is the authenticated caller, as carried by the bearer token.
type Actor struct {
	UserID int64
	Role   models.Role
}

func (a Actor) can(action auth.Action) bool {
	return auth.IsAuthorized(a.Role, action)
}
