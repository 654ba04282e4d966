package auth

import "github.com/gymcore/gym-api/internal/models"

// Action names something a caller may try to do.
type Action string

const (
	ActionCreateReservation    Action = "reservation:create"
	ActionCancelAnyReservation Action = "reservation:cancel-any"
	ActionConfirmReservation   Action = "reservation:confirm"
	ActionListSessionBookings  Action = "reservation:list-session"
	ActionManageClasses        Action = "class:manage"
	ActionManageSessions       Action = "session:manage"
	ActionRegisterShift        Action = "shift:register"
	ActionListAllShifts        Action = "shift:list-all"
	ActionRegisterAccess       Action = "access:register"
	ActionListAllAccesses      Action = "access:list-all"
	ActionManageMemberships    Action = "membership:manage"
	ActionRegisterPayment      Action = "payment:register"
	ActionListAllPayments      Action = "payment:list-all"
	ActionManageUsers          Action = "user:manage"
	ActionViewReports          Action = "report:view"
)

var (
	staff     = []models.Role{models.RoleTrainer, models.RoleAdmin}
	adminOnly = []models.Role{models.RoleAdmin}
)

// policy is the one place role permissions live. Anything missing is denied.
var policy = map[Action][]models.Role{
	ActionCreateReservation:    {models.RoleClient},
	ActionCancelAnyReservation: staff,
	ActionConfirmReservation:   staff,
	ActionListSessionBookings:  staff,
	ActionManageClasses:        adminOnly,
	ActionManageSessions:       staff,
	ActionRegisterShift:        staff,
	ActionListAllShifts:        adminOnly,
	ActionRegisterAccess:       {models.RoleClient},
	ActionListAllAccesses:      staff,
	ActionManageMemberships:    adminOnly,
	ActionRegisterPayment:      adminOnly,
	ActionListAllPayments:      adminOnly,
	ActionManageUsers:          adminOnly,
	ActionViewReports:          adminOnly,
}

// IsAuthorized reports whether role may perform action.
func IsAuthorized(role models.Role, action Action) bool {
	for _, r := range policy[action] {
		if r == role {
			return true
		}
	}
	return false
}
