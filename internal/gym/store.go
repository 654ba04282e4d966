package gym

import (
	"context"
	"errors"
	"time"

	"github.com/gymcore/gym-api/internal/models"
)

// Sentinel errors a Store implementation must use.
var (
	ErrNoRows    = errors.New("gym: no rows")
	ErrDuplicate = errors.New("gym: duplicate key")
)

// Store is the persistence boundary of the domain services.
//
// InTx runs fn in one transaction and rolls back if fn returns an error.
// View runs fn without a transaction, for reads.
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
}

// SessionFilter narrows ListSessions. Zero values mean "any".
type SessionFilter struct {
	ClassID int64
	From    *models.Date
	To      *models.Date
}

// Tx is the set of queries the services run. Single-row lookups return
// ErrNoRows when nothing matches; inserts violating a unique key return ErrDuplicate.
type Tx interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
	// LockUser is GetUser holding a write lock on the user row until the transaction ends.
	LockUser(ctx context.Context, id int64) (models.User, error)
	GetMembership(ctx context.Context, id int64) (models.Membership, error)
	CountPaymentsBetween(ctx context.Context, userID int64, from, to time.Time) (int, error)

	InsertClass(ctx context.Context, c *models.Class) error
	GetClass(ctx context.Context, id int64) (models.Class, error)
	ListClasses(ctx context.Context) ([]models.Class, error)
	UpdateClass(ctx context.Context, c models.Class) error
	DeleteClass(ctx context.Context, id int64) error
	CountSessionsForClass(ctx context.Context, classID int64) (int, error)

	InsertSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id int64) (models.Session, error)
	// LockSession reads the session row and holds a write lock on it until the transaction ends.
	LockSession(ctx context.Context, id int64) (models.Session, error)
	ListSessions(ctx context.Context, f SessionFilter) ([]models.Session, error)
	UpdateSession(ctx context.Context, s models.Session) error
	DeleteSession(ctx context.Context, id int64) error

	CountReservations(ctx context.Context, sessionID int64) (int, error)
	HasReservation(ctx context.Context, userID, sessionID int64) (bool, error)
	InsertReservation(ctx context.Context, r *models.Reservation) error
	GetReservation(ctx context.Context, id int64) (models.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id int64, status string) error
	DeleteReservation(ctx context.Context, id int64) error
	ListReservationsForSession(ctx context.Context, sessionID int64) ([]models.Reservation, error)
	ListReservationsForUser(ctx context.Context, userID int64) ([]models.Reservation, error)
	DeleteReservationsForSession(ctx context.Context, sessionID int64) error

	LastShiftBetween(ctx context.Context, userID int64, from, to time.Time) (models.Shift, error)
	InsertShift(ctx context.Context, s *models.Shift) error
	ListShifts(ctx context.Context, userID int64, from, to time.Time) ([]models.Shift, error)
	InsertAccess(ctx context.Context, a *models.Access) error
	ListAccesses(ctx context.Context, userID int64, from, to time.Time) ([]models.Access, error)

	AddNotification(ctx context.Context, userID int64, message, link string) error
}
