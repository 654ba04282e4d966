package gym

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/gymcore/gym-api/internal/auth"
	"github.com/gymcore/gym-api/internal/models"
)

// ClassInput is the writable part of a class.
type ClassInput struct {
	Type        string
	Description string
}

// SessionInput is the writable part of a session, as received from the client.
type SessionInput struct {
	ClassID   int64
	Date      string
	StartTime string
	EndTime   string
	Capacity  int
}

// Catalog manages classes and their scheduled sessions.
type Catalog struct {
	store Store
	clock Clock
}

func NewCatalog(store Store, clock Clock) *Catalog {
	return &Catalog{store: store, clock: clock}
}

//
// --- Classes ---
//

func (c *Catalog) CreateClass(ctx context.Context, actor Actor, in ClassInput) (models.Class, error) {
	if !actor.can(auth.ActionManageClasses) {
		return models.Class{}, ErrNotPermitted
	}
	class, err := buildClass(in)
	if err != nil {
		return models.Class{}, err
	}
	class.CreatedAt = c.clock.now()

	err = c.store.InTx(ctx, func(tx Tx) error {
		if err := tx.InsertClass(ctx, &class); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return ErrClassExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.Class{}, storeErr("create class", err)
	}
	return class, nil
}

func (c *Catalog) UpdateClass(ctx context.Context, actor Actor, id int64, in ClassInput) (models.Class, error) {
	if !actor.can(auth.ActionManageClasses) {
		return models.Class{}, ErrNotPermitted
	}
	class, err := buildClass(in)
	if err != nil {
		return models.Class{}, err
	}

	err = c.store.InTx(ctx, func(tx Tx) error {
		existing, err := tx.GetClass(ctx, id)
		if errors.Is(err, ErrNoRows) {
			return ErrClassNotFound
		}
		if err != nil {
			return err
		}
		class.ID = existing.ID
		class.CreatedAt = existing.CreatedAt
		if err := tx.UpdateClass(ctx, class); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return ErrClassExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.Class{}, storeErr("update class", err)
	}
	return class, nil
}

// DeleteClass refuses while the class still has sessions; those must be deleted first.
func (c *Catalog) DeleteClass(ctx context.Context, actor Actor, id int64) error {
	if !actor.can(auth.ActionManageClasses) {
		return ErrNotPermitted
	}
	err := c.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetClass(ctx, id); err != nil {
			if errors.Is(err, ErrNoRows) {
				return ErrClassNotFound
			}
			return err
		}
		n, err := tx.CountSessionsForClass(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrClassHasSessions
		}
		return tx.DeleteClass(ctx, id)
	})
	return storeErr("delete class", err)
}

func (c *Catalog) GetClass(ctx context.Context, id int64) (models.Class, error) {
	var class models.Class
	err := c.store.View(ctx, func(tx Tx) error {
		var err error
		class, err = tx.GetClass(ctx, id)
		if errors.Is(err, ErrNoRows) {
			return ErrClassNotFound
		}
		return err
	})
	if err != nil {
		return models.Class{}, storeErr("get class", err)
	}
	return class, nil
}

func (c *Catalog) ListClasses(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	err := c.store.View(ctx, func(tx Tx) error {
		var err error
		classes, err = tx.ListClasses(ctx)
		return err
	})
	if err != nil {
		return nil, storeErr("list classes", err)
	}
	return classes, nil
}

func buildClass(in ClassInput) (models.Class, error) {
	typ := strings.TrimSpace(in.Type)
	if typ == "" {
		return models.Class{}, Validationf("tipo is required")
	}
	s := slug.Make(typ)
	if s == "" {
		return models.Class{}, Validationf("tipo %q has no usable characters", typ)
	}
	return models.Class{
		Type:        typ,
		Slug:        s,
		Description: strings.TrimSpace(in.Description),
	}, nil
}

//
// --- Sessions ---
//

// CreateSession validates the time window and capacity before anything is written.
func (c *Catalog) CreateSession(ctx context.Context, actor Actor, in SessionInput) (models.Session, error) {
	if !actor.can(auth.ActionManageSessions) {
		return models.Session{}, ErrNotPermitted
	}
	session, err := c.buildSession(in)
	if err != nil {
		return models.Session{}, err
	}
	now := c.clock.now()
	session.CreatedAt = now
	session.UpdatedAt = now

	err = c.store.InTx(ctx, func(tx Tx) error {
		class, err := tx.GetClass(ctx, session.ClassID)
		if errors.Is(err, ErrNoRows) {
			return ErrClassNotFound
		}
		if err != nil {
			return err
		}
		session.ClassType = class.Type
		return tx.InsertSession(ctx, &session)
	})
	if err != nil {
		return models.Session{}, storeErr("create session", err)
	}
	session.Fill(0)
	return session, nil
}

// UpdateSession replaces the schedule of a session. Capacity may not drop
// below the reservations already taken; the check runs under the session lock.
func (c *Catalog) UpdateSession(ctx context.Context, actor Actor, id int64, in SessionInput) (models.Session, error) {
	if !actor.can(auth.ActionManageSessions) {
		return models.Session{}, ErrNotPermitted
	}
	session, err := c.buildSession(in)
	if err != nil {
		return models.Session{}, err
	}

	err = c.store.InTx(ctx, func(tx Tx) error {
		existing, err := tx.LockSession(ctx, id)
		if errors.Is(err, ErrNoRows) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		class, err := tx.GetClass(ctx, session.ClassID)
		if errors.Is(err, ErrNoRows) {
			return ErrClassNotFound
		}
		if err != nil {
			return err
		}

		reserved, err := tx.CountReservations(ctx, id)
		if err != nil {
			return err
		}
		if session.Capacity < reserved {
			return ErrCapacityBelowBookings
		}

		session.ID = id
		session.CreatedAt = existing.CreatedAt
		session.UpdatedAt = c.clock.now()
		session.ClassType = class.Type
		session.Fill(reserved)
		return tx.UpdateSession(ctx, session)
	})
	if err != nil {
		return models.Session{}, storeErr("update session", err)
	}
	return session, nil
}

// DeleteSession cascades: every reservation of the session is removed in the
// same transaction and its owner is notified.
func (c *Catalog) DeleteSession(ctx context.Context, actor Actor, id int64) (int, error) {
	if !actor.can(auth.ActionManageSessions) {
		return 0, ErrNotPermitted
	}
	var cancelled int
	err := c.store.InTx(ctx, func(tx Tx) error {
		session, err := tx.LockSession(ctx, id)
		if errors.Is(err, ErrNoRows) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		reservations, err := tx.ListReservationsForSession(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteReservationsForSession(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteSession(ctx, id); err != nil {
			return err
		}

		msg := fmt.Sprintf("The session on %s at %s was cancelled. Your reservation has been removed.",
			session.Date, session.StartTime)
		for _, r := range reservations {
			if err := tx.AddNotification(ctx, r.UserID, msg, "/reservas"); err != nil {
				return err
			}
		}
		cancelled = len(reservations)
		return nil
	})
	if err != nil {
		return 0, storeErr("delete session", err)
	}
	return cancelled, nil
}

func (c *Catalog) GetSession(ctx context.Context, id int64) (models.Session, error) {
	var session models.Session
	err := c.store.View(ctx, func(tx Tx) error {
		var err error
		session, err = tx.GetSession(ctx, id)
		if errors.Is(err, ErrNoRows) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		reserved, err := tx.CountReservations(ctx, id)
		if err != nil {
			return err
		}
		session.Fill(reserved)
		return nil
	})
	if err != nil {
		return models.Session{}, storeErr("get session", err)
	}
	return session, nil
}

// ListSessions returns sessions with live attendee counts.
func (c *Catalog) ListSessions(ctx context.Context, f SessionFilter) ([]models.Session, error) {
	var sessions []models.Session
	err := c.store.View(ctx, func(tx Tx) error {
		var err error
		sessions, err = tx.ListSessions(ctx, f)
		return err
	})
	if err != nil {
		return nil, storeErr("list sessions", err)
	}
	return sessions, nil
}

func (c *Catalog) buildSession(in SessionInput) (models.Session, error) {
	if in.ClassID <= 0 {
		return models.Session{}, Validationf("clase_id is required")
	}
	if in.Date == "" || in.StartTime == "" || in.EndTime == "" {
		return models.Session{}, Validationf("fecha, hora_inicio and hora_fin are required")
	}
	date, err := models.ParseDate(in.Date)
	if err != nil {
		return models.Session{}, Validationf("%v", err)
	}
	start, err := models.ParseTimeOfDay(in.StartTime)
	if err != nil {
		return models.Session{}, Validationf("hora_inicio: %v", err)
	}
	end, err := models.ParseTimeOfDay(in.EndTime)
	if err != nil {
		return models.Session{}, Validationf("hora_fin: %v", err)
	}
	if !start.Before(end) {
		return models.Session{}, ErrInvalidTimeWindow
	}
	if in.Capacity <= 0 {
		return models.Session{}, Validationf("capacidad_maxima must be a positive integer")
	}

	session := models.Session{
		ClassID:   in.ClassID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Capacity:  in.Capacity,
	}
	if !c.clock.startOf(session).After(c.clock.now()) {
		return models.Session{}, Validationf("session must start in the future")
	}
	return session, nil
}
