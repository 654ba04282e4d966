package gym_test

import (
	"context"
	"testing"

	"github.com/gymcore/gym-api/internal/gym"
	"github.com/gymcore/gym-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_CreateClass(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.staff("Admin", models.RoleAdmin)

	class, err := f.svc.Catalog.CreateClass(ctx, admin, gym.ClassInput{Type: "  Spinning Avanzado ", Description: "60 min"})
	require.NoError(t, err)
	assert.Equal(t, "Spinning Avanzado", class.Type)
	assert.Equal(t, "spinning-avanzado", class.Slug)

	_, err = f.svc.Catalog.CreateClass(ctx, admin, gym.ClassInput{Type: "spinning avanzado"})
	assert.ErrorIs(t, err, gym.ErrClassExists)

	_, err = f.svc.Catalog.CreateClass(ctx, admin, gym.ClassInput{Type: "   "})
	assert.Equal(t, gym.KindValidation, gym.KindOf(err))

	_, err = f.svc.Catalog.CreateClass(ctx, f.staff("Tere", models.RoleTrainer), gym.ClassInput{Type: "Box"})
	assert.ErrorIs(t, err, gym.ErrNotPermitted)
}

func TestCatalog_UpdateAndDeleteClass(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.staff("Admin", models.RoleAdmin)

	updated, err := f.svc.Catalog.UpdateClass(ctx, admin, f.classID, gym.ClassInput{Type: "Yoga Flow"})
	require.NoError(t, err)
	assert.Equal(t, "yoga-flow", updated.Slug)

	_, err = f.svc.Catalog.UpdateClass(ctx, admin, 999, gym.ClassInput{Type: "X"})
	assert.ErrorIs(t, err, gym.ErrClassNotFound)

	f.session(5)
	err = f.svc.Catalog.DeleteClass(ctx, admin, f.classID)
	assert.ErrorIs(t, err, gym.ErrClassHasSessions)

	empty, err := f.svc.Catalog.CreateClass(ctx, admin, gym.ClassInput{Type: "Pilates"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Catalog.DeleteClass(ctx, admin, empty.ID))
	_, err = f.svc.Catalog.GetClass(ctx, empty.ID)
	assert.ErrorIs(t, err, gym.ErrClassNotFound)
}

func TestCatalog_CreateSession(t *testing.T) {
	ctx := context.Background()
	tomorrow := models.DateOf(testNow.AddDate(0, 0, 1), testLoc).String()

	tests := []struct {
		name    string
		in      gym.SessionInput
		wantErr error
		kind    gym.Kind
	}{
		{"valid", gym.SessionInput{Date: tomorrow, StartTime: "09:00", EndTime: "10:00", Capacity: 12}, nil, 0},
		{"start after end", gym.SessionInput{Date: tomorrow, StartTime: "10:00", EndTime: "09:00", Capacity: 12}, gym.ErrInvalidTimeWindow, gym.KindValidation},
		{"start equals end", gym.SessionInput{Date: tomorrow, StartTime: "10:00", EndTime: "10:00", Capacity: 12}, gym.ErrInvalidTimeWindow, gym.KindValidation},
		{"crosses midnight", gym.SessionInput{Date: tomorrow, StartTime: "23:00", EndTime: "01:00", Capacity: 12}, gym.ErrInvalidTimeWindow, gym.KindValidation},
		{"not lexical", gym.SessionInput{Date: tomorrow, StartTime: "09:30", EndTime: "10:15", Capacity: 1}, nil, 0},
		{"zero capacity", gym.SessionInput{Date: tomorrow, StartTime: "09:00", EndTime: "10:00", Capacity: 0}, nil, gym.KindValidation},
		{"bad time", gym.SessionInput{Date: tomorrow, StartTime: "9am", EndTime: "10:00", Capacity: 5}, nil, gym.KindValidation},
		{"missing time", gym.SessionInput{Date: tomorrow, EndTime: "10:00", Capacity: 5}, nil, gym.KindValidation},
		{"bad date", gym.SessionInput{Date: "11/03/2026", StartTime: "09:00", EndTime: "10:00", Capacity: 5}, nil, gym.KindValidation},
		{"in the past", gym.SessionInput{Date: "2026-03-01", StartTime: "09:00", EndTime: "10:00", Capacity: 5}, nil, gym.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			admin := f.staff("Admin", models.RoleAdmin)
			tt.in.ClassID = f.classID

			s, err := f.svc.Catalog.CreateSession(ctx, admin, tt.in)
			if tt.kind == 0 {
				require.NoError(t, err)
				assert.NotZero(t, s.ID)
				assert.Equal(t, 0, s.Attendees)
				assert.Equal(t, tt.in.Capacity, s.Available)
				assert.Len(t, f.store.Sessions(), 1)
				return
			}
			assert.Equal(t, tt.kind, gym.KindOf(err))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Empty(t, f.store.Sessions(), "nothing persisted on failure")
		})
	}
}

func TestCatalog_CreateSession_UnknownClassAndRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	in := gym.SessionInput{ClassID: 999, Date: "2026-03-11", StartTime: "09:00", EndTime: "10:00", Capacity: 5}

	_, err := f.svc.Catalog.CreateSession(ctx, f.staff("Admin", models.RoleAdmin), in)
	assert.ErrorIs(t, err, gym.ErrClassNotFound)

	in.ClassID = f.classID
	_, err = f.svc.Catalog.CreateSession(ctx, f.activeClient("Ana"), in)
	assert.ErrorIs(t, err, gym.ErrNotPermitted)

	s, err := f.svc.Catalog.CreateSession(ctx, f.staff("Tere", models.RoleTrainer), in)
	require.NoError(t, err)
	assert.Equal(t, "Yoga", s.ClassType)
}

// Administrator creates "Yoga" and tries a 10:00-09:00 session: rejected, nothing stored.
func TestCatalog_InvertedWindowScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.staff("Admin", models.RoleAdmin)

	class, err := f.svc.Catalog.CreateClass(ctx, admin, gym.ClassInput{Type: "Yoga Matutino"})
	require.NoError(t, err)

	_, err = f.svc.Catalog.CreateSession(ctx, admin, gym.SessionInput{
		ClassID: class.ID, Date: "2026-03-12", StartTime: "10:00", EndTime: "09:00", Capacity: 10,
	})
	assert.Equal(t, gym.KindValidation, gym.KindOf(err))

	sessions, err := f.svc.Catalog.ListSessions(ctx, gym.SessionFilter{ClassID: class.ID})
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestCatalog_UpdateSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.staff("Admin", models.RoleAdmin)
	sid := f.session(3)
	for _, name := range []string{"A", "B"} {
		_, err := f.svc.Reservations.Create(ctx, f.activeClient(name), sid)
		require.NoError(t, err)
	}

	in := gym.SessionInput{ClassID: f.classID, Date: "2026-03-11", StartTime: "18:00", EndTime: "19:00", Capacity: 1}
	_, err := f.svc.Catalog.UpdateSession(ctx, admin, sid, in)
	assert.ErrorIs(t, err, gym.ErrCapacityBelowBookings)

	in.Capacity = 2
	s, err := f.svc.Catalog.UpdateSession(ctx, admin, sid, in)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Attendees)
	assert.Equal(t, 0, s.Available)
	assert.Equal(t, "18:00", s.StartTime.String())

	_, err = f.svc.Catalog.UpdateSession(ctx, admin, 999, in)
	assert.ErrorIs(t, err, gym.ErrSessionNotFound)
}

func TestCatalog_DeleteSessionCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sid := f.session(5)
	other := f.session(5)
	ana := f.activeClient("Ana")
	beto := f.activeClient("Beto")
	for _, a := range []gym.Actor{ana, beto} {
		_, err := f.svc.Reservations.Create(ctx, a, sid)
		require.NoError(t, err)
	}
	_, err := f.svc.Reservations.Create(ctx, ana, other)
	require.NoError(t, err)

	n, err := f.svc.Catalog.DeleteSession(ctx, f.staff("Admin", models.RoleAdmin), sid)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = f.svc.Catalog.GetSession(ctx, sid)
	assert.ErrorIs(t, err, gym.ErrSessionNotFound)
	assert.Zero(t, f.store.ReservationCount(sid))
	assert.Equal(t, 1, f.store.ReservationCount(other))
	// booking + cancellation notice for Beto; Ana has two bookings + one notice
	assert.Len(t, f.store.Notifications(beto.UserID), 2)
	assert.Len(t, f.store.Notifications(ana.UserID), 3)

	_, err = f.svc.Catalog.DeleteSession(ctx, f.staff("Admin2", models.RoleAdmin), sid)
	assert.ErrorIs(t, err, gym.ErrSessionNotFound)
}

func TestCatalog_ListSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	later := f.sessionAt(testNow.AddDate(0, 0, 3), "07:00", "08:00", 2)
	soon := f.session(2)
	_, err := f.svc.Reservations.Create(ctx, f.activeClient("Ana"), later)
	require.NoError(t, err)

	all, err := f.svc.Catalog.ListSessions(ctx, gym.SessionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, soon, all[0].ID)
	assert.Equal(t, 1, all[1].Attendees)
	assert.Equal(t, 1, all[1].Available)

	from := models.DateOf(testNow.AddDate(0, 0, 2), testLoc)
	filtered, err := f.svc.Catalog.ListSessions(ctx, gym.SessionFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, later, filtered[0].ID)
}
