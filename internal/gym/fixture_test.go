package gym_test

import (
	"sync"
	"testing"
	"time"

	"github.com/gymcore/gym-api/internal/gym"
	"github.com/gymcore/gym-api/internal/gym/gymtest"
	"github.com/gymcore/gym-api/internal/models"
)

var (
	testLoc = time.FixedZone("gym", -6*3600)
	testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, testLoc)
)

func testClock() gym.Clock {
	return gym.Clock{Now: func() time.Time { return testNow }, Location: testLoc}
}

type fixture struct {
	t          *testing.T
	store      *gymtest.Store
	svc        *gym.Service
	membership int64
	classID    int64
	rec        *countingRecorder
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithFence(t, gym.Geofence{Latitude: 19.4326, Longitude: -99.1332, RadiusMeters: 100})
}

func newFixtureWithFence(t *testing.T, fence gym.Geofence) *fixture {
	t.Helper()
	store := gymtest.New()
	rec := &countingRecorder{counts: map[string]int{}}
	f := &fixture{
		t:     t,
		store: store,
		svc:   gym.NewService(store, testClock(), fence, rec),
		rec:   rec,
	}
	f.membership = store.AddMembership(models.Membership{Name: "Mensual", Price: 500, DurationDays: 30})
	f.classID = store.AddClass(models.Class{Type: "Yoga", Slug: "yoga"})
	return f
}

// activeClient has a membership and a payment dated this month.
func (f *fixture) activeClient(name string) gym.Actor {
	id := f.store.AddUser(models.User{Name: name, Role: models.RoleClient, MembershipID: &f.membership})
	f.store.AddPayment(id, 500, testNow.AddDate(0, 0, -5))
	return gym.Actor{UserID: id, Role: models.RoleClient}
}

// lapsedClient has a membership but last paid in the previous month.
func (f *fixture) lapsedClient(name string) gym.Actor {
	id := f.store.AddUser(models.User{Name: name, Role: models.RoleClient, MembershipID: &f.membership})
	f.store.AddPayment(id, 500, testNow.AddDate(0, -1, 0))
	return gym.Actor{UserID: id, Role: models.RoleClient}
}

func (f *fixture) staff(name string, role models.Role) gym.Actor {
	id := f.store.AddUser(models.User{Name: name, Role: role})
	return gym.Actor{UserID: id, Role: role}
}

// session schedules a Yoga session tomorrow 10:00-11:00.
func (f *fixture) session(capacity int) int64 {
	return f.sessionAt(testNow.AddDate(0, 0, 1), "10:00", "11:00", capacity)
}

func (f *fixture) sessionAt(day time.Time, start, end string, capacity int) int64 {
	return f.store.AddSession(models.Session{
		ClassID:   f.classID,
		Date:      models.DateOf(day, testLoc),
		StartTime: models.MustTimeOfDay(start),
		EndTime:   models.MustTimeOfDay(end),
		Capacity:  capacity,
	})
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) ReservationAttempt(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[outcome]++
}

func (r *countingRecorder) count(outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[outcome]
}
