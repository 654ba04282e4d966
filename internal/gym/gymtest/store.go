// Package gymtest provides an in-memory gym.Store for tests.
//
// Transactions are fully serialized and roll back on error, which is the
// behavior the MySQL store gets from its session and user row locks.
package gymtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gymcore/gym-api/internal/gym"
	"github.com/gymcore/gym-api/internal/models"
)

type state struct {
	nextID        int64
	users         map[int64]models.User
	memberships   map[int64]models.Membership
	payments      []models.Payment
	classes       map[int64]models.Class
	sessions      map[int64]models.Session
	reservations  map[int64]models.Reservation
	shifts        []models.Shift
	accesses      []models.Access
	notifications []models.Notification
}

func (s *state) clone() state {
	c := *s
	c.users = copyMap(s.users)
	c.memberships = copyMap(s.memberships)
	c.classes = copyMap(s.classes)
	c.sessions = copyMap(s.sessions)
	c.reservations = copyMap(s.reservations)
	c.payments = append([]models.Payment(nil), s.payments...)
	c.shifts = append([]models.Shift(nil), s.shifts...)
	c.accesses = append([]models.Access(nil), s.accesses...)
	c.notifications = append([]models.Notification(nil), s.notifications...)
	return c
}

func copyMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store is an in-memory gym.Store.
type Store struct {
	mu   sync.RWMutex
	data state

	// Err, when set, is returned by every InTx and View call.
	Err error
}

var _ gym.Store = (*Store)(nil)

func New() *Store {
	return &Store{data: state{
		users:        map[int64]models.User{},
		memberships:  map[int64]models.Membership{},
		classes:      map[int64]models.Class{},
		sessions:     map[int64]models.Session{},
		reservations: map[int64]models.Reservation{},
	}}
}

func (s *Store) InTx(ctx context.Context, fn func(gym.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.data.clone()
	if err := fn(&tx{st: &s.data}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) View(ctx context.Context, fn func(gym.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return s.Err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	// Reads work on a copy so a misbehaving caller cannot write through View.
	snapshot := s.data.clone()
	return fn(&tx{st: &snapshot})
}

//
// --- Seeding helpers ---
//

func (s *Store) AddUser(u models.User) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.data.id()
	s.data.users[u.ID] = u
	return u.ID
}

func (s *Store) AddMembership(m models.Membership) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.data.id()
	s.data.memberships[m.ID] = m
	return m.ID
}

func (s *Store) AddPayment(userID int64, amount float64, at time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.Payment{ID: s.data.id(), UserID: userID, Amount: amount, PaidAt: at, CreatedAt: at}
	s.data.payments = append(s.data.payments, p)
	return p.ID
}

func (s *Store) AddClass(c models.Class) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.data.id()
	s.data.classes[c.ID] = c
	return c.ID
}

func (s *Store) AddSession(sess models.Session) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.ID = s.data.id()
	s.data.sessions[sess.ID] = sess
	return sess.ID
}

func (s *Store) AddShift(sh models.Shift) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh.ID = s.data.id()
	s.data.shifts = append(s.data.shifts, sh)
	return sh.ID
}

//
// --- Inspection helpers ---
//

func (s *Store) Sessions() []models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Session, 0, len(s.data.sessions))
	for _, v := range s.data.sessions {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Classes() []models.Class {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Class, 0, len(s.data.classes))
	for _, v := range s.data.classes {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Reservations() []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Reservation, 0, len(s.data.reservations))
	for _, v := range s.data.reservations {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) ReservationCount(sessionID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countFor(s.data.reservations, sessionID)
}

func (s *Store) Shifts() []models.Shift {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Shift(nil), s.data.shifts...)
}

func (s *Store) Accesses() []models.Access {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Access(nil), s.data.accesses...)
}

func (s *Store) Notifications(userID int64) []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Notification
	for _, n := range s.data.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func countFor(reservations map[int64]models.Reservation, sessionID int64) int {
	n := 0
	for _, r := range reservations {
		if r.SessionID == sessionID {
			n++
		}
	}
	return n
}

//
// --- gym.Tx ---
//

type tx struct {
	st *state
}

func (t *tx) GetUser(_ context.Context, id int64) (models.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return models.User{}, gym.ErrNoRows
	}
	return u, nil
}

func (t *tx) LockUser(ctx context.Context, id int64) (models.User, error) {
	return t.GetUser(ctx, id)
}

func (t *tx) GetMembership(_ context.Context, id int64) (models.Membership, error) {
	m, ok := t.st.memberships[id]
	if !ok {
		return models.Membership{}, gym.ErrNoRows
	}
	return m, nil
}

func (t *tx) CountPaymentsBetween(_ context.Context, userID int64, from, to time.Time) (int, error) {
	n := 0
	for _, p := range t.st.payments {
		if p.UserID == userID && !p.PaidAt.Before(from) && p.PaidAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (t *tx) InsertClass(_ context.Context, c *models.Class) error {
	for _, existing := range t.st.classes {
		if existing.Slug == c.Slug {
			return gym.ErrDuplicate
		}
	}
	c.ID = t.st.id()
	t.st.classes[c.ID] = *c
	return nil
}

func (t *tx) GetClass(_ context.Context, id int64) (models.Class, error) {
	c, ok := t.st.classes[id]
	if !ok {
		return models.Class{}, gym.ErrNoRows
	}
	return c, nil
}

func (t *tx) ListClasses(_ context.Context) ([]models.Class, error) {
	out := make([]models.Class, 0, len(t.st.classes))
	for _, c := range t.st.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (t *tx) UpdateClass(_ context.Context, c models.Class) error {
	if _, ok := t.st.classes[c.ID]; !ok {
		return gym.ErrNoRows
	}
	for _, existing := range t.st.classes {
		if existing.ID != c.ID && existing.Slug == c.Slug {
			return gym.ErrDuplicate
		}
	}
	t.st.classes[c.ID] = c
	return nil
}

func (t *tx) DeleteClass(_ context.Context, id int64) error {
	if _, ok := t.st.classes[id]; !ok {
		return gym.ErrNoRows
	}
	delete(t.st.classes, id)
	return nil
}

func (t *tx) CountSessionsForClass(_ context.Context, classID int64) (int, error) {
	n := 0
	for _, s := range t.st.sessions {
		if s.ClassID == classID {
			n++
		}
	}
	return n, nil
}

func (t *tx) InsertSession(_ context.Context, s *models.Session) error {
	if _, ok := t.st.classes[s.ClassID]; !ok {
		return gym.ErrNoRows
	}
	s.ID = t.st.id()
	stored := *s
	stored.Attendees, stored.Available, stored.ClassType = 0, 0, ""
	t.st.sessions[s.ID] = stored
	return nil
}

func (t *tx) GetSession(_ context.Context, id int64) (models.Session, error) {
	s, ok := t.st.sessions[id]
	if !ok {
		return models.Session{}, gym.ErrNoRows
	}
	s.ClassType = t.st.classes[s.ClassID].Type
	return s, nil
}

func (t *tx) LockSession(ctx context.Context, id int64) (models.Session, error) {
	return t.GetSession(ctx, id)
}

func (t *tx) ListSessions(_ context.Context, f gym.SessionFilter) ([]models.Session, error) {
	var out []models.Session
	for _, s := range t.st.sessions {
		if f.ClassID != 0 && s.ClassID != f.ClassID {
			continue
		}
		if f.From != nil && s.Date.Before(f.From.Time) {
			continue
		}
		if f.To != nil && s.Date.After(f.To.Time) {
			continue
		}
		s.ClassType = t.st.classes[s.ClassID].Type
		s.Fill(countFor(t.st.reservations, s.ID))
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (t *tx) UpdateSession(_ context.Context, s models.Session) error {
	if _, ok := t.st.sessions[s.ID]; !ok {
		return gym.ErrNoRows
	}
	s.Attendees, s.Available, s.ClassType = 0, 0, ""
	t.st.sessions[s.ID] = s
	return nil
}

func (t *tx) DeleteSession(_ context.Context, id int64) error {
	if _, ok := t.st.sessions[id]; !ok {
		return gym.ErrNoRows
	}
	delete(t.st.sessions, id)
	return nil
}

func (t *tx) CountReservations(_ context.Context, sessionID int64) (int, error) {
	return countFor(t.st.reservations, sessionID), nil
}

func (t *tx) HasReservation(_ context.Context, userID, sessionID int64) (bool, error) {
	for _, r := range t.st.reservations {
		if r.UserID == userID && r.SessionID == sessionID {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) InsertReservation(ctx context.Context, r *models.Reservation) error {
	if dup, _ := t.HasReservation(ctx, r.UserID, r.SessionID); dup {
		return gym.ErrDuplicate
	}
	r.ID = t.st.id()
	t.st.reservations[r.ID] = *r
	return nil
}

func (t *tx) GetReservation(_ context.Context, id int64) (models.Reservation, error) {
	r, ok := t.st.reservations[id]
	if !ok {
		return models.Reservation{}, gym.ErrNoRows
	}
	return r, nil
}

func (t *tx) UpdateReservationStatus(_ context.Context, id int64, status string) error {
	r, ok := t.st.reservations[id]
	if !ok {
		return gym.ErrNoRows
	}
	r.Status = status
	t.st.reservations[id] = r
	return nil
}

func (t *tx) DeleteReservation(_ context.Context, id int64) error {
	if _, ok := t.st.reservations[id]; !ok {
		return gym.ErrNoRows
	}
	delete(t.st.reservations, id)
	return nil
}

func (t *tx) ListReservationsForSession(_ context.Context, sessionID int64) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, r := range t.st.reservations {
		if r.SessionID == sessionID {
			r.UserName = t.st.users[r.UserID].Name
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) ListReservationsForUser(_ context.Context, userID int64) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, r := range t.st.reservations {
		if r.UserID != userID {
			continue
		}
		if s, ok := t.st.sessions[r.SessionID]; ok {
			date, start := s.Date, s.StartTime
			r.Date, r.StartTime = &date, &start
			r.ClassType = t.st.classes[s.ClassID].Type
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) DeleteReservationsForSession(_ context.Context, sessionID int64) error {
	for id, r := range t.st.reservations {
		if r.SessionID == sessionID {
			delete(t.st.reservations, id)
		}
	}
	return nil
}

func (t *tx) LastShiftBetween(_ context.Context, userID int64, from, to time.Time) (models.Shift, error) {
	var (
		last  models.Shift
		found bool
	)
	for _, s := range t.st.shifts {
		if s.UserID != userID || s.At.Before(from) || !s.At.Before(to) {
			continue
		}
		if !found || !s.At.Before(last.At) {
			last, found = s, true
		}
	}
	if !found {
		return models.Shift{}, gym.ErrNoRows
	}
	return last, nil
}

func (t *tx) InsertShift(_ context.Context, s *models.Shift) error {
	s.ID = t.st.id()
	t.st.shifts = append(t.st.shifts, *s)
	return nil
}

func (t *tx) ListShifts(_ context.Context, userID int64, from, to time.Time) ([]models.Shift, error) {
	var out []models.Shift
	for _, s := range t.st.shifts {
		if userID != 0 && s.UserID != userID {
			continue
		}
		if s.At.Before(from) || !s.At.Before(to) {
			continue
		}
		s.UserName = t.st.users[s.UserID].Name
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

func (t *tx) InsertAccess(_ context.Context, a *models.Access) error {
	a.ID = t.st.id()
	t.st.accesses = append(t.st.accesses, *a)
	return nil
}

func (t *tx) ListAccesses(_ context.Context, userID int64, from, to time.Time) ([]models.Access, error) {
	var out []models.Access
	for _, a := range t.st.accesses {
		if userID != 0 && a.UserID != userID {
			continue
		}
		if a.At.Before(from) || !a.At.Before(to) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

func (t *tx) AddNotification(_ context.Context, userID int64, message, link string) error {
	n := models.Notification{ID: t.st.id(), UserID: userID, Message: message}
	if link != "" {
		n.Link = &link
	}
	t.st.notifications = append(t.st.notifications, n)
	return nil
}
