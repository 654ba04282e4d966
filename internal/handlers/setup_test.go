package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gymcore/gym-api/internal/auth"
	"github.com/gymcore/gym-api/internal/gym"
	"github.com/gymcore/gym-api/internal/gym/gymtest"
	"github.com/gymcore/gym-api/internal/handlers"
	"github.com/gymcore/gym-api/internal/metrics"
	"github.com/gymcore/gym-api/internal/models"
	"github.com/gymcore/gym-api/internal/routes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testLoc = time.FixedZone("gym", -6*3600)
	testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, testLoc)
)

// server is the whole router over an in-memory gym store. Handlers that
// talk SQL directly go to a sqlmock connection.
type server struct {
	t          *testing.T
	router     *gin.Engine
	store      *gymtest.Store
	mock       sqlmock.Sqlmock
	tokens     *auth.TokenManager
	membership int64
}

func newServer(t *testing.T) *server {
	return newServerWithFence(t, gym.Geofence{Latitude: 19.4326, Longitude: -99.1332, RadiusMeters: 100})
}

func newServerWithFence(t *testing.T, fence gym.Geofence) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	store := gymtest.New()
	clock := gym.Clock{Now: func() time.Time { return testNow }, Location: testLoc}
	m := metrics.New()
	h := &handlers.Handlers{
		DB:     db,
		Gym:    gym.NewService(store, clock, fence, m),
		Tokens: tokens,
		Clock:  clock,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	s := &server{
		t:      t,
		router: routes.SetupRouter(h, m, "http://localhost:5173"),
		store:  store,
		mock:   mock,
		tokens: tokens,
	}
	s.membership = store.AddMembership(models.Membership{Name: "Mensual", Price: 500, DurationDays: 30})
	return s
}

func (s *server) token(id int64, role models.Role) string {
	s.t.Helper()
	tok, err := s.tokens.GenerateToken(id, role)
	require.NoError(s.t, err)
	return tok
}

// activeClient has a membership and a payment this month.
func (s *server) activeClient(name string) (int64, string) {
	id := s.store.AddUser(models.User{Name: name, Role: models.RoleClient, MembershipID: &s.membership})
	s.store.AddPayment(id, 500, testNow.AddDate(0, 0, -3))
	return id, s.token(id, models.RoleClient)
}

// lapsedClient last paid the previous month.
func (s *server) lapsedClient(name string) (int64, string) {
	id := s.store.AddUser(models.User{Name: name, Role: models.RoleClient, MembershipID: &s.membership})
	s.store.AddPayment(id, 500, testNow.AddDate(0, -1, 0))
	return id, s.token(id, models.RoleClient)
}

func (s *server) staff(name string, role models.Role) (int64, string) {
	id := s.store.AddUser(models.User{Name: name, Role: role})
	return id, s.token(id, role)
}

// session schedules a class tomorrow 10:00-11:00.
func (s *server) session(capacity int) int64 {
	classID := s.store.AddClass(models.Class{Type: "Spinning", Slug: "spinning"})
	return s.store.AddSession(models.Session{
		ClassID:   classID,
		Date:      models.DateOf(testNow.AddDate(0, 0, 1), testLoc),
		StartTime: models.MustTimeOfDay("10:00"),
		EndTime:   models.MustTimeOfDay("11:00"),
		Capacity:  capacity,
	})
}

func (s *server) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// field walks nested JSON objects: field(body, "session", "asistentes").
func field(t *testing.T, body map[string]any, path ...string) any {
	t.Helper()
	var cur any = body
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		require.True(t, ok, "%v is not an object at %q", cur, key)
		cur = obj[key]
	}
	return cur
}
