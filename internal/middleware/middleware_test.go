package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gymcore/gym-api/internal/auth"
	"github.com/gymcore/gym-api/internal/gym"
	"github.com/gymcore/gym-api/internal/metrics"
	"github.com/gymcore/gym-api/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTokens(t *testing.T) *auth.TokenManager {
	t.Helper()
	tm, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	return tm
}

func protectedRouter(tokens *auth.TokenManager, action auth.Action) *gin.Engine {
	r := gin.New()
	r.GET("/private/thing", AuthMiddleware(tokens), RequirePermission(action), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":  c.GetInt64(ContextUserID),
			"rol": c.MustGet(ContextUserRole),
		})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tokens := newTokens(t)
	r := protectedRouter(tokens, auth.ActionRegisterAccess)
	valid, err := tokens.GenerateToken(42, models.RoleClient)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private/thing", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/private/thing", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(42), body["id"])
	assert.Equal(t, "cliente", body["rol"])
}

func TestRequirePermission(t *testing.T) {
	tokens := newTokens(t)
	r := protectedRouter(tokens, auth.ActionManageClasses)

	for role, want := range map[models.Role]int{
		models.RoleClient:  http.StatusForbidden,
		models.RoleTrainer: http.StatusForbidden,
		models.RoleAdmin:   http.StatusOK,
	} {
		tok, err := tokens.GenerateToken(1, role)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/private/thing", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
		if want == http.StatusForbidden {
			assert.Contains(t, rec.Body.String(), `"code":"forbidden"`)
		}
	}
}

type storedRoles map[int64]models.Role

func (r storedRoles) CurrentRole(_ context.Context, id int64) (models.Role, error) {
	if id == 99 {
		return "", errors.New("dial tcp: connection refused")
	}
	role, ok := r[id]
	if !ok {
		return "", gym.ErrUserNotFound
	}
	return role, nil
}

func TestVerifyAdminRole(t *testing.T) {
	tokens := newTokens(t)
	roles := storedRoles{1: models.RoleAdmin, 2: models.RoleClient}

	r := gin.New()
	r.GET("/private/reports", AuthMiddleware(tokens), VerifyAdminRole(roles), RequirePermission(auth.ActionViewReports),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name string
		id   int64
		role models.Role
		want int
	}{
		{"still an administrator", 1, models.RoleAdmin, http.StatusOK},
		{"demoted since login", 2, models.RoleAdmin, http.StatusForbidden},
		{"account deleted", 7, models.RoleAdmin, http.StatusUnauthorized},
		{"store down", 99, models.RoleAdmin, http.StatusInternalServerError},
		{"other roles skip the lookup", 99, models.RoleTrainer, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := tokens.GenerateToken(tt.id, tt.role)
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodGet, "/private/reports", nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "dial tcp")
		})
	}
}

func TestRequirePermission_WithoutAuth(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequirePermission(auth.ActionViewReports), func(c *gin.Context) { c.Status(http.StatusOK) })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestID(), Logger(logger))
	r.GET("/sesiones/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sesiones/7", nil))
	id := rec.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "/sesiones/:id", line["route"])
	assert.Equal(t, "/sesiones/7", line["path"])
	assert.Equal(t, float64(404), line["status"])
	assert.Equal(t, id, line["request_id"])

	req := httptest.NewRequest(http.MethodGet, "/sesiones/7", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/ping", "/ping", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	n, err := testutil.GatherAndCount(m.Registry, "gym_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series for /ping, one for unmatched")
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS("http://localhost:5173"))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
