package routes

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gymcore/gym-api/internal/auth"
	"github.com/gymcore/gym-api/internal/gym"
	"github.com/gymcore/gym-api/internal/gym/gymtest"
	"github.com/gymcore/gym-api/internal/handlers"
	"github.com/gymcore/gym-api/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	m := metrics.New()
	clock := gym.NewClock(time.UTC)
	h := &handlers.Handlers{
		Gym:    gym.NewService(gymtest.New(), clock, gym.Geofence{}, m),
		Tokens: tokens,
		Clock:  clock,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return SetupRouter(h, m, "http://localhost:5173")
}

func TestSetupRouter_Routes(t *testing.T) {
	router := newTestRouter(t)

	registered := map[string]bool{}
	for _, r := range router.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	want := []string{
		"GET /ping",
		"GET /metrics",
		"POST /auth/register",
		"POST /auth/login",
		"GET /private/perfil",
		"PUT /private/perfil",
		"GET /private/membresia/estado",
		"GET /private/membresias",
		"POST /private/membresias",
		"PUT /private/membresias/:id",
		"POST /private/pagos",
		"GET /private/pagos",
		"GET /private/pagos/mios",
		"GET /private/usuarios",
		"PATCH /private/usuarios/:id/rol",
		"PATCH /private/usuarios/:id/membresia",
		"DELETE /private/usuarios/:id",
		"GET /private/clases",
		"GET /private/clases/:id",
		"POST /private/clases",
		"PUT /private/clases/:id",
		"DELETE /private/clases/:id",
		"GET /private/sesiones",
		"GET /private/sesiones/:id",
		"POST /private/sesiones",
		"PUT /private/sesiones/:id",
		"DELETE /private/sesiones/:id",
		"GET /private/sesiones/:id/reservas",
		"POST /private/reservas",
		"GET /private/reservas",
		"DELETE /private/reservas/:id",
		"PATCH /private/reservas/:id/confirmar",
		"POST /private/turnos/entrada",
		"POST /private/turnos/salida",
		"GET /private/turnos",
		"POST /private/accesos",
		"GET /private/accesos",
		"GET /private/notificaciones",
		"GET /private/notificaciones/no-leidas",
		"PATCH /private/notificaciones/:id/leida",
		"GET /private/reportes/ocupacion",
		"GET /private/reportes/asistencia",
		"GET /private/reportes/ingresos",
		"GET /private/reportes/turnos",
	}
	for _, route := range want {
		assert.True(t, registered[route], "missing route %s", route)
	}
	assert.Len(t, registered, len(want))
}

func TestSetupRouter_Preflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/private/reservas", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSetupRouter_Unmatched(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
