package handlers

import (
	"database/sql"
	"log/slog"

	"github.com/gymcore/gym-api/internal/auth"
	"github.com/gymcore/gym-api/internal/gym"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB     *sql.DB            // Primary Read/Write connection (users, memberships, payments, reports)
	Gym    *gym.Service       // Reservations, catalog and attendance rules
	Tokens *auth.TokenManager // Issues the login token
	Clock  gym.Clock          // Server time in the gym's timezone
	Logger *slog.Logger
}
