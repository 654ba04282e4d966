package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gymcore/gym-api/internal/auth"
	"github.com/gymcore/gym-api/internal/gym"
	"github.com/gymcore/gym-api/internal/models"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

// AuthMiddleware is the "security guard" in front of /private. It validates
// the bearer token and puts the caller's id and role into the context.
// The role comes from the token; VerifyAdminRole narrows it for administrators.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required", "code": "unauthorized"})
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format (must be Bearer)", "code": "unauthorized"})
			return
		}

		// 2. --- Validate Token ---
		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "code": "unauthorized"})
			return
		}

		// 3. --- Success ---
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}

// RoleSource reads the role currently stored for a user.
type RoleSource interface {
	CurrentRole(ctx context.Context, userID int64) (models.Role, error)
}

// VerifyAdminRole must run after AuthMiddleware. Tokens claiming the
// administrator role are checked against the stored role, so a demoted
// administrator falls back to their current role and a deleted one is
// rejected before the token expires.
func VerifyAdminRole(roles RoleSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get(ContextUserRole); role != models.RoleAdmin {
			c.Next()
			return
		}

		current, err := roles.CurrentRole(c.Request.Context(), c.GetInt64(ContextUserID))
		switch {
		case errors.Is(err, gym.ErrUserNotFound):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists", "code": "unauthorized"})
			return
		case err != nil:
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify role", "code": gym.KindUnavailable.String()})
			return
		}
		c.Set(ContextUserRole, current)
		c.Next()
	}
}

// RequirePermission must run after AuthMiddleware. It checks the caller's
// role against the authorization policy.
func RequirePermission(action auth.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ContextUserRole)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User role not found in context (AuthMiddleware must run first)", "code": "unauthorized"})
			return
		}
		if !auth.IsAuthorized(role.(models.Role), action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: your role cannot perform this action", "code": "forbidden"})
			return
		}
		c.Next()
	}
}
