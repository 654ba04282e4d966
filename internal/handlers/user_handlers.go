package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gymcore/gym-api/internal/models"
)

const userColumns = "id, nombre, email, rol, membresia_id, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }, u *models.User) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.MembershipID, &u.CreatedAt, &u.UpdatedAt)
}

// --- User Registration ---

// RegisterInput defines the expected JSON data for registration.
type RegisterInput struct {
	Name     string `json:"nombre" binding:"required,max=150"`
	Email    string `json:"email" binding:"required,email,max=190"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// Register is the handler for POST /auth/register.
// New accounts are always clients; staff roles are granted by an administrator.
func (h *Handlers) Register(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	// 2. --- Hash the Password ---
	var password models.Password
	if err := password.Set(input.Password); err != nil {
		h.internalError(c, "Failed to hash password", err)
		return
	}

	// 3. --- Save to Database ---
	now := h.Clock.Current()
	user := models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: password.Hash,
		Role:         models.RoleClient,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	result, err := h.DB.ExecContext(c.Request.Context(), `
		INSERT INTO usuarios (nombre, email, password_hash, rol, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.Name, user.Email, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			conflict(c, "An account with this email already exists")
			return
		}
		h.internalError(c, "Failed to register user", err)
		return
	}
	user.ID, err = result.LastInsertId()
	if err != nil {
		h.internalError(c, "Failed to get new user ID", err)
		return
	}

	// 4. --- Send Success Response ---
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user":    user,
	})
}

// --- User Login ---

// LoginInput defines the JSON data expected for a login.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /auth/login.
func (h *Handlers) Login(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	// 2. --- Find User By Email ---
	var user models.User
	err := h.DB.QueryRowContext(c.Request.Context(),
		"SELECT id, nombre, email, password_hash, rol, membresia_id FROM usuarios WHERE email = ?", input.Email).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.MembershipID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "code": "unauthorized"})
			return
		}
		h.internalError(c, "Database error", err)
		return
	}

	// 3. --- Check Password ---
	password := models.Password{Hash: user.PasswordHash}
	match, err := password.Matches(input.Password)
	if err != nil {
		h.internalError(c, "Failed to check password", err)
		return
	}
	if !match {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "code": "unauthorized"})
		return
	}

	// 4. --- Generate JWT (The "Passport") ---
	token, err := h.Tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		h.internalError(c, "Failed to generate token", err)
		return
	}

	// 5. --- Send Success Response ---
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user": gin.H{
			"id":           user.ID,
			"nombre":       user.Name,
			"email":        user.Email,
			"rol":          user.Role,
			"membresia_id": user.MembershipID,
		},
	})
}

// --- Profile ---

// GetProfile is the handler for GET /private/perfil.
func (h *Handlers) GetProfile(c *gin.Context) {
	actor := actorOf(c)

	var user models.User
	err := scanUser(h.DB.QueryRowContext(c.Request.Context(),
		"SELECT "+userColumns+" FROM usuarios WHERE id = ?", actor.UserID), &user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			notFound(c, "User not found")
			return
		}
		h.internalError(c, "Failed to load profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type UpdateProfileInput struct {
	Name string `json:"nombre" binding:"required,max=150"`
}

// UpdateProfile is the handler for PUT /private/perfil. Only the name is editable.
func (h *Handlers) UpdateProfile(c *gin.Context) {
	actor := actorOf(c)

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	_, err := h.DB.ExecContext(c.Request.Context(),
		"UPDATE usuarios SET nombre = ?, updated_at = ? WHERE id = ?",
		input.Name, h.Clock.Current(), actor.UserID)
	if err != nil {
		h.internalError(c, "Failed to update profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

//
// --- User administration (administrator only) ---
//

// ListUsers is the handler for GET /private/usuarios?rol=...
func (h *Handlers) ListUsers(c *gin.Context) {
	query := "SELECT " + userColumns + " FROM usuarios"
	var args []any
	if role := c.Query("rol"); role != "" {
		if !models.Role(role).Valid() {
			badRequest(c, "Invalid rol")
			return
		}
		query += " WHERE rol = ?"
		args = append(args, role)
	}
	query += " ORDER BY nombre"

	rows, err := h.DB.QueryContext(c.Request.Context(), query, args...)
	if err != nil {
		h.internalError(c, "Database query failed", err)
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			h.internalError(c, "Failed to scan user row", err)
			return
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		h.internalError(c, "Error iterating user rows", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

type UpdateRoleInput struct {
	Role string `json:"rol" binding:"required,role"`
}

// UpdateUserRole is the handler for PATCH /private/usuarios/:id/rol.
// The new role is carried by tokens issued from the next login on.
func (h *Handlers) UpdateUserRole(c *gin.Context) {
	actor := actorOf(c)
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input UpdateRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	if userID == actor.UserID && models.Role(input.Role) != models.RoleAdmin {
		conflict(c, "Administrators cannot demote themselves")
		return
	}

	tx, err := h.DB.BeginTx(c.Request.Context(), nil)
	if err != nil {
		h.internalError(c, "Failed to start transaction", err)
		return
	}
	defer tx.Rollback()

	var current models.Role
	err = tx.QueryRowContext(c.Request.Context(), "SELECT rol FROM usuarios WHERE id = ? FOR UPDATE", userID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			notFound(c, "User not found")
			return
		}
		h.internalError(c, "Failed to load user", err)
		return
	}

	if current != models.Role(input.Role) {
		if _, err := tx.ExecContext(c.Request.Context(),
			"UPDATE usuarios SET rol = ?, updated_at = ? WHERE id = ?",
			input.Role, h.Clock.Current(), userID); err != nil {
			h.internalError(c, "Failed to update role", err)
			return
		}
		msg := fmt.Sprintf("Your role is now %s. Sign in again to use it.", input.Role)
		if err := h.AddNotification(tx, userID, msg, "/perfil"); err != nil {
			h.internalError(c, "Failed to notify user", err)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		h.internalError(c, "Failed to commit role change", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role updated", "id": userID, "rol": input.Role})
}

type AssignMembershipInput struct {
	// nil removes the membership.
	MembershipID *int64 `json:"membresia_id" binding:"omitempty,gt=0"`
}

// AssignMembership is the handler for PATCH /private/usuarios/:id/membresia.
func (h *Handlers) AssignMembership(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input AssignMembershipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		h.internalError(c, "Failed to start transaction", err)
		return
	}
	defer tx.Rollback()

	// 1. --- User must exist ---
	var exists bool
	if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM usuarios WHERE id = ?)", userID).Scan(&exists); err != nil {
		h.internalError(c, "Failed to load user", err)
		return
	}
	if !exists {
		notFound(c, "User not found")
		return
	}

	// 2. --- Membership must exist ---
	msg := "Your membership was removed."
	if input.MembershipID != nil {
		var name string
		err := tx.QueryRowContext(ctx, "SELECT nombre FROM membresias WHERE id = ?", *input.MembershipID).Scan(&name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				notFound(c, "Membership not found")
				return
			}
			h.internalError(c, "Failed to load membership", err)
			return
		}
		msg = fmt.Sprintf("You are now on the %s membership. It is active in every month with a registered payment.", name)
	}

	// 3. --- Update & notify ---
	if _, err := tx.ExecContext(ctx,
		"UPDATE usuarios SET membresia_id = ?, updated_at = ? WHERE id = ?",
		input.MembershipID, h.Clock.Current(), userID); err != nil {
		h.internalError(c, "Failed to assign membership", err)
		return
	}
	if err := h.AddNotification(tx, userID, msg, "/membresia"); err != nil {
		h.internalError(c, "Failed to notify user", err)
		return
	}
	if err := tx.Commit(); err != nil {
		h.internalError(c, "Failed to commit membership change", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Membership updated", "id": userID, "membresia_id": input.MembershipID})
}

// DeleteUser is the handler for DELETE /private/usuarios/:id.
// Payments, reservations, shifts, accesses and notifications go with the user.
func (h *Handlers) DeleteUser(c *gin.Context) {
	actor := actorOf(c)
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if userID == actor.UserID {
		conflict(c, "You cannot delete your own account")
		return
	}

	result, err := h.DB.ExecContext(c.Request.Context(), "DELETE FROM usuarios WHERE id = ?", userID)
	if err != nil {
		h.internalError(c, "Failed to delete user", err)
		return
	}
	n, err := result.RowsAffected()
	if err != nil {
		h.internalError(c, "Failed to check affected rows", err)
		return
	}
	if n == 0 {
		notFound(c, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
