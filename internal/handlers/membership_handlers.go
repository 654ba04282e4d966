package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gymcore/gym-api/internal/models"
)

//
// --- Membership plans ---
//

type MembershipInput struct {
	Name         string  `json:"nombre" binding:"required,max=100"`
	Description  string  `json:"descripcion"`
	Price        float64 `json:"precio" binding:"required,gt=0"`
	DurationDays int     `json:"duracion_dias" binding:"required,gt=0"`
}

// ListMemberships is the handler for GET /private/membresias
func (h *Handlers) ListMemberships(c *gin.Context) {
	rows, err := h.DB.QueryContext(c.Request.Context(), `
		SELECT id, nombre, COALESCE(descripcion, ''), precio, duracion_dias, created_at
		FROM membresias
		ORDER BY precio`)
	if err != nil {
		h.internalError(c, "Database query failed", err)
		return
	}
	defer rows.Close()

	memberships := []models.Membership{}
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.DurationDays, &m.CreatedAt); err != nil {
			h.internalError(c, "Failed to scan membership row", err)
			return
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		h.internalError(c, "Error iterating membership rows", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"memberships": memberships})
}

// CreateMembership is the handler for POST /private/membresias
func (h *Handlers) CreateMembership(c *gin.Context) {
	var input MembershipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	m := models.Membership{
		Name:         input.Name,
		Description:  input.Description,
		Price:        input.Price,
		DurationDays: input.DurationDays,
		CreatedAt:    h.Clock.Current(),
	}
	result, err := h.DB.ExecContext(c.Request.Context(), `
		INSERT INTO membresias (nombre, descripcion, precio, duracion_dias, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.Name, m.Description, m.Price, m.DurationDays, m.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			conflict(c, "A membership with this name already exists")
			return
		}
		h.internalError(c, "Failed to create membership", err)
		return
	}
	if m.ID, err = result.LastInsertId(); err != nil {
		h.internalError(c, "Failed to get new membership ID", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Membership created", "membership": m})
}

// UpdateMembership is the handler for PUT /private/membresias/:id
func (h *Handlers) UpdateMembership(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input MembershipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()

	var exists bool
	if err := h.DB.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM membresias WHERE id = ?)", id).Scan(&exists); err != nil {
		h.internalError(c, "Failed to load membership", err)
		return
	}
	if !exists {
		notFound(c, "Membership not found")
		return
	}

	_, err := h.DB.ExecContext(ctx, `
		UPDATE membresias SET nombre = ?, descripcion = ?, precio = ?, duracion_dias = ?
		WHERE id = ?`,
		input.Name, input.Description, input.Price, input.DurationDays, id)
	if err != nil {
		if isDuplicateKey(err) {
			conflict(c, "A membership with this name already exists")
			return
		}
		h.internalError(c, "Failed to update membership", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Membership updated", "id": id})
}

// GetMembershipStatus is the handler for GET /private/membresia/estado.
// The answer comes from the membership gate, the same rule reservations and
// gym accesses are checked against.
func (h *Handlers) GetMembershipStatus(c *gin.Context) {
	status, err := h.Gym.Gate.Status(c.Request.Context(), actorOf(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

//
// --- Payments ---
//

type PaymentInput struct {
	UserID int64   `json:"usuario_id" binding:"required,gt=0"`
	Amount float64 `json:"monto" binding:"required,gt=0"`
}

// RegisterPayment is the handler for POST /private/pagos.
// A payment dated this month is what makes a membership active for the month.
func (h *Handlers) RegisterPayment(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input PaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()

	// 2. --- Start Transaction ---
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		h.internalError(c, "Failed to start transaction", err)
		return
	}
	defer tx.Rollback()

	// 3. --- User must hold a membership ---
	var (
		name         string
		membershipID sql.NullInt64
	)
	err = tx.QueryRowContext(ctx,
		"SELECT nombre, membresia_id FROM usuarios WHERE id = ? FOR UPDATE", input.UserID).
		Scan(&name, &membershipID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			notFound(c, "User not found")
			return
		}
		h.internalError(c, "Failed to load user", err)
		return
	}
	if !membershipID.Valid {
		badRequest(c, "User has no membership assigned")
		return
	}

	// 4. --- Record the payment with the server date ---
	payment := models.Payment{
		UserID:    input.UserID,
		Amount:    input.Amount,
		PaidAt:    h.Clock.Current(),
		CreatedAt: h.Clock.Current(),
		UserName:  name,
	}
	result, err := tx.ExecContext(ctx,
		"INSERT INTO pagos (usuario_id, monto, fecha, created_at) VALUES (?, ?, ?, ?)",
		payment.UserID, payment.Amount, payment.PaidAt, payment.CreatedAt)
	if err != nil {
		h.internalError(c, "Failed to record payment", err)
		return
	}
	if payment.ID, err = result.LastInsertId(); err != nil {
		h.internalError(c, "Failed to get new payment ID", err)
		return
	}

	// 5. --- Notify ---
	msg := fmt.Sprintf("We received your payment of %.2f. Your membership is active for %s.",
		payment.Amount, payment.PaidAt.Format("January 2006"))
	if err := h.AddNotification(tx, input.UserID, msg, "/pagos"); err != nil {
		h.internalError(c, "Failed to notify user", err)
		return
	}

	if err := tx.Commit(); err != nil {
		h.internalError(c, "Failed to commit payment", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Payment registered", "payment": payment})
}

// ListPayments is the handler for GET /private/pagos?usuario_id=...
func (h *Handlers) ListPayments(c *gin.Context) {
	var userID int64
	if v := c.Query("usuario_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			badRequest(c, "Invalid usuario_id")
			return
		}
		userID = id
	}
	h.listPayments(c, userID)
}

// ListMyPayments is the handler for GET /private/pagos/mios
func (h *Handlers) ListMyPayments(c *gin.Context) {
	h.listPayments(c, actorOf(c).UserID)
}

// listPayments returns the latest payments, of one user or of everyone (userID 0).
func (h *Handlers) listPayments(c *gin.Context, userID int64) {
	query := `
		SELECT p.id, p.usuario_id, u.nombre, p.monto, p.fecha, p.created_at
		FROM pagos p JOIN usuarios u ON u.id = p.usuario_id`
	var args []any
	if userID != 0 {
		query += " WHERE p.usuario_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY p.fecha DESC LIMIT 200"

	rows, err := h.DB.QueryContext(c.Request.Context(), query, args...)
	if err != nil {
		h.internalError(c, "Database query failed", err)
		return
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.UserName, &p.Amount, &p.PaidAt, &p.CreatedAt); err != nil {
			h.internalError(c, "Failed to scan payment row", err)
			return
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		h.internalError(c, "Error iterating payment rows", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}
