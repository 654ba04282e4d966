package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ReservationRequest struct {
	SessionID int64 `json:"sesion_id" binding:"required,gt=0"`
}

// CreateReservation is the handler for POST /private/reservas
func (h *Handlers) CreateReservation(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var req ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	// 2. --- Book (membership, capacity and duplicate checks happen in one transaction) ---
	res, err := h.Gym.Reservations.Create(c.Request.Context(), actorOf(c), req.SessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// 3. --- Send Success Response ---
	c.JSON(http.StatusCreated, gin.H{"message": "Reservation created", "reservation": res})
}

// ListMyReservations is the handler for GET /private/reservas
func (h *Handlers) ListMyReservations(c *gin.Context) {
	list, err := h.Gym.Reservations.ListMine(c.Request.Context(), actorOf(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": nonNil(list)})
}

// CancelReservation is the handler for DELETE /private/reservas/:id.
// Owners cancel their own; trainers and administrators may cancel any.
func (h *Handlers) CancelReservation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Gym.Reservations.Cancel(c.Request.Context(), actorOf(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation cancelled"})
}

// ConfirmReservation is the handler for PATCH /private/reservas/:id/confirmar
func (h *Handlers) ConfirmReservation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.Gym.Reservations.Confirm(c.Request.Context(), actorOf(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation confirmed", "reservation": res})
}

// ListSessionReservations is the handler for GET /private/sesiones/:id/reservas
func (h *Handlers) ListSessionReservations(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.Gym.Reservations.ListForSession(c.Request.Context(), actorOf(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": nonNil(list)})
}
