package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gymcore/gym-api/internal/gym"
	"github.com/gymcore/gym-api/internal/models"
)

//
// --- Staff shifts ---
//

type shiftFunc func(context.Context, gym.Actor, models.Coordinates) (gym.ShiftResult, error)

// RegisterShiftEntry is the handler for POST /private/turnos/entrada.
// The body {"latitud", "longitud"} is optional unless the geofence is enforced.
func (h *Handlers) RegisterShiftEntry(c *gin.Context) {
	h.registerShift(c, h.Gym.Attendance.RegisterEntry, "Entry registered")
}

// RegisterShiftExit is the handler for POST /private/turnos/salida
func (h *Handlers) RegisterShiftExit(c *gin.Context) {
	h.registerShift(c, h.Gym.Attendance.RegisterExit, "Exit registered")
}

func (h *Handlers) registerShift(c *gin.Context, register shiftFunc, message string) {
	// 1. --- Optional position ---
	var pos models.Coordinates
	if err := c.ShouldBindJSON(&pos); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err.Error())
		return
	}

	// 2. --- Register (timestamp is always the server's) ---
	result, err := register(c.Request.Context(), actorOf(c), pos)
	if err != nil {
		if result.DistanceMeters != nil {
			c.JSON(statusOf(gym.KindOf(err)), gin.H{
				"error":            messageOf(err),
				"code":             gym.KindOf(err).String(),
				"distancia_metros": *result.DistanceMeters,
			})
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":          message,
		"turno":            result.Shift,
		"distancia_metros": result.DistanceMeters,
	})
}

// ListShifts is the handler for GET /private/turnos?usuario_id=&desde=&hasta=
// Staff see their own shifts; administrators may ask for anyone (usuario_id=0 is everyone).
func (h *Handlers) ListShifts(c *gin.Context) {
	actor := actorOf(c)
	userID, ok := targetUser(c, actor)
	if !ok {
		return
	}
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}
	shifts, err := h.Gym.Attendance.ListShifts(c.Request.Context(), actor, userID, from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shifts": nonNil(shifts)})
}

//
// --- Client gym accesses ---
//

// RegisterAccess is the handler for POST /private/accesos.
// Only clients with an active membership get through; nothing is written otherwise.
func (h *Handlers) RegisterAccess(c *gin.Context) {
	access, err := h.Gym.Attendance.RegisterAccess(c.Request.Context(), actorOf(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Access registered", "access": access})
}

// ListAccesses is the handler for GET /private/accesos?usuario_id=&desde=&hasta=
func (h *Handlers) ListAccesses(c *gin.Context) {
	actor := actorOf(c)
	userID, ok := targetUser(c, actor)
	if !ok {
		return
	}
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}
	accesses, err := h.Gym.Attendance.ListAccesses(c.Request.Context(), actor, userID, from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accesses": nonNil(accesses)})
}
