package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gymcore/gym-api/internal/gym"
	"github.com/gymcore/gym-api/internal/models"
)

//
// --- Classes ---
//

type ClassRequest struct {
	Type        string `json:"tipo" binding:"required,max=100"`
	Description string `json:"descripcion"`
}

func (r ClassRequest) input() gym.ClassInput {
	return gym.ClassInput{Type: r.Type, Description: r.Description}
}

// CreateClass is the handler for POST /private/clases
func (h *Handlers) CreateClass(c *gin.Context) {
	var req ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	class, err := h.Gym.Catalog.CreateClass(c.Request.Context(), actorOf(c), req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Class created", "class": class})
}

// ListClasses is the handler for GET /private/clases
func (h *Handlers) ListClasses(c *gin.Context) {
	classes, err := h.Gym.Catalog.ListClasses(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": nonNil(classes)})
}

// GetClass is the handler for GET /private/clases/:id
func (h *Handlers) GetClass(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	class, err := h.Gym.Catalog.GetClass(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"class": class})
}

// UpdateClass is the handler for PUT /private/clases/:id
func (h *Handlers) UpdateClass(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	class, err := h.Gym.Catalog.UpdateClass(c.Request.Context(), actorOf(c), id, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Class updated", "class": class})
}

// DeleteClass is the handler for DELETE /private/clases/:id
func (h *Handlers) DeleteClass(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Gym.Catalog.DeleteClass(c.Request.Context(), actorOf(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Class deleted"})
}

//
// --- Sessions ---
//

type SessionRequest struct {
	ClassID   int64  `json:"clase_id" binding:"required,gt=0"`
	Date      string `json:"fecha" binding:"required,datetime=2006-01-02"`
	StartTime string `json:"hora_inicio" binding:"required,hhmm"`
	EndTime   string `json:"hora_fin" binding:"required,hhmm"`
	Capacity  int    `json:"capacidad_maxima" binding:"required,gt=0"`
}

func (r SessionRequest) input() gym.SessionInput {
	return gym.SessionInput{
		ClassID:   r.ClassID,
		Date:      r.Date,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Capacity:  r.Capacity,
	}
}

// CreateSession is the handler for POST /private/sesiones
func (h *Handlers) CreateSession(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	session, err := h.Gym.Catalog.CreateSession(c.Request.Context(), actorOf(c), req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Session created", "session": session})
}

// ListSessions is the handler for GET /private/sesiones?clase_id=&desde=&hasta=
// Without a range every session is listed.
func (h *Handlers) ListSessions(c *gin.Context) {
	var f gym.SessionFilter
	if v := c.Query("clase_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			badRequest(c, "Invalid clase_id")
			return
		}
		f.ClassID = id
	}
	bounds := []struct {
		key string
		dst **models.Date
	}{{"desde", &f.From}, {"hasta", &f.To}}
	for _, b := range bounds {
		key, dst := b.key, b.dst
		v := c.Query(key)
		if v == "" {
			continue
		}
		d, err := models.ParseDate(v)
		if err != nil {
			badRequest(c, key+": "+err.Error())
			return
		}
		*dst = &d
	}

	sessions, err := h.Gym.Catalog.ListSessions(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": nonNil(sessions)})
}

// GetSession is the handler for GET /private/sesiones/:id
func (h *Handlers) GetSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	session, err := h.Gym.Catalog.GetSession(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// UpdateSession is the handler for PUT /private/sesiones/:id
func (h *Handlers) UpdateSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	session, err := h.Gym.Catalog.UpdateSession(c.Request.Context(), actorOf(c), id, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session updated", "session": session})
}

// DeleteSession is the handler for DELETE /private/sesiones/:id.
// Its reservations are cancelled with it and their owners notified.
func (h *Handlers) DeleteSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cancelled, err := h.Gym.Catalog.DeleteSession(c.Request.Context(), actorOf(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted", "reservas_canceladas": cancelled})
}
