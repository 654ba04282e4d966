package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gymcore/gym-api/internal/gym"
	"github.com/gymcore/gym-api/internal/models"
)

// actorOf reads the caller set by AuthMiddleware.
func actorOf(c *gin.Context) gym.Actor {
	userID_raw, _ := c.Get("userID")
	role_raw, _ := c.Get("userRole")
	userID, _ := userID_raw.(int64)
	role, _ := role_raw.(models.Role)
	return gym.Actor{UserID: userID, Role: role}
}

// pathID parses a positive numeric path parameter. On failure it has
// already answered 400.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// dateSpan reads ?desde=YYYY-MM-DD&hasta=YYYY-MM-DD, both inclusive and
// defaulting to today in the gym's timezone. On failure it has already answered 400.
func (h *Handlers) dateSpan(c *gin.Context) (models.Date, models.Date, bool) {
	today := models.DateOf(h.Clock.Current(), h.Clock.Zone())
	from, to := today, today

	if v := c.Query("desde"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			badRequest(c, "desde: "+err.Error())
			return models.Date{}, models.Date{}, false
		}
		from = d
	}
	if v := c.Query("hasta"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			badRequest(c, "hasta: "+err.Error())
			return models.Date{}, models.Date{}, false
		}
		to = d
	}
	if to.Before(from.Time) {
		badRequest(c, "hasta must not be earlier than desde")
		return models.Date{}, models.Date{}, false
	}
	return from, to, true
}

// dateRange is dateSpan as the half-open instant range [from, to).
func (h *Handlers) dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	from, to, ok := h.dateSpan(c)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	loc := h.Clock.Zone()
	midnight := models.MustTimeOfDay("00:00")
	return from.At(midnight, loc), to.At(midnight, loc).AddDate(0, 0, 1), true
}

// targetUser reads ?usuario_id. Absent means the caller; 0 means everyone.
func targetUser(c *gin.Context, actor gym.Actor) (int64, bool) {
	v, ok := c.GetQuery("usuario_id")
	if !ok || v == "" {
		return actor.UserID, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		badRequest(c, "Invalid usuario_id")
		return 0, false
	}
	return id, true
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
