package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/gymcore/gym-api/internal/gym"
)

// statusOf maps a domain error kind onto its HTTP status.
func statusOf(kind gym.Kind) int {
	switch kind {
	case gym.KindValidation:
		return http.StatusBadRequest
	case gym.KindForbidden:
		return http.StatusForbidden
	case gym.KindNotFound:
		return http.StatusNotFound
	case gym.KindCapacityExceeded, gym.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error", "code"} for any error a service returned.
// Unavailable errors are logged with their cause; the caller gets a generic message.
func (h *Handlers) respondError(c *gin.Context, err error) {
	kind := gym.KindOf(err)
	if kind == gym.KindUnavailable {
		h.internalError(c, "The service is temporarily unavailable", err)
		return
	}
	c.JSON(statusOf(kind), gin.H{"error": messageOf(err), "code": kind.String()})
}

// messageOf prefers the caller-safe message of a domain error.
func messageOf(err error) string {
	var gerr *gym.Error
	if errors.As(err, &gerr) {
		return gerr.Message
	}
	return err.Error()
}

// internalError logs err and answers 500 with msg only.
func (h *Handlers) internalError(c *gin.Context, msg string, err error) {
	_ = c.Error(err)
	h.log().Error(msg,
		slog.String("error", err.Error()),
		slog.String("route", c.FullPath()),
		slog.String("request_id", c.GetString("requestID")))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg, "code": gym.KindUnavailable.String()})
}

func (h *Handlers) log() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": gym.KindValidation.String()})
}

func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, gin.H{"error": msg, "code": gym.KindNotFound.String()})
}

func conflict(c *gin.Context, msg string) {
	c.JSON(http.StatusConflict, gin.H{"error": msg, "code": gym.KindConflict.String()})
}

// isDuplicateKey reports a MySQL unique-key violation (ER_DUP_ENTRY).
func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}
