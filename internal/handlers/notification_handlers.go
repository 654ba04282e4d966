package handlers

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gymcore/gym-api/internal/models"
)

//
// --- Notification Handlers ---
//

// AddNotification is an internal helper used by the handlers that write
// through database/sql directly (payments, user administration).
// NOTE: This function must be called from within a database transaction (tx).
func (h *Handlers) AddNotification(tx *sql.Tx, userID int64, message string, link string) error {
	var nullLink sql.NullString
	if link != "" {
		nullLink = sql.NullString{String: link, Valid: true}
	}

	query := `
		INSERT INTO notificaciones
		(usuario_id, mensaje, enlace, leida, created_at)
		VALUES (?, ?, ?, 0, ?)`

	if _, err := tx.Exec(query, userID, message, nullLink, h.Clock.Current()); err != nil {
		return fmt.Errorf("failed to add notification: %w", err)
	}
	return nil
}

// GetMyNotifications is the handler for GET /private/notificaciones
// It retrieves the caller's notifications, unread and newest first.
func (h *Handlers) GetMyNotifications(c *gin.Context) {
	// 1. --- Get User ID ---
	actor := actorOf(c)

	// 2. --- Query Database ---
	query := `
		SELECT id, usuario_id, mensaje, enlace, leida, created_at
		FROM notificaciones
		WHERE usuario_id = ?
		ORDER BY leida ASC, created_at DESC
		LIMIT 50`

	rows, err := h.DB.QueryContext(c.Request.Context(), query, actor.UserID)
	if err != nil {
		h.internalError(c, "Database query failed", err)
		return
	}
	defer rows.Close()

	// 3. --- Scan Rows into Slice ---
	notifications := []models.Notification{}
	for rows.Next() {
		var notif models.Notification
		if err := rows.Scan(
			&notif.ID,
			&notif.UserID,
			&notif.Message,
			&notif.Link,
			&notif.IsRead,
			&notif.CreatedAt,
		); err != nil {
			h.internalError(c, "Failed to scan notification row", err)
			return
		}
		notifications = append(notifications, notif)
	}
	if err = rows.Err(); err != nil {
		h.internalError(c, "Error iterating notification rows", err)
		return
	}

	// 4. --- Send Success Response ---
	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
	})
}

// CountUnreadNotifications is the handler for GET /private/notificaciones/no-leidas.
// Clients poll this cheap count instead of the full list.
func (h *Handlers) CountUnreadNotifications(c *gin.Context) {
	actor := actorOf(c)

	var unread int
	err := h.DB.QueryRowContext(c.Request.Context(),
		"SELECT COUNT(*) FROM notificaciones WHERE usuario_id = ? AND leida = 0", actor.UserID).Scan(&unread)
	if err != nil {
		h.internalError(c, "Failed to count notifications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"no_leidas": unread})
}

// MarkNotificationAsRead is the handler for PATCH /private/notificaciones/:id/leida
func (h *Handlers) MarkNotificationAsRead(c *gin.Context) {
	// 1. --- Get IDs ---
	actor := actorOf(c)
	notificationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	// 2. --- Execute Update ---
	// Matching on usuario_id as well keeps users away from each other's notifications.
	// Already-read rows are matched too, so marking twice is not a 404.
	query := `
		UPDATE notificaciones
		SET leida = 1
		WHERE id = ? AND usuario_id = ?`

	result, err := h.DB.ExecContext(c.Request.Context(), query, notificationID, actor.UserID)
	if err != nil {
		h.internalError(c, "Failed to update notification", err)
		return
	}

	// 3. --- Check Rows Affected ---
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		h.internalError(c, "Failed to check affected rows", err)
		return
	}
	if rowsAffected == 0 {
		var exists bool
		err := h.DB.QueryRowContext(c.Request.Context(),
			"SELECT EXISTS(SELECT 1 FROM notificaciones WHERE id = ? AND usuario_id = ?)",
			notificationID, actor.UserID).Scan(&exists)
		if err != nil {
			h.internalError(c, "Failed to check notification", err)
			return
		}
		if !exists {
			notFound(c, "Notification not found or you do not have permission to update it")
			return
		}
	}

	// 4. --- Send Success Response ---
	c.JSON(http.StatusOK, gin.H{
		"message": "Notification marked as read",
	})
}
