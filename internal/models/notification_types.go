package models

import "time"

// Notification is the model for the 'notificaciones' table
type Notification struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"usuario_id" db:"usuario_id"`
	Message   string    `json:"mensaje" db:"mensaje"`
	Link      *string   `json:"enlace,omitempty" db:"enlace"`
	IsRead    bool      `json:"leida" db:"leida"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
