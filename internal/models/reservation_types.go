package models

import "time"

const (
	ReservationPending   = "pendiente"
	ReservationConfirmed = "confirmada"
)

// Reservation links one user to one session ('reservas' table).
// Cancelling deletes the row.
type Reservation struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"usuario_id" db:"usuario_id"`
	SessionID int64     `json:"sesion_id" db:"sesion_id"`
	Status    string    `json:"estado" db:"estado"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Populated by the listing queries only.
	UserName  string     `json:"usuario_nombre,omitempty" db:"-"`
	ClassType string     `json:"clase_tipo,omitempty" db:"-"`
	Date      *Date      `json:"fecha,omitempty" db:"-"`
	StartTime *TimeOfDay `json:"hora_inicio,omitempty" db:"-"`
}
