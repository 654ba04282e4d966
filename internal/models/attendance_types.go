package models

import "time"

const (
	ShiftEntry = "entrada"
	ShiftExit  = "salida"
)

// Shift is one staff check-in or check-out ('turnos' table).
type Shift struct {
	ID     int64     `json:"id" db:"id"`
	UserID int64     `json:"usuario_id" db:"usuario_id"`
	Type   string    `json:"tipo" db:"tipo"`
	At     time.Time `json:"fecha_hora" db:"fecha_hora"`

	UserName string `json:"usuario_nombre,omitempty" db:"-"`
}

// Access is a client's membership-gated entry to the gym ('accesos' table).
type Access struct {
	ID     int64     `json:"id" db:"id"`
	UserID int64     `json:"usuario_id" db:"usuario_id"`
	At     time.Time `json:"fecha_hora" db:"fecha_hora"`
}

// Coordinates is a device-reported position, in decimal degrees.
type Coordinates struct {
	Latitude  *float64 `json:"latitud"`
	Longitude *float64 `json:"longitud"`
}

// Present is true only when both components were supplied.
func (c Coordinates) Present() bool {
	return c.Latitude != nil && c.Longitude != nil
}
