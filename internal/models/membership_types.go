package models

import "time"

// Membership defines the model for the 'membresias' table.
// Whether a user's membership is active is never stored here; see gym.MembershipGate.
type Membership struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"nombre" db:"nombre"`
	Description  string    `json:"descripcion" db:"descripcion"`
	Price        float64   `json:"precio" db:"precio"`
	DurationDays int       `json:"duracion_dias" db:"duracion_dias"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Payment defines the model for the 'pagos' table (one billing cycle).
type Payment struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"usuario_id" db:"usuario_id"`
	Amount    float64   `json:"monto" db:"monto"`
	PaidAt    time.Time `json:"fecha" db:"fecha"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	UserName string `json:"usuario_nombre,omitempty" db:"-"`
}

// MembershipStatus is what the membership gate reports back to a client.
type MembershipStatus struct {
	UserID         int64  `json:"usuario_id"`
	MembershipID   *int64 `json:"membresia_id,omitempty"`
	MembershipName string `json:"membresia,omitempty"`
	Active         bool   `json:"activa"`
}
