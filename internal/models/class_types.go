package models

import "time"

// Class is a category of activity ("Yoga", "Spinning") in the 'clases' table.
type Class struct {
	ID          int64     `json:"id" db:"id"`
	Type        string    `json:"tipo" db:"tipo"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"descripcion" db:"descripcion"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Session is one scheduled occurrence of a Class ('sesiones' table).
// Attendees is always derived from the live reservation count.
type Session struct {
	ID        int64     `json:"id" db:"id"`
	ClassID   int64     `json:"clase_id" db:"clase_id"`
	Date      Date      `json:"fecha" db:"fecha"`
	StartTime TimeOfDay `json:"hora_inicio" db:"hora_inicio"`
	EndTime   TimeOfDay `json:"hora_fin" db:"hora_fin"`
	Capacity  int       `json:"capacidad_maxima" db:"capacidad_maxima"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Attendees int    `json:"asistentes" db:"-"`
	Available int    `json:"disponibles" db:"-"`
	ClassType string `json:"clase_tipo,omitempty" db:"-"`
}

// Fill sets the derived counters from a live reservation count.
func (s *Session) Fill(reserved int) {
	s.Attendees = reserved
	s.Available = s.Capacity - reserved
	if s.Available < 0 {
		s.Available = 0
	}
}

// IsFull reports whether the session has no seats left.
func (s Session) IsFull() bool {
	return s.Attendees >= s.Capacity
}
