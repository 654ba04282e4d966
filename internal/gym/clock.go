package gym

import (
	"time"

	"github.com/gymcore/gym-api/internal/models"
)

// Clock is the server-side source of time. Client-supplied timestamps are never used.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// NewClock returns a wall clock in loc (UTC when loc is nil).
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Now: time.Now, Location: loc}
}

// Current is the server time in the gym's timezone.
func (c Clock) Current() time.Time {
	return c.now()
}

// Zone is the gym's timezone.
func (c Clock) Zone() *time.Location {
	return c.loc()
}

func (c Clock) now() time.Time {
	if c.Now == nil {
		return time.Now().In(c.loc())
	}
	return c.Now().In(c.loc())
}

func (c Clock) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// dayBounds returns [start of day, start of next day) around t.
func (c Clock) dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(c.loc())
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc())
	return start, start.AddDate(0, 0, 1)
}

// monthBounds returns [first instant of the month, first instant of the next month) around t.
func (c Clock) monthBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(c.loc())
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, c.loc())
	return start, start.AddDate(0, 1, 0)
}

// StillOpen reports whether an entry made at entry can be closed at t: on
// the same gym day, or across midnight within MaxShiftLength.
func (c Clock) StillOpen(entry, t time.Time) bool {
	start, _ := c.dayBounds(t)
	return !entry.Before(start) || t.Sub(entry) <= MaxShiftLength
}

// startOf is the instant a session begins in the gym's timezone.
func (c Clock) startOf(s models.Session) time.Time {
	return s.Date.At(s.StartTime, c.loc())
}
