package models

import "time"

// SessionType identifies the teaching slot within a day.
type SessionType string

const (
	SessionMorning   SessionType = "morning"
	SessionAfternoon SessionType = "afternoon"
	SessionEvening   SessionType = "evening"
)

// Valid returns true when the session is a supported value.
func (s SessionType) Valid() bool {
	switch s {
	case SessionMorning, SessionAfternoon, SessionEvening:
		return true
	default:
		return false
	}
}

// Weekday numbers days Monday-first: 0=Monday .. 6=Sunday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Valid reports whether the weekday is within range.
func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

// WeekdayOf converts a calendar date to the Monday-first convention.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// ScheduleSlot is one recurring weekly teaching slot for a student.
// Duplicate weekday+session pairs are legal and represent a double-booked,
// double-paid slot; nothing dedupes them.
type ScheduleSlot struct {
	ID        string      `db:"id" json:"id"`
	StudentID string      `db:"student_id" json:"student_id"`
	Weekday   Weekday     `db:"weekday" json:"weekday"`
	Session   SessionType `db:"session" json:"session"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}
