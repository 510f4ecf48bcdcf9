package models

import "time"

// SignupStatus represents the lifecycle of a signup.
type SignupStatus string

// Possible signup statuses. Cancelled rows are retained for history.
const (
	SignupStatusConfirmed SignupStatus = "CONFIRMED"
	SignupStatusCancelled SignupStatus = "CANCELLED"
)

// Signup is a volunteer's reservation against an event's capacity.
// At most one confirmed signup exists per (user, event) pair.
type Signup struct {
	ID        string       `db:"id" json:"id"`
	UserID    string       `db:"user_id" json:"user_id"`
	EventID   string       `db:"event_id" json:"event_id"`
	Status    SignupStatus `db:"status" json:"status"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// SignupDetail enriches Signup with event context for listings.
type SignupDetail struct {
	Signup
	EventTitle    string      `db:"event_title" json:"event_title"`
	EventDate     time.Time   `db:"event_date" json:"event_date"`
	EventLocation string      `db:"event_location" json:"event_location"`
	EventStatus   EventStatus `db:"event_status" json:"event_status"`
}
