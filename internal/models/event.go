package models

import "time"

// EventStatus represents the lifecycle of an event.
type EventStatus string

// Possible event statuses.
const (
	EventStatusScheduled EventStatus = "SCHEDULED"
	EventStatusCompleted EventStatus = "COMPLETED"
	EventStatusCancelled EventStatus = "CANCELLED"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusScheduled, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

// Event is a volunteer event owned by a department. ConfirmedCount is
// populated by the repository from current signup state; the derived
// capacity computations are pure over it.
type Event struct {
	ID             string      `db:"id" json:"id"`
	Title          string      `db:"title" json:"title"`
	Description    string      `db:"description" json:"description"`
	DepartmentID   *string     `db:"department_id" json:"department_id,omitempty"`
	Date           time.Time   `db:"date" json:"date"`
	Location       string      `db:"location" json:"location"`
	Capacity       int         `db:"capacity" json:"capacity"`
	Status         EventStatus `db:"status" json:"status"`
	CreatedBy      string      `db:"created_by" json:"created_by"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	ConfirmedCount int         `db:"confirmed_count" json:"confirmed_count"`
}

// RemainingCapacity returns the number of open spots, never negative.
func (e *Event) RemainingCapacity() int {
	remaining := e.Capacity - e.ConfirmedCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsFull reports whether the event has reached capacity.
func (e *Event) IsFull() bool {
	return e.ConfirmedCount >= e.Capacity
}

// EventDetail enriches Event with department and creator context.
type EventDetail struct {
	Event
	DepartmentName *string `db:"department_name" json:"department_name,omitempty"`
	CreatorName    string  `db:"creator_name" json:"creator_name"`
}

// EventFilter provides filters for listing events.
type EventFilter struct {
	Status    EventStatus
	CreatedBy string
	Search    string
	Page      int
	PageSize  int
}

// EventParticipant is a confirmed volunteer shown on the detail page.
type EventParticipant struct {
	UserID   string    `db:"user_id" json:"user_id"`
	FullName string    `db:"full_name" json:"full_name"`
	SignedAt time.Time `db:"signed_at" json:"signed_at"`
}

// EventHours is approved contribution hours grouped per volunteer,
// feeding the detail page chart.
type EventHours struct {
	FullName string  `db:"full_name" json:"full_name"`
	Hours    float64 `db:"hours" json:"hours"`
}
