package models

import "time"

// ContributionStatus represents the approval state of a contribution.
type ContributionStatus string

// Approval states. PENDING is the only non-terminal state; APPROVED
// and REJECTED are terminal for the approve/reject operations.
const (
	ContributionStatusPending  ContributionStatus = "PENDING"
	ContributionStatusApproved ContributionStatus = "APPROVED"
	ContributionStatusRejected ContributionStatus = "REJECTED"
)

// Valid reports whether the status is one of the known approval states.
func (s ContributionStatus) Valid() bool {
	switch s {
	case ContributionStatusPending, ContributionStatusApproved, ContributionStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether approve/reject may no longer act on the record.
func (s ContributionStatus) Terminal() bool {
	return s == ContributionStatusApproved || s == ContributionStatusRejected
}

// Contribution is a volunteer's logged work, optionally tied to an
// event, awaiting coordinator review.
type Contribution struct {
	ID              string             `db:"id" json:"id"`
	UserID          string             `db:"user_id" json:"user_id"`
	EventID         *string            `db:"event_id" json:"event_id,omitempty"`
	DepartmentID    string             `db:"department_id" json:"department_id"`
	Date            time.Time          `db:"date" json:"date"`
	Hours           float64            `db:"hours" json:"hours"`
	Description     string             `db:"description" json:"description"`
	Status          ContributionStatus `db:"status" json:"status"`
	ReviewedBy      *string            `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time         `db:"reviewed_at" json:"reviewed_at,omitempty"`
	RejectionReason string             `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
}

// ContributionDetail enriches Contribution with display context.
type ContributionDetail struct {
	Contribution
	VolunteerName  string  `db:"volunteer_name" json:"volunteer_name"`
	EventTitle     *string `db:"event_title" json:"event_title,omitempty"`
	DepartmentName string  `db:"department_name" json:"department_name"`
	ReviewerName   *string `db:"reviewer_name" json:"reviewer_name,omitempty"`
}

// ContributionFilter provides filters for listing contributions.
type ContributionFilter struct {
	UserID       string
	Status       ContributionStatus
	DepartmentID string
	DateFrom     *time.Time
	DateTo       *time.Time
	Page         int
	PageSize     int
}

// StatusCounts groups contribution totals per approval state.
type StatusCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}
