package models

import "time"

// Profile is the 1:1 extension of a user account. It carries the
// optional department assignment and contact details; the role itself
// lives on User so RBAC claims have a single source.
type Profile struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	DepartmentID *string   `db:"department_id" json:"department_id,omitempty"`
	Phone        string    `db:"phone" json:"phone"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ProfileDetail enriches Profile with user and department context.
type ProfileDetail struct {
	Profile
	Email          string   `db:"email" json:"email"`
	FullName       string   `db:"full_name" json:"full_name"`
	Role           UserRole `db:"role" json:"role"`
	DepartmentName *string  `db:"department_name" json:"department_name,omitempty"`
}
