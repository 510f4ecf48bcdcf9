package dto

import "time"

// VolunteerRanking is one row of the top-volunteers table, ordered by
// approved hours descending with account age as the stable tiebreak.
type VolunteerRanking struct {
	UserID        string    `json:"userId"`
	FullName      string    `json:"fullName"`
	ApprovedHours float64   `json:"approvedHours"`
	ApprovedCount int       `json:"approvedCount"`
	MemberSince   time.Time `json:"memberSince"`
}

// DepartmentStats aggregates participation per department.
type DepartmentStats struct {
	DepartmentID     string  `json:"departmentId"`
	DepartmentName   string  `json:"departmentName"`
	EventCount       int     `json:"eventCount"`
	ConfirmedSignups int     `json:"confirmedSignups"`
	ApprovedCount    int     `json:"approvedCount"`
	ApprovedHours    float64 `json:"approvedHours"`
	AverageHours     float64 `json:"averageHours"`
}

// ReportsResponse is the aggregate payload for the reports endpoint.
type ReportsResponse struct {
	TopVolunteers      []VolunteerRanking `json:"topVolunteers"`
	Departments        []DepartmentStats  `json:"departments"`
	TotalApprovedHours float64            `json:"totalApprovedHours"`
	PendingCount       int                `json:"pendingCount"`
	TotalContributions int                `json:"totalContributions"`
	DateFrom           *time.Time         `json:"dateFrom,omitempty"`
	DateTo             *time.Time         `json:"dateTo,omitempty"`
}

// ExportJobResponse is returned after enqueueing a log export.
type ExportJobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ExportStatusResponse exposes job progress and the signed download
// URL once generation completed.
type ExportStatusResponse struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	DownloadURL *string    `json:"downloadUrl,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	Error       *string    `json:"error,omitempty"`
}
