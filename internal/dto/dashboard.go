package dto

import "github.com/voluntrack/voluntrack-api/internal/models"

// CoordinatorDashboardResponse captures the coordinator landing page
// payload: review queue, hours totals and event overviews.
type CoordinatorDashboardResponse struct {
	PendingCount       int                         `json:"pendingCount"`
	TotalApprovedHours float64                     `json:"totalApprovedHours"`
	TotalEventsCreated int                         `json:"totalEventsCreated"`
	MyUpcomingEvents   []models.EventDetail        `json:"myUpcomingEvents"`
	UpcomingEvents     []models.EventDetail        `json:"upcomingEvents"`
	RecentPending      []models.ContributionDetail `json:"recentPending"`
	DepartmentID       *string                     `json:"departmentId,omitempty"`
}

// VolunteerDashboardResponse captures the volunteer landing page
// payload: personal stats plus signed and open events.
type VolunteerDashboardResponse struct {
	MyApprovedHours float64                     `json:"myApprovedHours"`
	PendingLogs     []models.ContributionDetail `json:"pendingLogs"`
	SignedEvents    []models.EventDetail        `json:"signedEvents"`
	AvailableEvents []models.EventDetail        `json:"availableEvents"`
}

// DashboardResponse wraps exactly one role-specific branch.
type DashboardResponse struct {
	Role        models.UserRole               `json:"role"`
	Coordinator *CoordinatorDashboardResponse `json:"coordinator,omitempty"`
	Volunteer   *VolunteerDashboardResponse   `json:"volunteer,omitempty"`
}
