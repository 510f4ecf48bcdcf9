package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/voluntrack/voluntrack-api/internal/dto"
	"github.com/voluntrack/voluntrack-api/internal/models"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
)

const dashboardListLimit = 5

type dashboardEventRepository interface {
	ListUpcomingByCreator(ctx context.Context, creatorID string, limit int) ([]models.EventDetail, error)
	ListUpcomingByDepartment(ctx context.Context, departmentID string, limit int) ([]models.EventDetail, error)
	ListSignedByUser(ctx context.Context, userID string, limit int) ([]models.EventDetail, error)
	ListAvailableForUser(ctx context.Context, userID string, limit int) ([]models.EventDetail, error)
	CountByCreator(ctx context.Context, creatorID string) (int, error)
}

type dashboardContributionRepository interface {
	CountsByStatus(ctx context.Context, filter models.ContributionFilter) (*models.StatusCounts, error)
	SumApprovedHoursByUser(ctx context.Context, userID string) (float64, error)
	SumApprovedHoursByReviewer(ctx context.Context, reviewerID string) (float64, error)
	List(ctx context.Context, filter models.ContributionFilter) ([]models.ContributionDetail, int, error)
	ListRecentPending(ctx context.Context, departmentID string, limit int) ([]models.ContributionDetail, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardService assembles the role-specific landing page payload.
// Responses are cached per user with a short TTL; writers invalidate
// the dashboard:* pattern.
type DashboardService struct {
	events        dashboardEventRepository
	contributions dashboardContributionRepository
	profiles      contributionProfileReader
	cache         dashboardCache
	cacheTTL      time.Duration
	logger        *zap.Logger
}

// NewDashboardService creates a new dashboard service instance.
func NewDashboardService(
	events dashboardEventRepository,
	contributions dashboardContributionRepository,
	profiles contributionProfileReader,
	cache dashboardCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		events:        events,
		contributions: contributions,
		profiles:      profiles,
		cache:         cache,
		cacheTTL:      cacheTTL,
		logger:        logger,
	}
}

// Get returns the dashboard for the acting user. Admins receive the
// coordinator branch with a global scope.
func (s *DashboardService) Get(ctx context.Context, actor models.JWTClaims) (*dto.DashboardResponse, bool, error) {
	key := fmt.Sprintf("dashboard:%s", actor.UserID)
	if s.cache != nil {
		var cached dto.DashboardResponse
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, true, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	var response *dto.DashboardResponse
	var err error
	switch actor.Role {
	case models.RoleCoordinator, models.RoleAdmin:
		response, err = s.coordinatorDashboard(ctx, actor)
	default:
		response, err = s.volunteerDashboard(ctx, actor)
	}
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, response, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return response, false, nil
}

func (s *DashboardService) coordinatorDashboard(ctx context.Context, actor models.JWTClaims) (*dto.DashboardResponse, error) {
	var departmentID *string
	profile, err := s.profiles.FindByUserID(ctx, actor.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	if profile != nil {
		departmentID = profile.DepartmentID
	}

	scope := ""
	if departmentID != nil {
		scope = *departmentID
	}

	counts, err := s.contributions.CountsByStatus(ctx, models.ContributionFilter{DepartmentID: scope})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count contributions")
	}

	approvedHours, err := s.contributions.SumApprovedHoursByReviewer(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum approved hours")
	}

	eventsCreated, err := s.events.CountByCreator(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count events")
	}

	myUpcoming, err := s.events.ListUpcomingByCreator(ctx, actor.UserID, dashboardListLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming events")
	}

	var departmentUpcoming []models.EventDetail
	if departmentID != nil {
		departmentUpcoming, err = s.events.ListUpcomingByDepartment(ctx, *departmentID, dashboardListLimit)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list department events")
		}
	}

	recentPending, err := s.contributions.ListRecentPending(ctx, scope, dashboardListLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending contributions")
	}

	return &dto.DashboardResponse{
		Role: actor.Role,
		Coordinator: &dto.CoordinatorDashboardResponse{
			PendingCount:       counts.Pending,
			TotalApprovedHours: approvedHours,
			TotalEventsCreated: eventsCreated,
			MyUpcomingEvents:   myUpcoming,
			UpcomingEvents:     departmentUpcoming,
			RecentPending:      recentPending,
			DepartmentID:       departmentID,
		},
	}, nil
}

func (s *DashboardService) volunteerDashboard(ctx context.Context, actor models.JWTClaims) (*dto.DashboardResponse, error) {
	approvedHours, err := s.contributions.SumApprovedHoursByUser(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum approved hours")
	}

	pendingLogs, _, err := s.contributions.List(ctx, models.ContributionFilter{
		UserID:   actor.UserID,
		Status:   models.ContributionStatusPending,
		PageSize: dashboardListLimit,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending logs")
	}

	signed, err := s.events.ListSignedByUser(ctx, actor.UserID, dashboardListLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list signed events")
	}

	available, err := s.events.ListAvailableForUser(ctx, actor.UserID, dashboardListLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available events")
	}

	return &dto.DashboardResponse{
		Role: actor.Role,
		Volunteer: &dto.VolunteerDashboardResponse{
			MyApprovedHours: approvedHours,
			PendingLogs:     pendingLogs,
			SignedEvents:    signed,
			AvailableEvents: available,
		},
	}, nil
}
