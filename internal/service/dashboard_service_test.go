package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voluntrack/voluntrack-api/internal/models"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
)

type mockDashboardEventRepo struct {
	upcomingByCreator    []models.EventDetail
	upcomingByDepartment []models.EventDetail
	signed               []models.EventDetail
	available            []models.EventDetail
	createdCount         int
}

func (m *mockDashboardEventRepo) ListUpcomingByCreator(ctx context.Context, creatorID string, limit int) ([]models.EventDetail, error) {
	return m.upcomingByCreator, nil
}

func (m *mockDashboardEventRepo) ListUpcomingByDepartment(ctx context.Context, departmentID string, limit int) ([]models.EventDetail, error) {
	return m.upcomingByDepartment, nil
}

func (m *mockDashboardEventRepo) ListSignedByUser(ctx context.Context, userID string, limit int) ([]models.EventDetail, error) {
	return m.signed, nil
}

func (m *mockDashboardEventRepo) ListAvailableForUser(ctx context.Context, userID string, limit int) ([]models.EventDetail, error) {
	return m.available, nil
}

func (m *mockDashboardEventRepo) CountByCreator(ctx context.Context, creatorID string) (int, error) {
	return m.createdCount, nil
}

type mockDashboardContributionRepo struct {
	counts        models.StatusCounts
	hoursByUser   float64
	hoursReviewed float64
	pending       []models.ContributionDetail
}

func (m *mockDashboardContributionRepo) CountsByStatus(ctx context.Context, filter models.ContributionFilter) (*models.StatusCounts, error) {
	counts := m.counts
	return &counts, nil
}

func (m *mockDashboardContributionRepo) SumApprovedHoursByUser(ctx context.Context, userID string) (float64, error) {
	return m.hoursByUser, nil
}

func (m *mockDashboardContributionRepo) SumApprovedHoursByReviewer(ctx context.Context, reviewerID string) (float64, error) {
	return m.hoursReviewed, nil
}

func (m *mockDashboardContributionRepo) List(ctx context.Context, filter models.ContributionFilter) ([]models.ContributionDetail, int, error) {
	return m.pending, len(m.pending), nil
}

func (m *mockDashboardContributionRepo) ListRecentPending(ctx context.Context, departmentID string, limit int) ([]models.ContributionDetail, error) {
	return m.pending, nil
}

type mockKVCache struct {
	store map[string][]byte
	sets  int
}

func (m *mockKVCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockKVCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	m.store[key] = raw
	m.sets++
	return nil
}

func TestDashboardVolunteerBranch(t *testing.T) {
	events := &mockDashboardEventRepo{
		signed:    []models.EventDetail{{Event: models.Event{ID: "event-1"}}},
		available: []models.EventDetail{{Event: models.Event{ID: "event-2"}}},
	}
	contributions := &mockDashboardContributionRepo{hoursByUser: 12.5}
	svc := NewDashboardService(events, contributions, &mockProfileReader{profiles: map[string]*models.Profile{}}, nil, time.Minute, zap.NewNop())

	res, cached, err := svc.Get(context.Background(), models.JWTClaims{UserID: "vol-1", Role: models.RoleVolunteer})
	require.NoError(t, err)
	assert.False(t, cached)
	require.NotNil(t, res.Volunteer)
	assert.Nil(t, res.Coordinator)
	assert.Equal(t, 12.5, res.Volunteer.MyApprovedHours)
	assert.Len(t, res.Volunteer.SignedEvents, 1)
	assert.Len(t, res.Volunteer.AvailableEvents, 1)
}

func TestDashboardCoordinatorBranch(t *testing.T) {
	dept := "dept-1"
	events := &mockDashboardEventRepo{
		upcomingByCreator:    []models.EventDetail{{Event: models.Event{ID: "event-1"}}},
		upcomingByDepartment: []models.EventDetail{{Event: models.Event{ID: "event-2"}}},
		createdCount:         7,
	}
	contributions := &mockDashboardContributionRepo{
		counts:        models.StatusCounts{Pending: 4},
		hoursReviewed: 31.0,
	}
	profiles := &mockProfileReader{profiles: map[string]*models.Profile{
		"coord-1": {UserID: "coord-1", DepartmentID: &dept},
	}}
	svc := NewDashboardService(events, contributions, profiles, nil, time.Minute, zap.NewNop())

	res, _, err := svc.Get(context.Background(), models.JWTClaims{UserID: "coord-1", Role: models.RoleCoordinator})
	require.NoError(t, err)
	require.NotNil(t, res.Coordinator)
	assert.Nil(t, res.Volunteer)
	assert.Equal(t, 4, res.Coordinator.PendingCount)
	assert.Equal(t, 31.0, res.Coordinator.TotalApprovedHours)
	assert.Equal(t, 7, res.Coordinator.TotalEventsCreated)
	require.NotNil(t, res.Coordinator.DepartmentID)
	assert.Equal(t, "dept-1", *res.Coordinator.DepartmentID)
}

func TestDashboardServedFromCache(t *testing.T) {
	events := &mockDashboardEventRepo{}
	contributions := &mockDashboardContributionRepo{hoursByUser: 5}
	cache := &mockKVCache{}
	svc := NewDashboardService(events, contributions, &mockProfileReader{profiles: map[string]*models.Profile{}}, cache, time.Minute, zap.NewNop())

	claims := models.JWTClaims{UserID: "vol-1", Role: models.RoleVolunteer}
	_, cached, err := svc.Get(context.Background(), claims)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, cache.sets)

	res, cached, err := svc.Get(context.Background(), claims)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 5.0, res.Volunteer.MyApprovedHours)
	assert.Equal(t, 1, cache.sets)
}
