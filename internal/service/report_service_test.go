package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voluntrack/voluntrack-api/internal/dto"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
)

type mockReportRepo struct {
	rankings    []dto.VolunteerRanking
	departments []dto.DepartmentStats
	totalHours  float64
	pending     int
	total       int
	calls       int
}

func (m *mockReportRepo) TopVolunteers(ctx context.Context, from, to *time.Time, limit int) ([]dto.VolunteerRanking, error) {
	m.calls++
	return m.rankings, nil
}

func (m *mockReportRepo) DepartmentStats(ctx context.Context, from, to *time.Time) ([]dto.DepartmentStats, error) {
	return m.departments, nil
}

func (m *mockReportRepo) Totals(ctx context.Context, from, to *time.Time) (float64, int, int, error) {
	return m.totalHours, m.pending, m.total, nil
}

func TestReportServiceGet(t *testing.T) {
	repo := &mockReportRepo{
		rankings:   []dto.VolunteerRanking{{UserID: "vol-1", FullName: "Ada", ApprovedHours: 40}},
		totalHours: 120.5,
		pending:    3,
		total:      50,
	}
	svc := NewReportService(repo, nil, time.Minute, zap.NewNop())

	res, cached, err := svc.Get(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 120.5, res.TotalApprovedHours)
	assert.Equal(t, 3, res.PendingCount)
	require.Len(t, res.TopVolunteers, 1)
	assert.Equal(t, "Ada", res.TopVolunteers[0].FullName)
}

func TestReportServiceInvalidWindow(t *testing.T) {
	svc := NewReportService(&mockReportRepo{}, nil, time.Minute, zap.NewNop())

	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	_, _, err := svc.Get(context.Background(), &from, &to)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestReportServiceCachesPerWindow(t *testing.T) {
	repo := &mockReportRepo{totalHours: 10}
	cache := &mockKVCache{}
	svc := NewReportService(repo, cache, time.Minute, zap.NewNop())

	_, cached, err := svc.Get(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, repo.calls)

	_, cached, err = svc.Get(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, repo.calls)

	// a different window bypasses the cached entry
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, cached, err = svc.Get(context.Background(), &from, nil)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, repo.calls)
}
