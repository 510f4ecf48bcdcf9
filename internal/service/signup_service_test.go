package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voluntrack/voluntrack-api/internal/models"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
)

type mockSignupRepo struct {
	createErr error
	created   *models.Signup
	cancelErr error
	cancelled bool
	byUser    []models.SignupDetail
}

func (m *mockSignupRepo) Create(ctx context.Context, userID, eventID string) (*models.Signup, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = &models.Signup{ID: "signup-1", UserID: userID, EventID: eventID, Status: models.SignupStatusConfirmed}
	return m.created, nil
}

func (m *mockSignupRepo) Cancel(ctx context.Context, userID, eventID string) error {
	if m.cancelErr != nil {
		return m.cancelErr
	}
	m.cancelled = true
	return nil
}

func (m *mockSignupRepo) ListByUser(ctx context.Context, userID string) ([]models.SignupDetail, error) {
	return m.byUser, nil
}

func futureEvent(status models.EventStatus) *models.Event {
	return &models.Event{
		ID:       "event-1",
		Status:   status,
		Date:     time.Now().Add(48 * time.Hour),
		Capacity: 10,
	}
}

func TestSignupServiceSignup(t *testing.T) {
	repo := &mockSignupRepo{}
	events := &mockEventReader{events: map[string]*models.Event{"event-1": futureEvent(models.EventStatusScheduled)}}
	cache := &mockCache{}
	svc := NewSignupService(repo, events, cache, zap.NewNop())

	signup, err := svc.Signup(context.Background(), "vol-1", "event-1")
	require.NoError(t, err)
	assert.Equal(t, models.SignupStatusConfirmed, signup.Status)
	assert.Contains(t, cache.deletedPatterns, "dashboard:*")
}

func TestSignupServiceSignupCancelledEvent(t *testing.T) {
	repo := &mockSignupRepo{}
	events := &mockEventReader{events: map[string]*models.Event{"event-1": futureEvent(models.EventStatusCancelled)}}
	svc := NewSignupService(repo, events, nil, zap.NewNop())

	_, err := svc.Signup(context.Background(), "vol-1", "event-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	assert.Nil(t, repo.created)
}

func TestSignupServiceSignupPastEvent(t *testing.T) {
	past := futureEvent(models.EventStatusScheduled)
	past.Date = time.Now().Add(-time.Hour)
	events := &mockEventReader{events: map[string]*models.Event{"event-1": past}}
	svc := NewSignupService(&mockSignupRepo{}, events, nil, zap.NewNop())

	_, err := svc.Signup(context.Background(), "vol-1", "event-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestSignupServiceSignupCapacityExceededPassesThrough(t *testing.T) {
	repo := &mockSignupRepo{createErr: appErrors.Clone(appErrors.ErrCapacityExceeded, "event has no remaining capacity")}
	events := &mockEventReader{events: map[string]*models.Event{"event-1": futureEvent(models.EventStatusScheduled)}}
	svc := NewSignupService(repo, events, nil, zap.NewNop())

	_, err := svc.Signup(context.Background(), "vol-1", "event-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
}

func TestSignupServiceSignupUnknownEvent(t *testing.T) {
	svc := NewSignupService(&mockSignupRepo{}, &mockEventReader{events: map[string]*models.Event{}}, nil, zap.NewNop())

	_, err := svc.Signup(context.Background(), "vol-1", "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSignupServiceCancel(t *testing.T) {
	repo := &mockSignupRepo{}
	svc := NewSignupService(repo, &mockEventReader{}, nil, zap.NewNop())

	err := svc.Cancel(context.Background(), "vol-1", "event-1")
	require.NoError(t, err)
	assert.True(t, repo.cancelled)
}

func TestSignupServiceCancelMissing(t *testing.T) {
	repo := &mockSignupRepo{cancelErr: sql.ErrNoRows}
	svc := NewSignupService(repo, &mockEventReader{}, nil, zap.NewNop())

	err := svc.Cancel(context.Background(), "vol-1", "event-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
