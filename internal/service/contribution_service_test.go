package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voluntrack/voluntrack-api/internal/models"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
)

type mockContributionRepo struct {
	byID       map[string]*models.Contribution
	details    map[string]*models.ContributionDetail
	created    *models.Contribution
	approved   []string
	rejected   []string
	corrected  map[string]models.ContributionStatus
	items      []models.ContributionDetail
	counts     models.StatusCounts
	lastFilter models.ContributionFilter
}

func (m *mockContributionRepo) Create(ctx context.Context, c *models.Contribution) error {
	c.ID = "contrib-new"
	c.Status = models.ContributionStatusPending
	m.created = c
	return nil
}

func (m *mockContributionRepo) List(ctx context.Context, filter models.ContributionFilter) ([]models.ContributionDetail, int, error) {
	m.lastFilter = filter
	return m.items, len(m.items), nil
}

func (m *mockContributionRepo) FindByID(ctx context.Context, id string) (*models.Contribution, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (m *mockContributionRepo) FindDetailByID(ctx context.Context, id string) (*models.ContributionDetail, error) {
	d, ok := m.details[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return d, nil
}

func (m *mockContributionRepo) Approve(ctx context.Context, id, reviewerID string) (bool, error) {
	c := m.byID[id]
	if c.Status != models.ContributionStatusPending {
		return false, nil
	}
	c.Status = models.ContributionStatusApproved
	m.approved = append(m.approved, id)
	return true, nil
}

func (m *mockContributionRepo) Reject(ctx context.Context, id, reviewerID, reason string) (bool, error) {
	c := m.byID[id]
	if c.Status != models.ContributionStatusPending {
		return false, nil
	}
	c.Status = models.ContributionStatusRejected
	m.rejected = append(m.rejected, id)
	return true, nil
}

func (m *mockContributionRepo) CorrectStatus(ctx context.Context, id string, status models.ContributionStatus, reviewerID string) error {
	if _, ok := m.byID[id]; !ok {
		return sql.ErrNoRows
	}
	if m.corrected == nil {
		m.corrected = make(map[string]models.ContributionStatus)
	}
	m.corrected[id] = status
	m.byID[id].Status = status
	return nil
}

func (m *mockContributionRepo) CountsByStatus(ctx context.Context, filter models.ContributionFilter) (*models.StatusCounts, error) {
	counts := m.counts
	return &counts, nil
}

type mockEventReader struct {
	events map[string]*models.Event
}

func (m *mockEventReader) FindByID(ctx context.Context, id string) (*models.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return e, nil
}

type mockSignupChecker struct {
	confirmed map[string]bool
}

func (m *mockSignupChecker) HasConfirmed(ctx context.Context, userID, eventID string) (bool, error) {
	return m.confirmed[userID+":"+eventID], nil
}

type mockProfileReader struct {
	profiles map[string]*models.Profile
}

func (m *mockProfileReader) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

type mockAuditWriter struct {
	logs []*models.AuditLog
}

func (m *mockAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

type mockCache struct {
	deletedPatterns []string
}

func (m *mockCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deletedPatterns = append(m.deletedPatterns, pattern)
	return nil
}

func newTestContributionService(repo *mockContributionRepo, events *mockEventReader, signups *mockSignupChecker) (*ContributionService, *mockAuditWriter) {
	audit := &mockAuditWriter{}
	svc := NewContributionService(
		repo, events, signups,
		&mockProfileReader{profiles: map[string]*models.Profile{}},
		audit, &mockCache{}, validator.New(), zap.NewNop(),
	)
	return svc, audit
}

func volunteerClaims(id string) models.JWTClaims {
	return models.JWTClaims{UserID: id, Role: models.RoleVolunteer}
}

func coordinatorClaims(id string) models.JWTClaims {
	return models.JWTClaims{UserID: id, Role: models.RoleCoordinator}
}

func TestContributionCreateRequiresSignupForVolunteers(t *testing.T) {
	eventID := "event-1"
	events := &mockEventReader{events: map[string]*models.Event{
		eventID: {ID: eventID, Status: models.EventStatusScheduled},
	}}
	repo := &mockContributionRepo{}
	svc, _ := newTestContributionService(repo, events, &mockSignupChecker{confirmed: map[string]bool{}})

	_, err := svc.Create(context.Background(), volunteerClaims("vol-1"), CreateContributionRequest{
		EventID:      &eventID,
		DepartmentID: "dept-1",
		Date:         time.Now(),
		Hours:        2,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPermissionDenied.Code, appErr.Code)
	assert.Nil(t, repo.created)
}

func TestContributionCreateAllowsSignedVolunteer(t *testing.T) {
	eventID := "event-1"
	events := &mockEventReader{events: map[string]*models.Event{
		eventID: {ID: eventID, Status: models.EventStatusScheduled},
	}}
	signups := &mockSignupChecker{confirmed: map[string]bool{"vol-1:event-1": true}}
	repo := &mockContributionRepo{}
	svc, _ := newTestContributionService(repo, events, signups)

	created, err := svc.Create(context.Background(), volunteerClaims("vol-1"), CreateContributionRequest{
		EventID:      &eventID,
		DepartmentID: "dept-1",
		Date:         time.Now(),
		Hours:        2.5,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ContributionStatusPending, created.Status)
	assert.Equal(t, "vol-1", created.UserID)
}

func TestContributionCreateCoordinatorSkipsParticipationCheck(t *testing.T) {
	eventID := "event-1"
	events := &mockEventReader{events: map[string]*models.Event{
		eventID: {ID: eventID, Status: models.EventStatusScheduled},
	}}
	repo := &mockContributionRepo{}
	svc, _ := newTestContributionService(repo, events, &mockSignupChecker{confirmed: map[string]bool{}})

	_, err := svc.Create(context.Background(), coordinatorClaims("coord-1"), CreateContributionRequest{
		EventID:      &eventID,
		DepartmentID: "dept-1",
		Date:         time.Now(),
		Hours:        1,
	})
	require.NoError(t, err)
}

func TestContributionCreateRejectsNonPositiveHours(t *testing.T) {
	svc, _ := newTestContributionService(&mockContributionRepo{}, &mockEventReader{}, &mockSignupChecker{})

	_, err := svc.Create(context.Background(), volunteerClaims("vol-1"), CreateContributionRequest{
		DepartmentID: "dept-1",
		Date:         time.Now(),
		Hours:        0,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestContributionApprove(t *testing.T) {
	repo := &mockContributionRepo{
		byID: map[string]*models.Contribution{
			"contrib-1": {ID: "contrib-1", UserID: "vol-1", Status: models.ContributionStatusPending},
		},
		details: map[string]*models.ContributionDetail{
			"contrib-1": {Contribution: models.Contribution{ID: "contrib-1", UserID: "vol-1", Status: models.ContributionStatusApproved}},
		},
	}
	svc, audit := newTestContributionService(repo, &mockEventReader{}, &mockSignupChecker{})

	detail, err := svc.Approve(context.Background(), coordinatorClaims("coord-1"), "contrib-1")
	require.NoError(t, err)
	assert.Equal(t, models.ContributionStatusApproved, detail.Status)
	assert.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionContributionReview, audit.logs[0].Action)
}

func TestContributionApproveTerminalFails(t *testing.T) {
	repo := &mockContributionRepo{
		byID: map[string]*models.Contribution{
			"contrib-1": {ID: "contrib-1", UserID: "vol-1", Status: models.ContributionStatusApproved},
		},
	}
	svc, _ := newTestContributionService(repo, &mockEventReader{}, &mockSignupChecker{})

	_, err := svc.Approve(context.Background(), coordinatorClaims("coord-1"), "contrib-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestContributionRejectOnApprovedFails(t *testing.T) {
	repo := &mockContributionRepo{
		byID: map[string]*models.Contribution{
			"contrib-1": {ID: "contrib-1", UserID: "vol-1", Status: models.ContributionStatusApproved},
		},
	}
	svc, _ := newTestContributionService(repo, &mockEventReader{}, &mockSignupChecker{})

	_, err := svc.Reject(context.Background(), coordinatorClaims("coord-1"), "contrib-1", RejectContributionRequest{Reason: "late"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestContributionSelfReviewDenied(t *testing.T) {
	repo := &mockContributionRepo{
		byID: map[string]*models.Contribution{
			"contrib-1": {ID: "contrib-1", UserID: "coord-1", Status: models.ContributionStatusPending},
		},
	}
	svc, _ := newTestContributionService(repo, &mockEventReader{}, &mockSignupChecker{})

	_, err := svc.Approve(context.Background(), coordinatorClaims("coord-1"), "contrib-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPermissionDenied.Code, appErr.Code)
}

func TestContributionCorrectStatusRevertsToPending(t *testing.T) {
	repo := &mockContributionRepo{
		byID: map[string]*models.Contribution{
			"contrib-1": {ID: "contrib-1", UserID: "vol-1", Status: models.ContributionStatusApproved},
		},
		details: map[string]*models.ContributionDetail{
			"contrib-1": {Contribution: models.Contribution{ID: "contrib-1", UserID: "vol-1", Status: models.ContributionStatusPending}},
		},
	}
	svc, _ := newTestContributionService(repo, &mockEventReader{}, &mockSignupChecker{})

	detail, err := svc.CorrectStatus(context.Background(), coordinatorClaims("coord-1"), "contrib-1", CorrectStatusRequest{Status: models.ContributionStatusPending})
	require.NoError(t, err)
	assert.Equal(t, models.ContributionStatusPending, detail.Status)
	assert.Equal(t, models.ContributionStatusPending, repo.corrected["contrib-1"])
}

func TestContributionListForReviewDefaultsToPending(t *testing.T) {
	repo := &mockContributionRepo{counts: models.StatusCounts{Pending: 2, Approved: 5, Rejected: 1}}
	svc, _ := newTestContributionService(repo, &mockEventReader{}, &mockSignupChecker{})

	res, err := svc.ListForReview(context.Background(), coordinatorClaims("coord-1"), "all", models.ContributionFilter{})
	require.NoError(t, err)
	assert.Equal(t, models.ContributionStatusPending, repo.lastFilter.Status)
	assert.Equal(t, 2, res.Counts.Pending)
}

func TestContributionListForReviewMineRequiresDepartment(t *testing.T) {
	repo := &mockContributionRepo{}
	svc, _ := newTestContributionService(repo, &mockEventReader{}, &mockSignupChecker{})

	_, err := svc.ListForReview(context.Background(), coordinatorClaims("coord-1"), "mine", models.ContributionFilter{})
	require.Error(t, err)
}
