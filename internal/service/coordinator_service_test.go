package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voluntrack/voluntrack-api/internal/models"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
)

type mockCoordinatorUserRepo struct {
	users     map[string]*models.User
	roleSet   map[string]models.UserRole
	revoked   []string
	auditLogs []*models.AuditLog
}

func (m *mockCoordinatorUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.UserDetail, int, error) {
	return nil, 0, nil
}

func (m *mockCoordinatorUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockCoordinatorUserRepo) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	if m.roleSet == nil {
		m.roleSet = make(map[string]models.UserRole)
	}
	m.roleSet[id] = role
	return nil
}

func (m *mockCoordinatorUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

func (m *mockCoordinatorUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

type mockCoordinatorProfileRepo struct {
	profiles   map[string]*models.Profile
	updatedDep map[string]*string
}

func (m *mockCoordinatorProfileRepo) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (m *mockCoordinatorProfileRepo) UpdateOwn(ctx context.Context, userID string, departmentID *string, phone string) error {
	if m.updatedDep == nil {
		m.updatedDep = make(map[string]*string)
	}
	m.updatedDep[userID] = departmentID
	if p, ok := m.profiles[userID]; ok {
		p.DepartmentID = departmentID
	}
	return nil
}

type mockCoordinatorDeptRepo struct {
	coordinators    map[string]int
	scheduledEvents map[string]int
}

func (m *mockCoordinatorDeptRepo) CountCoordinators(ctx context.Context, departmentID string) (int, error) {
	return m.coordinators[departmentID], nil
}

func (m *mockCoordinatorDeptRepo) CountScheduledEvents(ctx context.Context, departmentID string) (int, error) {
	return m.scheduledEvents[departmentID], nil
}

func strPtr(s string) *string { return &s }

func TestCoordinatorPromoteAdoptsActorDepartment(t *testing.T) {
	users := &mockCoordinatorUserRepo{users: map[string]*models.User{
		"vol-1": {ID: "vol-1", Role: models.RoleVolunteer},
	}}
	profiles := &mockCoordinatorProfileRepo{profiles: map[string]*models.Profile{
		"vol-1":   {UserID: "vol-1", DepartmentID: nil},
		"admin-1": {UserID: "admin-1", DepartmentID: strPtr("dept-1")},
	}}
	svc := NewCoordinatorService(users, profiles, &mockCoordinatorDeptRepo{}, &mockCache{}, zap.NewNop())

	promoted, err := svc.Promote(context.Background(), models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleCoordinator, promoted.Role)
	assert.Equal(t, models.RoleCoordinator, users.roleSet["vol-1"])
	require.NotNil(t, profiles.updatedDep["vol-1"])
	assert.Equal(t, "dept-1", *profiles.updatedDep["vol-1"])
	assert.Equal(t, []string{"vol-1"}, users.revoked)
}

func TestCoordinatorPromoteKeepsExistingDepartment(t *testing.T) {
	users := &mockCoordinatorUserRepo{users: map[string]*models.User{
		"vol-1": {ID: "vol-1", Role: models.RoleVolunteer},
	}}
	profiles := &mockCoordinatorProfileRepo{profiles: map[string]*models.Profile{
		"vol-1":   {UserID: "vol-1", DepartmentID: strPtr("dept-2")},
		"admin-1": {UserID: "admin-1", DepartmentID: strPtr("dept-1")},
	}}
	svc := NewCoordinatorService(users, profiles, &mockCoordinatorDeptRepo{}, nil, zap.NewNop())

	_, err := svc.Promote(context.Background(), models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, "vol-1")
	require.NoError(t, err)
	assert.Nil(t, profiles.updatedDep["vol-1"])
	assert.Equal(t, "dept-2", *profiles.profiles["vol-1"].DepartmentID)
}

func TestCoordinatorPromoteAlreadyCoordinator(t *testing.T) {
	users := &mockCoordinatorUserRepo{users: map[string]*models.User{
		"coord-1": {ID: "coord-1", Role: models.RoleCoordinator},
	}}
	svc := NewCoordinatorService(users, &mockCoordinatorProfileRepo{}, &mockCoordinatorDeptRepo{}, nil, zap.NewNop())

	_, err := svc.Promote(context.Background(), models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, "coord-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestCoordinatorDemoteLastCoordinatorWithScheduledEvents(t *testing.T) {
	users := &mockCoordinatorUserRepo{users: map[string]*models.User{
		"coord-1": {ID: "coord-1", Role: models.RoleCoordinator},
	}}
	profiles := &mockCoordinatorProfileRepo{profiles: map[string]*models.Profile{
		"coord-1": {UserID: "coord-1", DepartmentID: strPtr("dept-1")},
	}}
	departments := &mockCoordinatorDeptRepo{
		coordinators:    map[string]int{"dept-1": 1},
		scheduledEvents: map[string]int{"dept-1": 3},
	}
	svc := NewCoordinatorService(users, profiles, departments, nil, zap.NewNop())

	_, err := svc.Demote(context.Background(), models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, "coord-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrIntegrityGuard.Code, appErr.Code)
	assert.Empty(t, users.roleSet)
}

func TestCoordinatorDemoteAllowedWhenAnotherCoordinatorRemains(t *testing.T) {
	users := &mockCoordinatorUserRepo{users: map[string]*models.User{
		"coord-1": {ID: "coord-1", Role: models.RoleCoordinator},
	}}
	profiles := &mockCoordinatorProfileRepo{profiles: map[string]*models.Profile{
		"coord-1": {UserID: "coord-1", DepartmentID: strPtr("dept-1")},
	}}
	departments := &mockCoordinatorDeptRepo{
		coordinators:    map[string]int{"dept-1": 2},
		scheduledEvents: map[string]int{"dept-1": 3},
	}
	svc := NewCoordinatorService(users, profiles, departments, nil, zap.NewNop())

	demoted, err := svc.Demote(context.Background(), models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, "coord-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleVolunteer, demoted.Role)
	assert.Equal(t, []string{"coord-1"}, users.revoked)
}

func TestCoordinatorSelfDemoteAllowed(t *testing.T) {
	users := &mockCoordinatorUserRepo{users: map[string]*models.User{
		"coord-1": {ID: "coord-1", Role: models.RoleCoordinator},
	}}
	profiles := &mockCoordinatorProfileRepo{profiles: map[string]*models.Profile{
		"coord-1": {UserID: "coord-1", DepartmentID: strPtr("dept-1")},
	}}
	departments := &mockCoordinatorDeptRepo{
		coordinators:    map[string]int{"dept-1": 1},
		scheduledEvents: map[string]int{"dept-1": 0},
	}
	svc := NewCoordinatorService(users, profiles, departments, nil, zap.NewNop())

	demoted, err := svc.Demote(context.Background(), models.JWTClaims{UserID: "coord-1", Role: models.RoleCoordinator}, "coord-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleVolunteer, demoted.Role)
}

func TestCoordinatorDemoteNonCoordinator(t *testing.T) {
	users := &mockCoordinatorUserRepo{users: map[string]*models.User{
		"vol-1": {ID: "vol-1", Role: models.RoleVolunteer},
	}}
	svc := NewCoordinatorService(users, &mockCoordinatorProfileRepo{}, &mockCoordinatorDeptRepo{}, nil, zap.NewNop())

	_, err := svc.Demote(context.Background(), models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, "vol-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}
