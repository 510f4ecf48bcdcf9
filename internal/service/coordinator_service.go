package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/voluntrack/voluntrack-api/internal/models"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
)

type coordinatorUserRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.UserDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type coordinatorProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	UpdateOwn(ctx context.Context, userID string, departmentID *string, phone string) error
}

type coordinatorDepartmentRepository interface {
	CountCoordinators(ctx context.Context, departmentID string) (int, error)
	CountScheduledEvents(ctx context.Context, departmentID string) (int, error)
}

// CoordinatorService manages promotion and demotion of coordinators.
type CoordinatorService struct {
	users       coordinatorUserRepository
	profiles    coordinatorProfileRepository
	departments coordinatorDepartmentRepository
	cache       cacheInvalidator
	logger      *zap.Logger
}

// NewCoordinatorService creates a new coordinator service instance.
func NewCoordinatorService(
	users coordinatorUserRepository,
	profiles coordinatorProfileRepository,
	departments coordinatorDepartmentRepository,
	cache cacheInvalidator,
	logger *zap.Logger,
) *CoordinatorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoordinatorService{
		users:       users,
		profiles:    profiles,
		departments: departments,
		cache:       cache,
		logger:      logger,
	}
}

// ListUsers returns users for the coordinator management page.
func (s *CoordinatorService) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.UserDetail, *models.Pagination, error) {
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Promote raises the target to COORDINATOR. A target with no department
// assignment adopts the actor's department so they land with a usable
// review scope.
func (s *CoordinatorService) Promote(ctx context.Context, actor models.JWTClaims, targetID string) (*models.User, error) {
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if target.Role == models.RoleCoordinator {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "user is already a coordinator")
	}
	if target.Role == models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "admin accounts cannot be reassigned here")
	}

	targetProfile, err := s.profiles.FindByUserID(ctx, targetID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target profile")
	}

	if targetProfile != nil && targetProfile.DepartmentID == nil {
		actorProfile, err := s.profiles.FindByUserID(ctx, actor.UserID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load actor profile")
		}
		if actorProfile != nil && actorProfile.DepartmentID != nil {
			if err := s.profiles.UpdateOwn(ctx, targetID, actorProfile.DepartmentID, targetProfile.Phone); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign department")
			}
		}
	}

	if err := s.users.UpdateRole(ctx, targetID, models.RoleCoordinator); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to promote user")
	}
	target.Role = models.RoleCoordinator
	s.revokeSessions(ctx, targetID)

	s.recordRoleAudit(ctx, actor, targetID, "COORDINATOR")
	s.invalidate(ctx)
	return target, nil
}

// Demote lowers the target to VOLUNTEER. Refused only when the target
// is the last coordinator of a department that still has scheduled
// events; there is no blanket self-demotion ban.
func (s *CoordinatorService) Demote(ctx context.Context, actor models.JWTClaims, targetID string) (*models.User, error) {
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if target.Role != models.RoleCoordinator {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "user is not a coordinator")
	}

	targetProfile, err := s.profiles.FindByUserID(ctx, targetID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target profile")
	}

	if targetProfile != nil && targetProfile.DepartmentID != nil {
		coordinators, err := s.departments.CountCoordinators(ctx, *targetProfile.DepartmentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count coordinators")
		}
		if coordinators <= 1 {
			scheduled, err := s.departments.CountScheduledEvents(ctx, *targetProfile.DepartmentID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count scheduled events")
			}
			if scheduled > 0 {
				return nil, appErrors.Clone(appErrors.ErrIntegrityGuard, "department still has scheduled events and no other coordinator")
			}
		}
	}

	if err := s.users.UpdateRole(ctx, targetID, models.RoleVolunteer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to demote user")
	}
	target.Role = models.RoleVolunteer
	s.revokeSessions(ctx, targetID)

	s.recordRoleAudit(ctx, actor, targetID, "VOLUNTEER")
	s.invalidate(ctx)
	return target, nil
}

// revokeSessions forces the target to log in again. Access tokens carry
// the role, so old sessions must not be able to refresh a stale one.
func (s *CoordinatorService) revokeSessions(ctx context.Context, userID string) {
	if err := s.users.RevokeUserRefreshTokens(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke refresh tokens after role change",
			zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *CoordinatorService) recordRoleAudit(ctx context.Context, actor models.JWTClaims, targetID, newRole string) {
	payload, _ := json.Marshal(map[string]string{"role": newRole})
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionCoordinatorChange,
		Resource:   "user",
		ResourceID: &targetID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record role change audit log", zap.Error(err))
	}
}

func (s *CoordinatorService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
