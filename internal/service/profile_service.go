package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/voluntrack/voluntrack-api/internal/models"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
)

type profileRepository interface {
	FindDetailByUserID(ctx context.Context, userID string) (*models.ProfileDetail, error)
	UpdateOwn(ctx context.Context, userID string, departmentID *string, phone string) error
}

type profileDepartmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

// UpdateProfileRequest carries the fields a user may edit themselves.
// Role is deliberately absent; role changes go through the coordinator
// management endpoints.
type UpdateProfileRequest struct {
	DepartmentID *string `json:"department_id"`
	Phone        string  `json:"phone" validate:"max=32"`
}

// ProfileService handles self-service profile reads and updates.
type ProfileService struct {
	repo        profileRepository
	departments profileDepartmentRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewProfileService creates a new profile service instance.
func NewProfileService(repo profileRepository, departments profileDepartmentRepository, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, departments: departments, validator: validate, logger: logger}
}

// Get returns the caller's profile with account context.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.ProfileDetail, error) {
	profile, err := s.repo.FindDetailByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// Update modifies the caller's own profile.
func (s *ProfileService) Update(ctx context.Context, userID string, req UpdateProfileRequest) (*models.ProfileDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	if req.DepartmentID != nil && *req.DepartmentID != "" {
		if _, err := s.departments.FindByID(ctx, *req.DepartmentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "department does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department")
		}
	}

	if err := s.repo.UpdateOwn(ctx, userID, req.DepartmentID, req.Phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	return s.Get(ctx, userID)
}
