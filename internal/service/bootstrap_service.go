package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/voluntrack/voluntrack-api/internal/models"
)

type bootstrapUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type bootstrapProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	UpdateOwn(ctx context.Context, userID string, departmentID *string, phone string) error
}

type bootstrapDepartmentRepository interface {
	FindByName(ctx context.Context, name string) (*models.Department, error)
	Create(ctx context.Context, department *models.Department) error
}

// BootstrapConfig seeds a fresh installation. The admin step only runs
// when both AdminEmail and AdminPassword are configured.
type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
	Departments   []string
}

// BootstrapService ensures default departments and an initial admin
// account exist. Registration only ever yields volunteers and every
// privileged surface is admin-gated, so a fresh database needs this
// step to become administrable. Safe to run on every startup.
type BootstrapService struct {
	users       bootstrapUserRepository
	profiles    bootstrapProfileRepository
	departments bootstrapDepartmentRepository
	config      BootstrapConfig
	logger      *zap.Logger
}

// NewBootstrapService creates a new bootstrap service instance.
func NewBootstrapService(
	users bootstrapUserRepository,
	profiles bootstrapProfileRepository,
	departments bootstrapDepartmentRepository,
	config BootstrapConfig,
	logger *zap.Logger,
) *BootstrapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BootstrapService{
		users:       users,
		profiles:    profiles,
		departments: departments,
		config:      config,
		logger:      logger,
	}
}

// Run ensures the configured departments and admin account exist.
// Existing rows are left untouched.
func (s *BootstrapService) Run(ctx context.Context) error {
	firstDepartmentID, err := s.ensureDepartments(ctx)
	if err != nil {
		return err
	}
	return s.ensureAdmin(ctx, firstDepartmentID)
}

func (s *BootstrapService) ensureDepartments(ctx context.Context) (*string, error) {
	var firstID *string
	for _, name := range s.config.Departments {
		existing, err := s.departments.FindByName(ctx, name)
		if err == nil {
			if firstID == nil {
				firstID = &existing.ID
			}
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lookup department %q: %w", name, err)
		}

		department := &models.Department{Name: name}
		if err := s.departments.Create(ctx, department); err != nil {
			return nil, fmt.Errorf("create department %q: %w", name, err)
		}
		if firstID == nil {
			firstID = &department.ID
		}
		s.logger.Info("bootstrap created department", zap.String("name", name))
	}
	return firstID, nil
}

func (s *BootstrapService) ensureAdmin(ctx context.Context, departmentID *string) error {
	if s.config.AdminEmail == "" || s.config.AdminPassword == "" {
		s.logger.Debug("bootstrap admin not configured, skipping")
		return nil
	}

	if _, err := s.users.FindByEmail(ctx, s.config.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup bootstrap admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.config.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash bootstrap admin password: %w", err)
	}

	fullName := s.config.AdminName
	if fullName == "" {
		fullName = "Site Admin"
	}
	user := &models.User{
		Email:        s.config.AdminEmail,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	if departmentID != nil {
		profile, err := s.profiles.FindByUserID(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("load bootstrap admin profile: %w", err)
		}
		if profile.DepartmentID == nil {
			if err := s.profiles.UpdateOwn(ctx, user.ID, departmentID, profile.Phone); err != nil {
				return fmt.Errorf("assign bootstrap admin department: %w", err)
			}
		}
	}

	s.logger.Info("bootstrap created admin account", zap.String("email", s.config.AdminEmail))
	return nil
}
