package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/voluntrack/voluntrack-api/internal/models"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
)

type signupRepository interface {
	Create(ctx context.Context, userID, eventID string) (*models.Signup, error)
	Cancel(ctx context.Context, userID, eventID string) error
	ListByUser(ctx context.Context, userID string) ([]models.SignupDetail, error)
}

type signupEventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

// SignupService handles volunteers reserving and releasing event spots.
// The capacity check itself lives in the repository transaction; this
// layer adds the schedule checks and error translation.
type SignupService struct {
	repo   signupRepository
	events signupEventRepository
	cache  cacheInvalidator
	logger *zap.Logger
}

// NewSignupService creates a new signup service instance.
func NewSignupService(repo signupRepository, events signupEventRepository, cache cacheInvalidator, logger *zap.Logger) *SignupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignupService{repo: repo, events: events, cache: cache, logger: logger}
}

// Signup reserves a spot on a scheduled, not-yet-started event.
func (s *SignupService) Signup(ctx context.Context, userID, eventID string) (*models.Signup, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	if event.Status != models.EventStatusScheduled {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "event is not open for signups")
	}
	if event.Date.Before(time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "event has already started")
	}

	signup, err := s.repo.Create(ctx, userID, eventID)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign up")
	}

	s.invalidate(ctx)
	return signup, nil
}

// Cancel releases the caller's confirmed spot. The signup row is kept
// as CANCELLED; a fresh signup later creates a new row.
func (s *SignupService) Cancel(ctx context.Context, userID, eventID string) error {
	if err := s.repo.Cancel(ctx, userID, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no confirmed signup for this event")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel signup")
	}
	s.invalidate(ctx)
	return nil
}

// ListMine returns the caller's signups with event context.
func (s *SignupService) ListMine(ctx context.Context, userID string) ([]models.SignupDetail, error) {
	signups, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list signups")
	}
	return signups, nil
}

func (s *SignupService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
