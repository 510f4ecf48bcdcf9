package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/voluntrack/voluntrack-api/internal/models"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
)

type contributionRepository interface {
	Create(ctx context.Context, contribution *models.Contribution) error
	List(ctx context.Context, filter models.ContributionFilter) ([]models.ContributionDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Contribution, error)
	FindDetailByID(ctx context.Context, id string) (*models.ContributionDetail, error)
	Approve(ctx context.Context, id, reviewerID string) (bool, error)
	Reject(ctx context.Context, id, reviewerID, reason string) (bool, error)
	CorrectStatus(ctx context.Context, id string, status models.ContributionStatus, reviewerID string) error
	CountsByStatus(ctx context.Context, filter models.ContributionFilter) (*models.StatusCounts, error)
}

type contributionEventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

type contributionSignupChecker interface {
	HasConfirmed(ctx context.Context, userID, eventID string) (bool, error)
}

type contributionProfileReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
}

// CreateContributionRequest logs volunteer work awaiting review.
type CreateContributionRequest struct {
	EventID      *string   `json:"event_id"`
	DepartmentID string    `json:"department_id" validate:"required"`
	Date         time.Time `json:"date" validate:"required"`
	Hours        float64   `json:"hours" validate:"required,gt=0"`
	Description  string    `json:"description" validate:"max=5000"`
}

// RejectContributionRequest carries the optional rejection reason.
type RejectContributionRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// CorrectStatusRequest force-moves a contribution between review states.
type CorrectStatusRequest struct {
	Status models.ContributionStatus `json:"status" validate:"required"`
}

// ApprovalListResponse bundles the review queue with per-status counts.
type ApprovalListResponse struct {
	Items      []models.ContributionDetail `json:"items"`
	Counts     models.StatusCounts         `json:"counts"`
	Pagination models.Pagination           `json:"pagination"`
}

// ContributionService orchestrates logging and reviewing contributions.
type ContributionService struct {
	repo      contributionRepository
	events    contributionEventRepository
	signups   contributionSignupChecker
	profiles  contributionProfileReader
	audit     auditWriter
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContributionService creates a new contribution service instance.
func NewContributionService(
	repo contributionRepository,
	events contributionEventRepository,
	signups contributionSignupChecker,
	profiles contributionProfileReader,
	audit auditWriter,
	cache cacheInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *ContributionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContributionService{
		repo:      repo,
		events:    events,
		signups:   signups,
		profiles:  profiles,
		audit:     audit,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// Create logs a PENDING contribution for the acting user. When an event
// is referenced it must still be scheduled, and non-coordinators must
// hold a confirmed signup for it.
func (s *ContributionService) Create(ctx context.Context, actor models.JWTClaims, req CreateContributionRequest) (*models.Contribution, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contribution payload")
	}

	if req.EventID != nil && *req.EventID != "" {
		event, err := s.events.FindByID(ctx, *req.EventID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "event does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
		}
		if event.Status != models.EventStatusScheduled {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "event is no longer accepting contribution logs")
		}

		if actor.Role == models.RoleVolunteer {
			signed, err := s.signups.HasConfirmed(ctx, actor.UserID, *req.EventID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check signup")
			}
			if !signed {
				return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "a confirmed signup is required to log hours for this event")
			}
		}
	}

	contribution := &models.Contribution{
		UserID:       actor.UserID,
		EventID:      req.EventID,
		DepartmentID: req.DepartmentID,
		Date:         req.Date,
		Hours:        req.Hours,
		Description:  req.Description,
	}
	if err := s.repo.Create(ctx, contribution); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create contribution")
	}

	s.invalidate(ctx)
	return contribution, nil
}

// ListMine returns the caller's own contributions.
func (s *ContributionService) ListMine(ctx context.Context, userID string, filter models.ContributionFilter) ([]models.ContributionDetail, *models.Pagination, error) {
	filter.UserID = userID
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contributions")
	}
	return items, paginationFor(filter.Page, filter.PageSize, total), nil
}

// ListForReview returns the review queue for coordinators, scoped by
// department. Passing "mine" resolves to the reviewer's own department.
func (s *ContributionService) ListForReview(ctx context.Context, actor models.JWTClaims, department string, filter models.ContributionFilter) (*ApprovalListResponse, error) {
	switch department {
	case "", "all":
		filter.DepartmentID = ""
	case "mine":
		profile, err := s.profiles.FindByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
		}
		if profile.DepartmentID == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "no department assigned to your profile")
		}
		filter.DepartmentID = *profile.DepartmentID
	default:
		filter.DepartmentID = department
	}

	if filter.Status == "" {
		filter.Status = models.ContributionStatusPending
	}
	if !filter.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown contribution status")
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contributions")
	}

	countFilter := filter
	countFilter.Status = ""
	counts, err := s.repo.CountsByStatus(ctx, countFilter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count contributions")
	}

	return &ApprovalListResponse{
		Items:      items,
		Counts:     *counts,
		Pagination: *paginationFor(filter.Page, filter.PageSize, total),
	}, nil
}

// Get returns a contribution with its display context. Volunteers may
// only read their own records.
func (s *ContributionService) Get(ctx context.Context, actor models.JWTClaims, id string) (*models.ContributionDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contribution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contribution")
	}
	if actor.Role == models.RoleVolunteer && detail.UserID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "you may only view your own contributions")
	}
	return detail, nil
}

// Approve transitions a pending contribution to APPROVED.
func (s *ContributionService) Approve(ctx context.Context, actor models.JWTClaims, id string) (*models.ContributionDetail, error) {
	if err := s.checkReviewable(ctx, actor, id); err != nil {
		return nil, err
	}

	applied, err := s.repo.Approve(ctx, id, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve contribution")
	}
	if !applied {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "contribution has already been reviewed")
	}

	s.recordReviewAudit(ctx, actor, id, "APPROVED")
	s.invalidate(ctx)
	return s.Get(ctx, actor, id)
}

// Reject transitions a pending contribution to REJECTED.
func (s *ContributionService) Reject(ctx context.Context, actor models.JWTClaims, id string, req RejectContributionRequest) (*models.ContributionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reject payload")
	}
	if err := s.checkReviewable(ctx, actor, id); err != nil {
		return nil, err
	}

	applied, err := s.repo.Reject(ctx, id, actor.UserID, req.Reason)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject contribution")
	}
	if !applied {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "contribution has already been reviewed")
	}

	s.recordReviewAudit(ctx, actor, id, "REJECTED")
	s.invalidate(ctx)
	return s.Get(ctx, actor, id)
}

// CorrectStatus moves a contribution between review states outside the
// normal PENDING-only flow. Used by coordinators to fix mistakes.
func (s *ContributionService) CorrectStatus(ctx context.Context, actor models.JWTClaims, id string, req CorrectStatusRequest) (*models.ContributionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown contribution status")
	}
	if err := s.checkReviewable(ctx, actor, id); err != nil {
		return nil, err
	}

	if err := s.repo.CorrectStatus(ctx, id, req.Status, actor.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contribution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to correct contribution status")
	}

	s.recordReviewAudit(ctx, actor, id, string(req.Status))
	s.invalidate(ctx)
	return s.Get(ctx, actor, id)
}

// checkReviewable ensures the record exists and the actor is not
// reviewing their own contribution.
func (s *ContributionService) checkReviewable(ctx context.Context, actor models.JWTClaims, id string) error {
	contribution, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "contribution not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contribution")
	}
	if contribution.UserID == actor.UserID {
		return appErrors.Clone(appErrors.ErrPermissionDenied, "you may not review your own contribution")
	}
	return nil
}

func (s *ContributionService) recordReviewAudit(ctx context.Context, actor models.JWTClaims, id, outcome string) {
	payload, _ := json.Marshal(map[string]string{"outcome": outcome})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionContributionReview,
		Resource:   "contribution",
		ResourceID: &id,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record review audit log", zap.Error(err))
	}
}

func (s *ContributionService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
	if err := s.cache.DeleteByPattern(ctx, "reports:*"); err != nil {
		s.logger.Warn("failed to invalidate reports cache", zap.Error(err))
	}
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 25
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
