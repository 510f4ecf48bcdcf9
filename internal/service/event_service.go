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

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	FindDetailByID(ctx context.Context, id string) (*models.EventDetail, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	UpdateStatus(ctx context.Context, id string, status models.EventStatus) error
	Delete(ctx context.Context, id string) error
	Participants(ctx context.Context, eventID string) ([]models.EventParticipant, error)
	ApprovedHoursByVolunteer(ctx context.Context, eventID string) ([]models.EventHours, error)
}

type eventDepartmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type eventSignupChecker interface {
	HasConfirmed(ctx context.Context, userID, eventID string) (bool, error)
}

// CreateEventRequest describes payload for creating events.
type CreateEventRequest struct {
	Title        string    `json:"title" validate:"required,max=200"`
	Description  string    `json:"description" validate:"max=5000"`
	DepartmentID *string   `json:"department_id"`
	Date         time.Time `json:"date" validate:"required"`
	Location     string    `json:"location" validate:"required,max=200"`
	Capacity     int       `json:"capacity" validate:"min=0"`
}

// UpdateEventRequest updates mutable fields on an event.
type UpdateEventRequest struct {
	Title        string    `json:"title" validate:"required,max=200"`
	Description  string    `json:"description" validate:"max=5000"`
	DepartmentID *string   `json:"department_id"`
	Date         time.Time `json:"date" validate:"required"`
	Location     string    `json:"location" validate:"required,max=200"`
	Capacity     int       `json:"capacity" validate:"min=0"`
}

// UpdateEventStatusRequest transitions an event's lifecycle status.
type UpdateEventStatusRequest struct {
	Status models.EventStatus `json:"status" validate:"required"`
}

// EventDetailResponse bundles the event with its confirmed volunteers
// and per-volunteer approved hours for the detail page.
type EventDetailResponse struct {
	Event        *models.EventDetail       `json:"event"`
	Participants []models.EventParticipant `json:"participants"`
	Hours        []models.EventHours       `json:"hours"`
	SignedUp     bool                      `json:"signed_up"`
}

// EventService orchestrates event workflows with ownership checks.
type EventService struct {
	repo        eventRepository
	departments eventDepartmentRepository
	signups     eventSignupChecker
	audit       auditWriter
	cache       cacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEventService creates a new event service instance.
func NewEventService(
	repo eventRepository,
	departments eventDepartmentRepository,
	signups eventSignupChecker,
	audit auditWriter,
	cache cacheInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{
		repo:        repo,
		departments: departments,
		signups:     signups,
		audit:       audit,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// List returns paginated events. Open to every authenticated role.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown event status filter")
	}

	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 25
	}

	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return events, pagination, nil
}

// Get returns the event detail page payload for the given viewer.
func (s *EventService) Get(ctx context.Context, id, viewerID string) (*EventDetailResponse, error) {
	event, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	participants, err := s.repo.Participants(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participants")
	}

	hours, err := s.repo.ApprovedHoursByVolunteer(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event hours")
	}

	signedUp := false
	if viewerID != "" {
		signedUp, err = s.signups.HasConfirmed(ctx, viewerID, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check signup")
		}
	}

	return &EventDetailResponse{
		Event:        event,
		Participants: participants,
		Hours:        hours,
		SignedUp:     signedUp,
	}, nil
}

// Create adds a new scheduled event owned by the acting coordinator or
// admin.
func (s *EventService) Create(ctx context.Context, actor models.JWTClaims, req CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	if req.DepartmentID != nil && *req.DepartmentID != "" {
		if _, err := s.departments.FindByID(ctx, *req.DepartmentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "department does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department")
		}
	}

	event := &models.Event{
		Title:        req.Title,
		Description:  req.Description,
		DepartmentID: req.DepartmentID,
		Date:         req.Date,
		Location:     req.Location,
		Capacity:     req.Capacity,
		Status:       models.EventStatusScheduled,
		CreatedBy:    actor.UserID,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	s.recordAudit(ctx, actor, models.AuditActionEventCreate, event.ID, map[string]interface{}{"title": event.Title})
	s.invalidateDashboards(ctx)
	return event, nil
}

// Update modifies an event. Coordinators may only edit events they
// created; admins may edit any.
func (s *EventService) Update(ctx context.Context, actor models.JWTClaims, id string, req UpdateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	event, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.DepartmentID != nil && *req.DepartmentID != "" {
		if _, err := s.departments.FindByID(ctx, *req.DepartmentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "department does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department")
		}
	}

	event.Title = req.Title
	event.Description = req.Description
	event.DepartmentID = req.DepartmentID
	event.Date = req.Date
	event.Location = req.Location
	event.Capacity = req.Capacity

	if err := s.repo.Update(ctx, event); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}

	s.recordAudit(ctx, actor, models.AuditActionEventUpdate, event.ID, map[string]interface{}{"title": event.Title})
	s.invalidateDashboards(ctx)
	return event, nil
}

// UpdateStatus transitions the event lifecycle (complete or cancel).
func (s *EventService) UpdateStatus(ctx context.Context, actor models.JWTClaims, id string, req UpdateEventStatusRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown event status")
	}

	event, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event status")
	}
	event.Status = req.Status

	s.recordAudit(ctx, actor, models.AuditActionEventUpdate, event.ID, map[string]interface{}{"status": string(req.Status)})
	s.invalidateDashboards(ctx)
	return event, nil
}

// Delete removes an event and its signups. Contributions that referenced
// the event survive with the reference cleared.
func (s *EventService) Delete(ctx context.Context, actor models.JWTClaims, id string) error {
	event, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}

	s.recordAudit(ctx, actor, models.AuditActionEventDelete, id, map[string]interface{}{"title": event.Title})
	s.invalidateDashboards(ctx)
	return nil
}

func (s *EventService) loadOwned(ctx context.Context, actor models.JWTClaims, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	if actor.Role != models.RoleAdmin && event.CreatedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "only the creator or an admin may modify this event")
	}
	return event, nil
}

func (s *EventService) recordAudit(ctx context.Context, actor models.JWTClaims, action, resourceID string, values map[string]interface{}) {
	payload, err := json.Marshal(values)
	if err != nil {
		payload = nil
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "event",
		ResourceID: &resourceID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record event audit log", zap.Error(err))
	}
}

func (s *EventService) invalidateDashboards(ctx context.Context) {
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
