package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/voluntrack/voluntrack-api/internal/models"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
)

// SignupRepository handles persistence of event signups.
type SignupRepository struct {
	db *sqlx.DB
}

// NewSignupRepository constructs the repository.
func NewSignupRepository(db *sqlx.DB) *SignupRepository {
	return &SignupRepository{db: db}
}

// Create reserves a spot on an event. The event row is locked for the
// duration of the transaction so the capacity check and the insert are
// atomic against concurrent signups for the same event.
func (r *SignupRepository) Create(ctx context.Context, userID, eventID string) (*models.Signup, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin signup: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var event struct {
		Capacity int                `db:"capacity"`
		Status   models.EventStatus `db:"status"`
	}
	const lockQuery = `SELECT capacity, status FROM events WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &event, lockQuery, eventID); err != nil {
		return nil, err
	}
	if event.Status != models.EventStatusScheduled {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "event is not open for signups")
	}

	var confirmed int
	const countQuery = `SELECT COUNT(*) FROM signups WHERE event_id = $1 AND status = 'CONFIRMED'`
	if err := tx.GetContext(ctx, &confirmed, countQuery, eventID); err != nil {
		return nil, fmt.Errorf("count confirmed signups: %w", err)
	}
	if confirmed >= event.Capacity {
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, "event has no remaining capacity")
	}

	var existing int
	const dupQuery = `SELECT COUNT(*) FROM signups WHERE event_id = $1 AND user_id = $2 AND status = 'CONFIRMED'`
	if err := tx.GetContext(ctx, &existing, dupQuery, eventID, userID); err != nil {
		return nil, fmt.Errorf("check duplicate signup: %w", err)
	}
	if existing > 0 {
		return nil, appErrors.Clone(appErrors.ErrDuplicateSignup, "already signed up for this event")
	}

	signup := &models.Signup{
		ID:        uuid.NewString(),
		UserID:    userID,
		EventID:   eventID,
		Status:    models.SignupStatusConfirmed,
		CreatedAt: time.Now().UTC(),
	}
	const insertQuery = `INSERT INTO signups (id, user_id, event_id, status, created_at)
        VALUES (:id, :user_id, :event_id, :status, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, signup); err != nil {
		return nil, fmt.Errorf("create signup: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit signup: %w", err)
	}
	return signup, nil
}

// Cancel marks the user's confirmed signup for an event as cancelled.
// The row is kept for history; its spot is freed immediately.
func (r *SignupRepository) Cancel(ctx context.Context, userID, eventID string) error {
	const query = `UPDATE signups SET status = 'CANCELLED' WHERE user_id = $1 AND event_id = $2 AND status = 'CONFIRMED'`
	result, err := r.db.ExecContext(ctx, query, userID, eventID)
	if err != nil {
		return fmt.Errorf("cancel signup: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel signup rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByUser returns the user's signups with event context, newest event
// first.
func (r *SignupRepository) ListByUser(ctx context.Context, userID string) ([]models.SignupDetail, error) {
	const query = `SELECT s.id, s.user_id, s.event_id, s.status, s.created_at,
        e.title AS event_title, e.date AS event_date, e.location AS event_location, e.status AS event_status
        FROM signups s
        JOIN events e ON e.id = s.event_id
        WHERE s.user_id = $1
        ORDER BY e.date DESC`
	var signups []models.SignupDetail
	if err := r.db.SelectContext(ctx, &signups, query, userID); err != nil {
		return nil, fmt.Errorf("list signups: %w", err)
	}
	return signups, nil
}

// HasConfirmed reports whether the user holds a confirmed signup for
// the event.
func (r *SignupRepository) HasConfirmed(ctx context.Context, userID, eventID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM signups WHERE user_id = $1 AND event_id = $2 AND status = 'CONFIRMED'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, eventID); err != nil {
		return false, fmt.Errorf("check signup: %w", err)
	}
	return count > 0, nil
}
