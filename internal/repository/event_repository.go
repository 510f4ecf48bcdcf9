package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/voluntrack/voluntrack-api/internal/models"
)

// confirmedCountExpr counts live signups per event. Every read path
// uses the same expression so capacity checks and listings agree.
const confirmedCountExpr = `(SELECT COUNT(*) FROM signups s WHERE s.event_id = e.id AND s.status = 'CONFIRMED')`

// EventRepository handles persistence of events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns events with confirmed counts, filtered and paginated.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, int, error) {
	base := `FROM events e
LEFT JOIN departments d ON d.id = e.department_id
JOIN users u ON u.id = e.created_by`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.CreatedBy != "" {
		conditions = append(conditions, fmt.Sprintf("e.created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(e.title ILIKE $%d OR e.description ILIKE $%d OR e.location ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 25
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.title, e.description, e.department_id, e.date, e.location,
        e.capacity, e.status, e.created_by, e.created_at,
        %s AS confirmed_count,
        d.name AS department_name, u.full_name AS creator_name
        %s ORDER BY e.date DESC LIMIT %d OFFSET %d`, confirmedCountExpr, base+clause, size, offset)

	var events []models.EventDetail
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// FindByID returns an event with its current confirmed count.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT e.id, e.title, e.description, e.department_id, e.date, e.location,
        e.capacity, e.status, e.created_by, e.created_at, %s AS confirmed_count
        FROM events e WHERE e.id = $1`, confirmedCountExpr)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// FindDetailByID returns an event joined with department and creator.
func (r *EventRepository) FindDetailByID(ctx context.Context, id string) (*models.EventDetail, error) {
	query := fmt.Sprintf(`SELECT e.id, e.title, e.description, e.department_id, e.date, e.location,
        e.capacity, e.status, e.created_by, e.created_at,
        %s AS confirmed_count,
        d.name AS department_name, u.full_name AS creator_name
        FROM events e
        LEFT JOIN departments d ON d.id = e.department_id
        JOIN users u ON u.id = e.created_by
        WHERE e.id = $1`, confirmedCountExpr)
	var detail models.EventDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create persists a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO events (id, title, description, department_id, date, location, capacity, status, created_by, created_at)
        VALUES (:id, :title, :description, :department_id, :date, :location, :capacity, :status, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update modifies the editable fields of an event.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	const query = `UPDATE events SET title = :title, description = :description, department_id = :department_id,
        date = :date, location = :location, capacity = :capacity WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatus sets an event's lifecycle status.
func (r *EventRepository) UpdateStatus(ctx context.Context, id string, status models.EventStatus) error {
	const query = `UPDATE events SET status = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event status rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an event and, via ON DELETE CASCADE, its signups.
// Contributions keep their rows with event_id set NULL.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM events WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Participants returns the confirmed volunteers for an event.
func (r *EventRepository) Participants(ctx context.Context, eventID string) ([]models.EventParticipant, error) {
	const query = `SELECT s.user_id, u.full_name, s.created_at AS signed_at
        FROM signups s
        JOIN users u ON u.id = s.user_id
        WHERE s.event_id = $1 AND s.status = 'CONFIRMED'
        ORDER BY s.created_at ASC`
	var participants []models.EventParticipant
	if err := r.db.SelectContext(ctx, &participants, query, eventID); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return participants, nil
}

// ApprovedHoursByVolunteer returns approved contribution hours grouped
// per volunteer for one event.
func (r *EventRepository) ApprovedHoursByVolunteer(ctx context.Context, eventID string) ([]models.EventHours, error) {
	const query = `SELECT u.full_name, COALESCE(SUM(c.hours), 0) AS hours
        FROM contributions c
        JOIN users u ON u.id = c.user_id
        WHERE c.event_id = $1 AND c.status = 'APPROVED'
        GROUP BY u.full_name
        ORDER BY hours DESC`
	var hours []models.EventHours
	if err := r.db.SelectContext(ctx, &hours, query, eventID); err != nil {
		return nil, fmt.Errorf("approved hours by volunteer: %w", err)
	}
	return hours, nil
}

const eventDetailColumns = `e.id, e.title, e.description, e.department_id, e.date, e.location,
        e.capacity, e.status, e.created_by, e.created_at,
        d.name AS department_name, u.full_name AS creator_name`

// ListUpcomingByCreator returns future scheduled events created by a user.
func (r *EventRepository) ListUpcomingByCreator(ctx context.Context, creatorID string, limit int) ([]models.EventDetail, error) {
	query := fmt.Sprintf(`SELECT %s, %s AS confirmed_count
        FROM events e
        LEFT JOIN departments d ON d.id = e.department_id
        JOIN users u ON u.id = e.created_by
        WHERE e.created_by = $1 AND e.status = 'SCHEDULED' AND e.date >= $2
        ORDER BY e.date ASC LIMIT $3`, eventDetailColumns, confirmedCountExpr)
	var events []models.EventDetail
	if err := r.db.SelectContext(ctx, &events, query, creatorID, time.Now().UTC(), limit); err != nil {
		return nil, fmt.Errorf("list upcoming by creator: %w", err)
	}
	return events, nil
}

// ListUpcomingByDepartment returns future scheduled events for a department.
func (r *EventRepository) ListUpcomingByDepartment(ctx context.Context, departmentID string, limit int) ([]models.EventDetail, error) {
	query := fmt.Sprintf(`SELECT %s, %s AS confirmed_count
        FROM events e
        LEFT JOIN departments d ON d.id = e.department_id
        JOIN users u ON u.id = e.created_by
        WHERE e.department_id = $1 AND e.status = 'SCHEDULED' AND e.date >= $2
        ORDER BY e.date ASC LIMIT $3`, eventDetailColumns, confirmedCountExpr)
	var events []models.EventDetail
	if err := r.db.SelectContext(ctx, &events, query, departmentID, time.Now().UTC(), limit); err != nil {
		return nil, fmt.Errorf("list upcoming by department: %w", err)
	}
	return events, nil
}

// ListSignedByUser returns upcoming events the user holds a confirmed
// signup for.
func (r *EventRepository) ListSignedByUser(ctx context.Context, userID string, limit int) ([]models.EventDetail, error) {
	query := fmt.Sprintf(`SELECT %s, %s AS confirmed_count
        FROM events e
        LEFT JOIN departments d ON d.id = e.department_id
        JOIN users u ON u.id = e.created_by
        JOIN signups su ON su.event_id = e.id AND su.user_id = $1 AND su.status = 'CONFIRMED'
        WHERE e.status = 'SCHEDULED' AND e.date >= $2
        ORDER BY e.date ASC LIMIT $3`, eventDetailColumns, confirmedCountExpr)
	var events []models.EventDetail
	if err := r.db.SelectContext(ctx, &events, query, userID, time.Now().UTC(), limit); err != nil {
		return nil, fmt.Errorf("list signed by user: %w", err)
	}
	return events, nil
}

// ListAvailableForUser returns upcoming scheduled events with open
// capacity that the user is not already signed up for.
func (r *EventRepository) ListAvailableForUser(ctx context.Context, userID string, limit int) ([]models.EventDetail, error) {
	query := fmt.Sprintf(`SELECT %s, %s AS confirmed_count
        FROM events e
        LEFT JOIN departments d ON d.id = e.department_id
        JOIN users u ON u.id = e.created_by
        WHERE e.status = 'SCHEDULED' AND e.date >= $2
          AND %s < e.capacity
          AND NOT EXISTS (
              SELECT 1 FROM signups su WHERE su.event_id = e.id AND su.user_id = $1 AND su.status = 'CONFIRMED'
          )
        ORDER BY e.date ASC LIMIT $3`, eventDetailColumns, confirmedCountExpr, confirmedCountExpr)
	var events []models.EventDetail
	if err := r.db.SelectContext(ctx, &events, query, userID, time.Now().UTC(), limit); err != nil {
		return nil, fmt.Errorf("list available for user: %w", err)
	}
	return events, nil
}

// CountByCreator returns the total number of events created by a user.
func (r *EventRepository) CountByCreator(ctx context.Context, creatorID string) (int, error) {
	const query = `SELECT COUNT(*) FROM events WHERE created_by = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, creatorID); err != nil {
		return 0, fmt.Errorf("count events by creator: %w", err)
	}
	return count, nil
}
