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

// ContributionRepository handles persistence of contribution logs.
type ContributionRepository struct {
	db *sqlx.DB
}

// NewContributionRepository constructs the repository.
func NewContributionRepository(db *sqlx.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

// Create persists a new contribution log in PENDING state.
func (r *ContributionRepository) Create(ctx context.Context, contribution *models.Contribution) error {
	if contribution.ID == "" {
		contribution.ID = uuid.NewString()
	}
	if contribution.CreatedAt.IsZero() {
		contribution.CreatedAt = time.Now().UTC()
	}
	contribution.Status = models.ContributionStatusPending
	const query = `INSERT INTO contributions (id, user_id, event_id, department_id, date, hours, description, status, created_at)
        VALUES (:id, :user_id, :event_id, :department_id, :date, :hours, :description, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, contribution); err != nil {
		return fmt.Errorf("create contribution: %w", err)
	}
	return nil
}

func buildContributionFilter(filter models.ContributionFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("c.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("c.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("c.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("c.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	return clause, args
}

// List returns contributions with display context, filtered and
// paginated, newest first.
func (r *ContributionRepository) List(ctx context.Context, filter models.ContributionFilter) ([]models.ContributionDetail, int, error) {
	base := `FROM contributions c
JOIN users u ON u.id = c.user_id
LEFT JOIN events e ON e.id = c.event_id
JOIN departments d ON d.id = c.department_id
LEFT JOIN users rv ON rv.id = c.reviewed_by`
	clause, args := buildContributionFilter(filter)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 25
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT c.id, c.user_id, c.event_id, c.department_id, c.date, c.hours, c.description,
        c.status, c.reviewed_by, c.reviewed_at, COALESCE(c.rejection_reason, '') AS rejection_reason, c.created_at,
        u.full_name AS volunteer_name, e.title AS event_title, d.name AS department_name, rv.full_name AS reviewer_name
        %s ORDER BY c.date DESC, c.created_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var contributions []models.ContributionDetail
	if err := r.db.SelectContext(ctx, &contributions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list contributions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count contributions: %w", err)
	}
	return contributions, total, nil
}

// FindByID returns a bare contribution row.
func (r *ContributionRepository) FindByID(ctx context.Context, id string) (*models.Contribution, error) {
	const query = `SELECT id, user_id, event_id, department_id, date, hours, description, status,
        reviewed_by, reviewed_at, COALESCE(rejection_reason, '') AS rejection_reason, created_at
        FROM contributions WHERE id = $1`
	var contribution models.Contribution
	if err := r.db.GetContext(ctx, &contribution, query, id); err != nil {
		return nil, err
	}
	return &contribution, nil
}

// FindDetailByID returns a contribution with display context.
func (r *ContributionRepository) FindDetailByID(ctx context.Context, id string) (*models.ContributionDetail, error) {
	const query = `SELECT c.id, c.user_id, c.event_id, c.department_id, c.date, c.hours, c.description,
        c.status, c.reviewed_by, c.reviewed_at, COALESCE(c.rejection_reason, '') AS rejection_reason, c.created_at,
        u.full_name AS volunteer_name, e.title AS event_title, d.name AS department_name, rv.full_name AS reviewer_name
        FROM contributions c
        JOIN users u ON u.id = c.user_id
        LEFT JOIN events e ON e.id = c.event_id
        JOIN departments d ON d.id = c.department_id
        LEFT JOIN users rv ON rv.id = c.reviewed_by
        WHERE c.id = $1`
	var detail models.ContributionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Approve transitions a pending contribution to APPROVED. The status
// guard in the WHERE clause makes concurrent reviews lose cleanly: zero
// rows affected means the record was no longer pending.
func (r *ContributionRepository) Approve(ctx context.Context, id, reviewerID string) (bool, error) {
	const query = `UPDATE contributions SET status = 'APPROVED', reviewed_by = $2, reviewed_at = $3, rejection_reason = ''
        WHERE id = $1 AND status = 'PENDING'`
	result, err := r.db.ExecContext(ctx, query, id, reviewerID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("approve contribution: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("approve contribution rows: %w", err)
	}
	return rows > 0, nil
}

// Reject transitions a pending contribution to REJECTED with a reason.
func (r *ContributionRepository) Reject(ctx context.Context, id, reviewerID, reason string) (bool, error) {
	const query = `UPDATE contributions SET status = 'REJECTED', reviewed_by = $2, reviewed_at = $3, rejection_reason = $4
        WHERE id = $1 AND status = 'PENDING'`
	result, err := r.db.ExecContext(ctx, query, id, reviewerID, time.Now().UTC(), reason)
	if err != nil {
		return false, fmt.Errorf("reject contribution: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reject contribution rows: %w", err)
	}
	return rows > 0, nil
}

// CorrectStatus force-sets a contribution's status regardless of its
// current state. Moving to a decided status stamps the reviewer;
// reverting to PENDING clears the review metadata.
func (r *ContributionRepository) CorrectStatus(ctx context.Context, id string, status models.ContributionStatus, reviewerID string) error {
	var result sql.Result
	var err error
	if status == models.ContributionStatusPending {
		const query = `UPDATE contributions SET status = $2, reviewed_by = NULL, reviewed_at = NULL, rejection_reason = '' WHERE id = $1`
		result, err = r.db.ExecContext(ctx, query, id, status)
	} else {
		const query = `UPDATE contributions SET status = $2, reviewed_by = $3, reviewed_at = $4 WHERE id = $1`
		result, err = r.db.ExecContext(ctx, query, id, status, reviewerID, time.Now().UTC())
	}
	if err != nil {
		return fmt.Errorf("correct contribution status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("correct contribution status rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountsByStatus returns contribution totals per approval state for the
// given filter (pagination fields are ignored).
func (r *ContributionRepository) CountsByStatus(ctx context.Context, filter models.ContributionFilter) (*models.StatusCounts, error) {
	clause, args := buildContributionFilter(filter)
	query := fmt.Sprintf(`SELECT
        COALESCE(SUM(CASE WHEN c.status = 'PENDING' THEN 1 ELSE 0 END), 0) AS pending,
        COALESCE(SUM(CASE WHEN c.status = 'APPROVED' THEN 1 ELSE 0 END), 0) AS approved,
        COALESCE(SUM(CASE WHEN c.status = 'REJECTED' THEN 1 ELSE 0 END), 0) AS rejected
        FROM contributions c%s`, clause)

	var counts struct {
		Pending  int `db:"pending"`
		Approved int `db:"approved"`
		Rejected int `db:"rejected"`
	}
	if err := r.db.GetContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("count contributions by status: %w", err)
	}
	return &models.StatusCounts{
		Pending:  counts.Pending,
		Approved: counts.Approved,
		Rejected: counts.Rejected,
	}, nil
}

// SumApprovedHoursByUser returns the user's total approved hours.
func (r *ContributionRepository) SumApprovedHoursByUser(ctx context.Context, userID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(hours), 0) FROM contributions WHERE user_id = $1 AND status = 'APPROVED'`
	var hours float64
	if err := r.db.GetContext(ctx, &hours, query, userID); err != nil {
		return 0, fmt.Errorf("sum approved hours: %w", err)
	}
	return hours, nil
}

// SumApprovedHoursByReviewer returns total hours the reviewer approved.
func (r *ContributionRepository) SumApprovedHoursByReviewer(ctx context.Context, reviewerID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(hours), 0) FROM contributions WHERE reviewed_by = $1 AND status = 'APPROVED'`
	var hours float64
	if err := r.db.GetContext(ctx, &hours, query, reviewerID); err != nil {
		return 0, fmt.Errorf("sum approved hours by reviewer: %w", err)
	}
	return hours, nil
}

// ListRecentPending returns the oldest pending contributions awaiting
// review, optionally scoped to a department.
func (r *ContributionRepository) ListRecentPending(ctx context.Context, departmentID string, limit int) ([]models.ContributionDetail, error) {
	filter := models.ContributionFilter{
		Status:       models.ContributionStatusPending,
		DepartmentID: departmentID,
	}
	clause, args := buildContributionFilter(filter)
	query := fmt.Sprintf(`SELECT c.id, c.user_id, c.event_id, c.department_id, c.date, c.hours, c.description,
        c.status, c.reviewed_by, c.reviewed_at, COALESCE(c.rejection_reason, '') AS rejection_reason, c.created_at,
        u.full_name AS volunteer_name, e.title AS event_title, d.name AS department_name, rv.full_name AS reviewer_name
        FROM contributions c
        JOIN users u ON u.id = c.user_id
        LEFT JOIN events e ON e.id = c.event_id
        JOIN departments d ON d.id = c.department_id
        LEFT JOIN users rv ON rv.id = c.reviewed_by
        %s ORDER BY c.created_at ASC LIMIT %d`, clause, limit)

	var contributions []models.ContributionDetail
	if err := r.db.SelectContext(ctx, &contributions, query, args...); err != nil {
		return nil, fmt.Errorf("list recent pending: %w", err)
	}
	return contributions, nil
}

// ListForExport returns every contribution matching the filter without
// pagination, oldest first, for report generation.
func (r *ContributionRepository) ListForExport(ctx context.Context, filter models.ContributionFilter) ([]models.ContributionDetail, error) {
	base := `FROM contributions c
JOIN users u ON u.id = c.user_id
LEFT JOIN events e ON e.id = c.event_id
JOIN departments d ON d.id = c.department_id
LEFT JOIN users rv ON rv.id = c.reviewed_by`
	clause, args := buildContributionFilter(filter)

	query := fmt.Sprintf(`SELECT c.id, c.user_id, c.event_id, c.department_id, c.date, c.hours, c.description,
        c.status, c.reviewed_by, c.reviewed_at, COALESCE(c.rejection_reason, '') AS rejection_reason, c.created_at,
        u.full_name AS volunteer_name, e.title AS event_title, d.name AS department_name, rv.full_name AS reviewer_name
        %s ORDER BY c.date ASC, c.created_at ASC`, base+clause)

	var contributions []models.ContributionDetail
	if err := r.db.SelectContext(ctx, &contributions, query, args...); err != nil {
		return nil, fmt.Errorf("list contributions for export: %w", err)
	}
	return contributions, nil
}
