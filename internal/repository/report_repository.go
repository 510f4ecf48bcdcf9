package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/voluntrack/voluntrack-api/internal/dto"
)

// ReportRepository runs the aggregation queries behind the reports page.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func reportDateFilter(column string, from, to *time.Time, args *[]interface{}) string {
	var conditions []string
	if from != nil {
		*args = append(*args, *from)
		conditions = append(conditions, fmt.Sprintf("%s >= $%d", column, len(*args)))
	}
	if to != nil {
		*args = append(*args, *to)
		conditions = append(conditions, fmt.Sprintf("%s <= $%d", column, len(*args)))
	}
	if len(conditions) == 0 {
		return ""
	}
	return " AND " + strings.Join(conditions, " AND ")
}

// TopVolunteers ranks volunteers by approved hours in the window. Ties
// break by earliest account creation.
func (r *ReportRepository) TopVolunteers(ctx context.Context, from, to *time.Time, limit int) ([]dto.VolunteerRanking, error) {
	var args []interface{}
	dateClause := reportDateFilter("c.date", from, to, &args)
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT u.id AS user_id, u.full_name, u.created_at AS member_since,
        COALESCE(SUM(c.hours), 0) AS approved_hours, COUNT(c.id) AS approved_count
        FROM users u
        JOIN contributions c ON c.user_id = u.id AND c.status = 'APPROVED'%s
        GROUP BY u.id, u.full_name, u.created_at
        ORDER BY approved_hours DESC, u.created_at ASC
        LIMIT $%d`, dateClause, len(args))

	var rows []struct {
		UserID        string    `db:"user_id"`
		FullName      string    `db:"full_name"`
		MemberSince   time.Time `db:"member_since"`
		ApprovedHours float64   `db:"approved_hours"`
		ApprovedCount int       `db:"approved_count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("top volunteers: %w", err)
	}

	rankings := make([]dto.VolunteerRanking, 0, len(rows))
	for _, row := range rows {
		rankings = append(rankings, dto.VolunteerRanking{
			UserID:        row.UserID,
			FullName:      row.FullName,
			ApprovedHours: row.ApprovedHours,
			ApprovedCount: row.ApprovedCount,
			MemberSince:   row.MemberSince,
		})
	}
	return rankings, nil
}

// DepartmentStats aggregates per-department events, signups and
// approved contributions for the window.
func (r *ReportRepository) DepartmentStats(ctx context.Context, from, to *time.Time) ([]dto.DepartmentStats, error) {
	var args []interface{}
	contribClause := reportDateFilter("c.date", from, to, &args)

	query := fmt.Sprintf(`SELECT d.id AS department_id, d.name AS department_name,
        (SELECT COUNT(*) FROM events e WHERE e.department_id = d.id) AS event_count,
        (SELECT COUNT(*) FROM signups s JOIN events e ON e.id = s.event_id
            WHERE e.department_id = d.id AND s.status = 'CONFIRMED') AS confirmed_signups,
        COUNT(c.id) AS approved_count,
        COALESCE(SUM(c.hours), 0) AS approved_hours
        FROM departments d
        LEFT JOIN contributions c ON c.department_id = d.id AND c.status = 'APPROVED'%s
        GROUP BY d.id, d.name
        ORDER BY d.name ASC`, contribClause)

	var rows []struct {
		DepartmentID     string  `db:"department_id"`
		DepartmentName   string  `db:"department_name"`
		EventCount       int     `db:"event_count"`
		ConfirmedSignups int     `db:"confirmed_signups"`
		ApprovedCount    int     `db:"approved_count"`
		ApprovedHours    float64 `db:"approved_hours"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("department stats: %w", err)
	}

	stats := make([]dto.DepartmentStats, 0, len(rows))
	for _, row := range rows {
		average := 0.0
		if row.ApprovedCount > 0 {
			average = row.ApprovedHours / float64(row.ApprovedCount)
		}
		stats = append(stats, dto.DepartmentStats{
			DepartmentID:     row.DepartmentID,
			DepartmentName:   row.DepartmentName,
			EventCount:       row.EventCount,
			ConfirmedSignups: row.ConfirmedSignups,
			ApprovedCount:    row.ApprovedCount,
			ApprovedHours:    row.ApprovedHours,
			AverageHours:     average,
		})
	}
	return stats, nil
}

// Totals returns the headline numbers for the reports page.
func (r *ReportRepository) Totals(ctx context.Context, from, to *time.Time) (totalHours float64, pending, total int, err error) {
	var args []interface{}
	dateClause := reportDateFilter("c.date", from, to, &args)

	query := fmt.Sprintf(`SELECT
        COALESCE(SUM(CASE WHEN c.status = 'APPROVED' THEN c.hours ELSE 0 END), 0) AS total_hours,
        COALESCE(SUM(CASE WHEN c.status = 'PENDING' THEN 1 ELSE 0 END), 0) AS pending_count,
        COUNT(c.id) AS total_count
        FROM contributions c WHERE 1=1%s`, dateClause)

	var row struct {
		TotalHours   float64 `db:"total_hours"`
		PendingCount int     `db:"pending_count"`
		TotalCount   int     `db:"total_count"`
	}
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return 0, 0, 0, fmt.Errorf("report totals: %w", err)
	}
	return row.TotalHours, row.PendingCount, row.TotalCount, nil
}
