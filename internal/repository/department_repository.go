package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/voluntrack/voluntrack-api/internal/models"
)

// DepartmentRepository handles persistence of departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns all departments ordered by name.
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	const query = `SELECT id, name, description, created_at FROM departments ORDER BY name ASC`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// FindByID returns a single department.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, name, description, created_at FROM departments WHERE id = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		return nil, err
	}
	return &department, nil
}

// FindByName returns a department by its case-insensitive name.
func (r *DepartmentRepository) FindByName(ctx context.Context, name string) (*models.Department, error) {
	const query = `SELECT id, name, description, created_at FROM departments WHERE LOWER(name) = LOWER($1)`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, name); err != nil {
		return nil, err
	}
	return &department, nil
}

// Create persists a new department.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = uuid.NewString()
	}
	if department.CreatedAt.IsZero() {
		department.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO departments (id, name, description, created_at)
        VALUES (:id, :name, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// Update modifies a department's name and description.
func (r *DepartmentRepository) Update(ctx context.Context, department *models.Department) error {
	const query = `UPDATE departments SET name = :name, description = :description WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, department)
	if err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update department rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a department. Profiles and events referencing it have
// their department set NULL by the schema's ON DELETE SET NULL.
func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM departments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete department rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountCoordinators returns how many coordinator accounts are assigned
// to the department via their profile.
func (r *DepartmentRepository) CountCoordinators(ctx context.Context, departmentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM users u
        JOIN profiles p ON p.user_id = u.id
        WHERE u.role = $1 AND p.department_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.RoleCoordinator, departmentID); err != nil {
		return 0, fmt.Errorf("count coordinators: %w", err)
	}
	return count, nil
}

// CountScheduledEvents returns the number of events still scheduled for
// the department.
func (r *DepartmentRepository) CountScheduledEvents(ctx context.Context, departmentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM events WHERE department_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, departmentID, models.EventStatusScheduled); err != nil {
		return 0, fmt.Errorf("count scheduled events: %w", err)
	}
	return count, nil
}
