package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/voluntrack/voluntrack-api/internal/models"
)

// ExportJobRepository handles persistence of export jobs.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository constructs the repository.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

// Create persists a queued export job, serializing its parameters.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	job.Status = models.ExportJobQueued

	raw, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("marshal export params: %w", err)
	}
	job.RawParams = raw

	const query = `INSERT INTO export_jobs (id, requested_by, params, status, file_path, error, created_at)
        VALUES (:id, :requested_by, :params, :status, :file_path, :error, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// FindByID returns an export job with its parameters decoded.
func (r *ExportJobRepository) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	const query = `SELECT id, requested_by, params, status, COALESCE(file_path, '') AS file_path,
        COALESCE(error, '') AS error, created_at, completed_at
        FROM export_jobs WHERE id = $1`
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	if len(job.RawParams) > 0 {
		if err := json.Unmarshal(job.RawParams, &job.Params); err != nil {
			return nil, fmt.Errorf("unmarshal export params: %w", err)
		}
	}
	return &job, nil
}

// MarkRunning transitions a queued job to RUNNING.
func (r *ExportJobRepository) MarkRunning(ctx context.Context, id string) error {
	const query = `UPDATE export_jobs SET status = $2 WHERE id = $1 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, id, models.ExportJobRunning, models.ExportJobQueued)
	if err != nil {
		return fmt.Errorf("mark export job running: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark export job running rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkCompleted records the generated file path and completion time.
func (r *ExportJobRepository) MarkCompleted(ctx context.Context, id, filePath string) error {
	const query = `UPDATE export_jobs SET status = $2, file_path = $3, completed_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportJobCompleted, filePath, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export job completed: %w", err)
	}
	return nil
}

// MarkFailed records the failure message and completion time.
func (r *ExportJobRepository) MarkFailed(ctx context.Context, id, message string) error {
	const query = `UPDATE export_jobs SET status = $2, error = $3, completed_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportJobFailed, message, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export job failed: %w", err)
	}
	return nil
}
