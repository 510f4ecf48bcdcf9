package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/voluntrack/voluntrack-api/internal/dto"
	"github.com/voluntrack/voluntrack-api/internal/models"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
	"github.com/voluntrack/voluntrack-api/pkg/export"
	"github.com/voluntrack/voluntrack-api/pkg/jobs"
	"github.com/voluntrack/voluntrack-api/pkg/storage"
)

const exportJobType = "contributions_export"

type exportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath string) error
	MarkFailed(ctx context.Context, id, message string) error
}

type exportContributionRepository interface {
	ListForExport(ctx context.Context, filter models.ContributionFilter) ([]models.ContributionDetail, error)
}

// ExportService renders contribution logs to CSV or PDF through the
// background queue and hands out signed download tokens.
type ExportService struct {
	jobsRepo      exportJobRepository
	contributions exportContributionRepository
	audit         auditWriter
	queue         *jobs.Queue
	storage       *storage.LocalStorage
	signer        *storage.SignedURLSigner
	csv           *export.CSVExporter
	pdf           *export.PDFExporter
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewExportService creates a new export service instance. Call Handler
// when wiring the queue so rendered jobs flow back through this service.
func NewExportService(
	jobsRepo exportJobRepository,
	contributions exportContributionRepository,
	audit auditWriter,
	store *storage.LocalStorage,
	signer *storage.SignedURLSigner,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		jobsRepo:      jobsRepo,
		contributions: contributions,
		audit:         audit,
		storage:       store,
		signer:        signer,
		csv:           export.NewCSVExporter(),
		pdf:           export.NewPDFExporter(),
		logger:        logger,
	}
}

// AttachQueue binds the started queue used for dispatching jobs.
func (s *ExportService) AttachQueue(queue *jobs.Queue) {
	s.queue = queue
}

// AttachMetrics binds the optional metrics collector.
func (s *ExportService) AttachMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// Enqueue records a QUEUED export job and dispatches it to the worker
// pool.
func (s *ExportService) Enqueue(ctx context.Context, actor models.JWTClaims, params models.ExportParams) (*dto.ExportJobResponse, error) {
	if params.Format != models.ExportFormatCSV && params.Format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if params.Status != "" && !params.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown contribution status")
	}

	job := &models.ExportJob{
		RequestedBy: actor.UserID,
		Params:      params,
	}
	if err := s.jobsRepo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export queue is not running")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: exportJobType}); err != nil {
		if markErr := s.jobsRepo.MarkFailed(ctx, job.ID, "queue unavailable"); markErr != nil {
			s.logger.Error("failed to mark orphaned export job", zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}

	payload, _ := json.Marshal(params)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionContributionsExport,
		Resource:   "export_job",
		ResourceID: &job.ID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record export audit log", zap.Error(err))
	}

	return &dto.ExportJobResponse{ID: job.ID, Status: string(job.Status)}, nil
}

// Handler returns the queue handler that renders export jobs.
func (s *ExportService) Handler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		return s.process(ctx, job.ID)
	}
}

func (s *ExportService) process(ctx context.Context, jobID string) error {
	job, err := s.jobsRepo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", jobID, err)
	}

	if err := s.jobsRepo.MarkRunning(ctx, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// already picked up or corrected; nothing to do
			return nil
		}
		return fmt.Errorf("mark export job running: %w", err)
	}

	filter := models.ContributionFilter{
		Status:       job.Params.Status,
		DepartmentID: job.Params.DepartmentID,
		DateFrom:     job.Params.DateFrom,
		DateTo:       job.Params.DateTo,
	}
	contributions, err := s.contributions.ListForExport(ctx, filter)
	if err != nil {
		s.fail(ctx, jobID, "failed to load contributions")
		return fmt.Errorf("list contributions for export: %w", err)
	}

	dataset := buildContributionDataset(contributions)

	var rendered []byte
	var ext string
	switch job.Params.Format {
	case models.ExportFormatPDF:
		rendered, err = s.pdf.Render(dataset, "Contribution Logs")
		ext = "pdf"
	default:
		rendered, err = s.csv.Render(dataset)
		ext = "csv"
	}
	if err != nil {
		s.fail(ctx, jobID, "failed to render export")
		return fmt.Errorf("render export %s: %w", jobID, err)
	}

	filename := fmt.Sprintf("contributions-%s.%s", jobID, ext)
	relPath, err := s.storage.Save(filename, rendered)
	if err != nil {
		s.fail(ctx, jobID, "failed to store export file")
		return fmt.Errorf("store export %s: %w", jobID, err)
	}

	if err := s.jobsRepo.MarkCompleted(ctx, jobID, relPath); err != nil {
		return fmt.Errorf("mark export job completed: %w", err)
	}
	s.metrics.RecordExportJob(string(models.ExportJobCompleted))
	s.logger.Info("export job completed", zap.String("job_id", jobID), zap.Int("rows", len(dataset.Rows)))
	return nil
}

func (s *ExportService) fail(ctx context.Context, jobID, message string) {
	if err := s.jobsRepo.MarkFailed(ctx, jobID, message); err != nil {
		s.logger.Error("failed to mark export job failed", zap.String("job_id", jobID), zap.Error(err))
	}
	s.metrics.RecordExportJob(string(models.ExportJobFailed))
}

// Status reports the job state and, once completed, a signed download
// URL. Only the requester may poll their job.
func (s *ExportService) Status(ctx context.Context, actor models.JWTClaims, jobID string) (*dto.ExportStatusResponse, error) {
	job, err := s.jobsRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}

	if actor.Role != models.RoleAdmin && job.RequestedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "export job belongs to another user")
	}

	response := &dto.ExportStatusResponse{ID: job.ID, Status: string(job.Status)}
	switch job.Status {
	case models.ExportJobCompleted:
		token, expiresAt, err := s.signer.Generate(job.ID, job.FilePath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		url := fmt.Sprintf("/logs/export/%s/download?token=%s", job.ID, token)
		response.DownloadURL = &url
		response.ExpiresAt = &expiresAt
	case models.ExportJobFailed:
		if job.Error != "" {
			message := job.Error
			response.Error = &message
		}
	}
	return response, nil
}

// Download validates a signed token and returns an open handle on the
// rendered file plus a download name.
func (s *ExportService) Download(ctx context.Context, jobID, token string) (*os.File, string, error) {
	tokenJobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	if tokenJobID != jobID {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "token does not match export job")
	}

	job, err := s.jobsRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportJobCompleted || job.FilePath != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file is not available")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return file, relPath, nil
}

func buildContributionDataset(contributions []models.ContributionDetail) export.Dataset {
	headers := []string{"Volunteer", "Department", "Event", "Date", "Hours", "Status", "Reviewed By", "Reviewed At", "Description"}
	rows := make([]map[string]string, 0, len(contributions))
	for _, c := range contributions {
		event := ""
		if c.EventTitle != nil {
			event = *c.EventTitle
		}
		reviewer := ""
		if c.ReviewerName != nil {
			reviewer = *c.ReviewerName
		}
		reviewedAt := ""
		if c.ReviewedAt != nil {
			reviewedAt = c.ReviewedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, map[string]string{
			"Volunteer":   c.VolunteerName,
			"Department":  c.DepartmentName,
			"Event":       event,
			"Date":        c.Date.UTC().Format("2006-01-02"),
			"Hours":       fmt.Sprintf("%.2f", c.Hours),
			"Status":      string(c.Status),
			"Reviewed By": reviewer,
			"Reviewed At": reviewedAt,
			"Description": c.Description,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
