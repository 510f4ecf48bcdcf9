package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voluntrack/voluntrack-api/internal/models"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
	"github.com/voluntrack/voluntrack-api/pkg/jobs"
	"github.com/voluntrack/voluntrack-api/pkg/storage"
)

func jobForTest(id string) jobs.Job {
	return jobs.Job{ID: id, Type: exportJobType}
}

type mockExportJobRepo struct {
	jobs map[string]*models.ExportJob
}

func newMockExportJobRepo() *mockExportJobRepo {
	return &mockExportJobRepo{jobs: make(map[string]*models.ExportJob)}
}

func (m *mockExportJobRepo) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = "job-1"
	}
	job.Status = models.ExportJobQueued
	m.jobs[job.ID] = job
	return nil
}

func (m *mockExportJobRepo) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (m *mockExportJobRepo) MarkRunning(ctx context.Context, id string) error {
	job, ok := m.jobs[id]
	if !ok || job.Status != models.ExportJobQueued {
		return sql.ErrNoRows
	}
	job.Status = models.ExportJobRunning
	return nil
}

func (m *mockExportJobRepo) MarkCompleted(ctx context.Context, id, filePath string) error {
	m.jobs[id].Status = models.ExportJobCompleted
	m.jobs[id].FilePath = filePath
	return nil
}

func (m *mockExportJobRepo) MarkFailed(ctx context.Context, id, message string) error {
	m.jobs[id].Status = models.ExportJobFailed
	m.jobs[id].Error = message
	return nil
}

type mockExportContributions struct {
	items []models.ContributionDetail
}

func (m *mockExportContributions) ListForExport(ctx context.Context, filter models.ContributionFilter) ([]models.ContributionDetail, error) {
	return m.items, nil
}

func newTestExportService(t *testing.T, jobsRepo *mockExportJobRepo, contributions *mockExportContributions) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewExportService(jobsRepo, contributions, &mockAuditWriter{}, store, signer, zap.NewNop())
}

func TestExportEnqueueRejectsUnknownFormat(t *testing.T) {
	svc := newTestExportService(t, newMockExportJobRepo(), &mockExportContributions{})

	_, err := svc.Enqueue(context.Background(), volunteerClaims("vol-1"), models.ExportParams{Format: "xlsx"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestExportEnqueueWithoutQueue(t *testing.T) {
	jobsRepo := newMockExportJobRepo()
	svc := newTestExportService(t, jobsRepo, &mockExportContributions{})

	_, err := svc.Enqueue(context.Background(), volunteerClaims("vol-1"), models.ExportParams{Format: models.ExportFormatCSV})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}

func TestExportProcessRendersAndSigns(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	title := "Beach Cleanup"
	jobsRepo := newMockExportJobRepo()
	jobsRepo.jobs["job-1"] = &models.ExportJob{
		ID:          "job-1",
		RequestedBy: "vol-1",
		Status:      models.ExportJobQueued,
		Params:      models.ExportParams{Format: models.ExportFormatCSV},
	}
	contributions := &mockExportContributions{items: []models.ContributionDetail{
		{
			Contribution: models.Contribution{
				ID: "contribution-1", Date: now, Hours: 3.5,
				Status: models.ContributionStatusApproved, Description: "shore sweep",
			},
			VolunteerName:  "Ada",
			DepartmentName: "Environment",
			EventTitle:     &title,
		},
	}}
	svc := newTestExportService(t, jobsRepo, contributions)

	require.NoError(t, svc.Handler()(context.Background(), jobForTest("job-1")))
	assert.Equal(t, models.ExportJobCompleted, jobsRepo.jobs["job-1"].Status)

	status, err := svc.Status(context.Background(), volunteerClaims("vol-1"), "job-1")
	require.NoError(t, err)
	assert.Equal(t, string(models.ExportJobCompleted), status.Status)
	require.NotNil(t, status.DownloadURL)
	assert.Contains(t, *status.DownloadURL, "/logs/export/job-1/download?token=")

	token := (*status.DownloadURL)[strings.Index(*status.DownloadURL, "token=")+len("token="):]
	file, name, err := svc.Download(context.Background(), "job-1", token)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck
	assert.Contains(t, name, "contributions-job-1.csv")

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Ada")
	assert.Contains(t, string(content), "Beach Cleanup")
	assert.Contains(t, string(content), "3.50")
}

func TestExportProcessSkipsPickedUpJob(t *testing.T) {
	jobsRepo := newMockExportJobRepo()
	jobsRepo.jobs["job-1"] = &models.ExportJob{
		ID:          "job-1",
		RequestedBy: "vol-1",
		Status:      models.ExportJobRunning,
		Params:      models.ExportParams{Format: models.ExportFormatCSV},
	}
	svc := newTestExportService(t, jobsRepo, &mockExportContributions{})

	require.NoError(t, svc.Handler()(context.Background(), jobForTest("job-1")))
	assert.Equal(t, models.ExportJobRunning, jobsRepo.jobs["job-1"].Status)
}

func TestExportStatusDeniedForOtherUser(t *testing.T) {
	jobsRepo := newMockExportJobRepo()
	jobsRepo.jobs["job-1"] = &models.ExportJob{ID: "job-1", RequestedBy: "vol-1", Status: models.ExportJobQueued}
	svc := newTestExportService(t, jobsRepo, &mockExportContributions{})

	_, err := svc.Status(context.Background(), volunteerClaims("vol-2"), "job-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPermissionDenied.Code, appErr.Code)
}
