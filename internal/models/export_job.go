package models

import "time"

// ExportFormat identifies the rendered output type.
type ExportFormat string

// Supported export formats.
const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportJobStatus tracks the background generation lifecycle.
type ExportJobStatus string

// Export job states.
const (
	ExportJobQueued    ExportJobStatus = "QUEUED"
	ExportJobRunning   ExportJobStatus = "RUNNING"
	ExportJobCompleted ExportJobStatus = "COMPLETED"
	ExportJobFailed    ExportJobStatus = "FAILED"
)

// ExportParams narrows which contributions land in the export.
type ExportParams struct {
	Format       ExportFormat       `json:"format"`
	Status       ContributionStatus `json:"status,omitempty"`
	DepartmentID string             `json:"department_id,omitempty"`
	DateFrom     *time.Time         `json:"date_from,omitempty"`
	DateTo       *time.Time         `json:"date_to,omitempty"`
}

// ExportJob records an asynchronous contribution-log export request.
type ExportJob struct {
	ID          string          `db:"id" json:"id"`
	RequestedBy string          `db:"requested_by" json:"requested_by"`
	Params      ExportParams    `db:"-" json:"params"`
	RawParams   []byte          `db:"params" json:"-"`
	Status      ExportJobStatus `db:"status" json:"status"`
	FilePath    string          `db:"file_path" json:"-"`
	Error       string          `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	CompletedAt *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}
