package handler

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voluntrack/voluntrack-api/internal/models"
	"github.com/voluntrack/voluntrack-api/internal/service"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
	"github.com/voluntrack/voluntrack-api/pkg/response"
)

// ExportHandler exposes asynchronous contribution export endpoints.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

type exportRequest struct {
	Format       string  `json:"format" binding:"required"`
	Status       string  `json:"status"`
	DepartmentID string  `json:"department_id"`
	DateFrom     *string `json:"date_from"`
	DateTo       *string `json:"date_to"`
}

// Enqueue godoc
// @Summary Request a contribution export
// @Description Queues CSV or PDF generation and returns the job ID for polling
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body exportRequest true "Export parameters"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /logs/export [post]
func (h *ExportHandler) Enqueue(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}

	params := models.ExportParams{
		Format:       models.ExportFormat(strings.ToLower(strings.TrimSpace(req.Format))),
		Status:       models.ContributionStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
		DepartmentID: req.DepartmentID,
	}
	if req.DateFrom != nil {
		from, err := parseDate(*req.DateFrom, "date_from")
		if err != nil {
			response.Error(c, err)
			return
		}
		params.DateFrom = from
	}
	if req.DateTo != nil {
		to, err := parseDate(*req.DateTo, "date_to")
		if err != nil {
			response.Error(c, err)
			return
		}
		params.DateTo = to
	}

	job, err := h.exports.Enqueue(c.Request.Context(), *claims, params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Export job status
// @Description Returns progress and a signed download URL once completed
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /logs/export/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	status, err := h.exports.Status(c.Request.Context(), *claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a rendered export
// @Description Streams the file when the signed token is valid
// @Tags Exports
// @Produce octet-stream
// @Param id path string true "Job ID"
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /logs/export/{id}/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "download token required"))
		return
	}

	file, name, err := h.exports.Download(c.Request.Context(), c.Param("id"), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	contentType := "application/octet-stream"
	switch filepath.Ext(name) {
	case ".csv":
		contentType = "text/csv"
	case ".pdf":
		contentType = "application/pdf"
	}

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(name)+`"`)
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}

func parseDate(raw, name string) (*time.Time, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, name+" must use YYYY-MM-DD")
	}
	return &parsed, nil
}
