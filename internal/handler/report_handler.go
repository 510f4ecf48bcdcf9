package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voluntrack/voluntrack-api/internal/middleware"
	"github.com/voluntrack/voluntrack-api/internal/service"
	"github.com/voluntrack/voluntrack-api/pkg/response"
)

// ReportHandler exposes aggregated reporting endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Get godoc
// @Summary Participation reports
// @Description Top volunteers, department statistics and approved-hours totals for an optional date window
// @Tags Reports
// @Produce json
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) Get(c *gin.Context) {
	from, err := parseDateQuery(c, "date_from")
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := parseDateQuery(c, "date_to")
	if err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	report, cacheHit, err := h.reports.Get(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, report, nil, meta)
}
