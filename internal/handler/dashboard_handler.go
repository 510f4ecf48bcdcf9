package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voluntrack/voluntrack-api/internal/dto"
	"github.com/voluntrack/voluntrack-api/internal/middleware"
	"github.com/voluntrack/voluntrack-api/internal/models"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
	"github.com/voluntrack/voluntrack-api/pkg/response"
)

type dashboardService interface {
	Get(ctx context.Context, actor models.JWTClaims) (*dto.DashboardResponse, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Get godoc
// @Summary Role-aware dashboard summary
// @Description Coordinators and admins receive the review-centric branch, volunteers the personal branch
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	start := time.Now()
	summary, cacheHit, err := h.service.Get(c.Request.Context(), *claims)
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
	response.JSON(c, http.StatusOK, summary, nil, meta)
}
