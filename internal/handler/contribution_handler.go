package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voluntrack/voluntrack-api/internal/models"
	"github.com/voluntrack/voluntrack-api/internal/service"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
	"github.com/voluntrack/voluntrack-api/pkg/response"
)

const dateLayout = "2006-01-02"

// ContributionHandler exposes contribution log endpoints.
type ContributionHandler struct {
	contributions *service.ContributionService
}

// NewContributionHandler constructs ContributionHandler.
func NewContributionHandler(contributions *service.ContributionService) *ContributionHandler {
	return &ContributionHandler{contributions: contributions}
}

func parseDateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, name+" must use YYYY-MM-DD")
	}
	return &parsed, nil
}

func contributionFilterFromQuery(c *gin.Context) (models.ContributionFilter, error) {
	var filter models.ContributionFilter
	filter.Status = models.ContributionStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	if from, err := parseDateQuery(c, "date_from"); err != nil {
		return filter, err
	} else {
		filter.DateFrom = from
	}
	if to, err := parseDateQuery(c, "date_to"); err != nil {
		return filter, err
	} else {
		filter.DateTo = to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "25")); err == nil {
		filter.PageSize = size
	}
	return filter, nil
}

// Create godoc
// @Summary Log a contribution
// @Description Volunteers must hold a confirmed signup when logging against an event
// @Tags Contributions
// @Accept json
// @Produce json
// @Param payload body service.CreateContributionRequest true "Contribution payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /logs [post]
func (h *ContributionHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid contribution payload"))
		return
	}

	contribution, err := h.contributions.Create(c.Request.Context(), *claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, contribution)
}

// ListMine godoc
// @Summary List own contributions
// @Tags Contributions
// @Produce json
// @Param status query string false "Filter by review status"
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /logs [get]
func (h *ContributionHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter, err := contributionFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	items, pagination, err := h.contributions.ListMine(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Contribution detail
// @Description Volunteers can only read their own contributions
// @Tags Contributions
// @Produce json
// @Param id path string true "Contribution ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /logs/{id} [get]
func (h *ContributionHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	contribution, err := h.contributions.Get(c.Request.Context(), *claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contribution, nil)
}

// CorrectStatus godoc
// @Summary Correct a contribution's review status
// @Description Administrative override that can move a contribution to any state
// @Tags Contributions
// @Accept json
// @Produce json
// @Param id path string true "Contribution ID"
// @Param payload body service.CorrectStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /logs/{id}/status [patch]
func (h *ContributionHandler) CorrectStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CorrectStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	contribution, err := h.contributions.CorrectStatus(c.Request.Context(), *claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contribution, nil)
}
