package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voluntrack/voluntrack-api/internal/service"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
	"github.com/voluntrack/voluntrack-api/pkg/response"
)

// ApprovalHandler exposes the contribution review queue for
// coordinators and admins.
type ApprovalHandler struct {
	contributions *service.ContributionService
}

// NewApprovalHandler constructs ApprovalHandler.
func NewApprovalHandler(contributions *service.ContributionService) *ApprovalHandler {
	return &ApprovalHandler{contributions: contributions}
}

// List godoc
// @Summary Review queue
// @Description Contributions scoped by department with per-status counts
// @Tags Approvals
// @Produce json
// @Param department query string false "Department scope: mine, all or an ID"
// @Param status query string false "Filter by review status (default PENDING)"
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /approvals [get]
func (h *ApprovalHandler) List(c *gin.Context) {
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

	res, err := h.contributions.ListForReview(c.Request.Context(), *claims, c.Query("department"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, &res.Pagination)
}

// Approve godoc
// @Summary Approve a pending contribution
// @Tags Approvals
// @Produce json
// @Param id path string true "Contribution ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/{id}/approve [post]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	contribution, err := h.contributions.Approve(c.Request.Context(), *claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contribution, nil)
}

// Reject godoc
// @Summary Reject a pending contribution
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Contribution ID"
// @Param payload body service.RejectContributionRequest false "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/{id}/reject [post]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.RejectContributionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rejection payload"))
			return
		}
	}

	contribution, err := h.contributions.Reject(c.Request.Context(), *claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contribution, nil)
}
