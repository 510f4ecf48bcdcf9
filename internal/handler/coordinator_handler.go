package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/voluntrack/voluntrack-api/internal/models"
	"github.com/voluntrack/voluntrack-api/internal/service"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
	"github.com/voluntrack/voluntrack-api/pkg/response"
)

// CoordinatorHandler exposes admin endpoints for user and role
// management.
type CoordinatorHandler struct {
	coordinators *service.CoordinatorService
}

// NewCoordinatorHandler constructs CoordinatorHandler.
func NewCoordinatorHandler(coordinators *service.CoordinatorService) *CoordinatorHandler {
	return &CoordinatorHandler{coordinators: coordinators}
}

// ListUsers godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param role query string false "Filter by role"
// @Param department query string false "Filter by department ID"
// @Param search query string false "Search name or email"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /users [get]
func (h *CoordinatorHandler) ListUsers(c *gin.Context) {
	var filter models.UserFilter
	if role := strings.ToUpper(strings.TrimSpace(c.Query("role"))); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	filter.DepartmentID = c.Query("department")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "25")); err == nil {
		filter.PageSize = size
	}

	users, pagination, err := h.coordinators.ListUsers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Promote godoc
// @Summary Promote a volunteer to coordinator
// @Description Adopts the actor's department when the target has none
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/{id}/promote [post]
func (h *CoordinatorHandler) Promote(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	user, err := h.coordinators.Promote(c.Request.Context(), *claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Demote godoc
// @Summary Demote a coordinator to volunteer
// @Description Refused when the target is the last coordinator of a department with scheduled events
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/{id}/demote [post]
func (h *CoordinatorHandler) Demote(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	user, err := h.coordinators.Demote(c.Request.Context(), *claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
