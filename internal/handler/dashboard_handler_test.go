package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/voluntrack/voluntrack-api/internal/dto"
	"github.com/voluntrack/voluntrack-api/internal/middleware"
	"github.com/voluntrack/voluntrack-api/internal/models"
)

type fakeDashboardSrv struct {
	resp      *dto.DashboardResponse
	err       error
	hit       bool
	lastActor models.JWTClaims
}

func (f *fakeDashboardSrv) Get(_ context.Context, actor models.JWTClaims) (*dto.DashboardResponse, bool, error) {
	f.lastActor = actor
	return f.resp, f.hit, f.err
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}

func TestDashboardHandlerRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Get(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDashboardSrv{
		resp: &dto.DashboardResponse{
			Role:      models.RoleVolunteer,
			Volunteer: &dto.VolunteerDashboardResponse{MyApprovedHours: 12},
		},
		hit: true,
	}
	handler := NewDashboardHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "vol-1", Role: models.RoleVolunteer})

	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "vol-1", srv.lastActor.UserID)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, "VOLUNTEER", envelope.Data["role"])
}
