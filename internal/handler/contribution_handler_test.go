package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voluntrack/voluntrack-api/internal/models"
)

func testContextWithQuery(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/logs?"+rawQuery, nil)
	return c
}

func TestContributionFilterFromQuery(t *testing.T) {
	c := testContextWithQuery(t, "status=approved&date_from=2026-01-01&date_to=2026-01-31&page=2&limit=10")

	filter, err := contributionFilterFromQuery(c)
	require.NoError(t, err)
	assert.Equal(t, models.ContributionStatus("APPROVED"), filter.Status)
	require.NotNil(t, filter.DateFrom)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *filter.DateFrom)
	require.NotNil(t, filter.DateTo)
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, 10, filter.PageSize)
}

func TestContributionFilterRejectsBadDate(t *testing.T) {
	c := testContextWithQuery(t, "date_from=01-02-2026")

	_, err := contributionFilterFromQuery(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestContributionFilterDefaults(t *testing.T) {
	c := testContextWithQuery(t, "")

	filter, err := contributionFilterFromQuery(c)
	require.NoError(t, err)
	assert.Empty(t, string(filter.Status))
	assert.Nil(t, filter.DateFrom)
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, 25, filter.PageSize)
}
