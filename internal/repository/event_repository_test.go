package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voluntrack/voluntrack-api/internal/models"
)

func newEventRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func eventDetailRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "department_id", "date", "location",
		"capacity", "status", "created_by", "created_at", "confirmed_count",
		"department_name", "creator_name",
	}).AddRow("event-1", "Beach Cleanup", "Clearing driftwood and litter", "dept-1", now, "Pier 3",
		20, "SCHEDULED", "coord-1", now, 5, "Logistics", "Grace")
}

func TestEventRepositoryListSearchesDescription(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("(e.title ILIKE $1 OR e.description ILIKE $1 OR e.location ILIKE $1)")).
		WithArgs("%driftwood%").
		WillReturnRows(eventDetailRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("%driftwood%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	events, total, err := repo.List(context.Background(), models.EventFilter{Search: "driftwood"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, events, 1)
	assert.Equal(t, "Beach Cleanup", events[0].Title)
}

func TestEventRepositoryListCombinesFilters(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.status = $1 AND e.created_by = $2")).
		WithArgs(models.EventStatusScheduled, "coord-1").
		WillReturnRows(eventDetailRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(models.EventStatusScheduled, "coord-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	events, total, err := repo.List(context.Background(), models.EventFilter{
		Status:    models.EventStatusScheduled,
		CreatedBy: "coord-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, events, 1)
	assert.Equal(t, "coord-1", events[0].CreatedBy)
}
