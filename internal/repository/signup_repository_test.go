package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voluntrack/voluntrack-api/internal/models"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
)

func newSignupRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
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

func TestSignupRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSignupRepoMock(t)
	defer cleanup()
	repo := NewSignupRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity, status FROM events WHERE id = $1 FOR UPDATE")).
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "status"}).AddRow(10, "SCHEDULED"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM signups WHERE event_id = $1 AND status = 'CONFIRMED'")).
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM signups WHERE event_id = $1 AND user_id = $2 AND status = 'CONFIRMED'")).
		WithArgs("event-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO signups")).
		WithArgs(sqlmock.AnyArg(), "user-1", "event-1", "CONFIRMED", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	signup, err := repo.Create(context.Background(), "user-1", "event-1")
	require.NoError(t, err)
	require.NotNil(t, signup)
	assert.Equal(t, models.SignupStatusConfirmed, signup.Status)
	assert.NotEmpty(t, signup.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupRepositoryCreateFull(t *testing.T) {
	db, mock, cleanup := newSignupRepoMock(t)
	defer cleanup()
	repo := NewSignupRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "status"}).AddRow(5, "SCHEDULED"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM signups WHERE event_id = $1 AND status = 'CONFIRMED'")).
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectRollback()

	signup, err := repo.Create(context.Background(), "user-1", "event-1")
	require.Error(t, err)
	assert.Nil(t, signup)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
}

func TestSignupRepositoryCreateZeroCapacity(t *testing.T) {
	db, mock, cleanup := newSignupRepoMock(t)
	defer cleanup()
	repo := NewSignupRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "status"}).AddRow(0, "SCHEDULED"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM signups WHERE event_id = $1 AND status = 'CONFIRMED'")).
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), "user-1", "event-1")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
}

func TestSignupRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newSignupRepoMock(t)
	defer cleanup()
	repo := NewSignupRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "status"}).AddRow(10, "SCHEDULED"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM signups WHERE event_id = $1 AND status = 'CONFIRMED'")).
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM signups WHERE event_id = $1 AND user_id = $2 AND status = 'CONFIRMED'")).
		WithArgs("event-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), "user-1", "event-1")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrDuplicateSignup.Code, appErr.Code)
}

func TestSignupRepositoryCreateNotScheduled(t *testing.T) {
	db, mock, cleanup := newSignupRepoMock(t)
	defer cleanup()
	repo := NewSignupRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "status"}).AddRow(10, "CANCELLED"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), "user-1", "event-1")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestSignupRepositoryCancel(t *testing.T) {
	db, mock, cleanup := newSignupRepoMock(t)
	defer cleanup()
	repo := NewSignupRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE signups SET status = 'CANCELLED'")).
		WithArgs("user-1", "event-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Cancel(context.Background(), "user-1", "event-1")
	require.NoError(t, err)
}

func TestSignupRepositoryCancelMissing(t *testing.T) {
	db, mock, cleanup := newSignupRepoMock(t)
	defer cleanup()
	repo := NewSignupRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE signups SET status = 'CANCELLED'")).
		WithArgs("user-1", "event-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Cancel(context.Background(), "user-1", "event-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
