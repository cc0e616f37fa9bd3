package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSessionRepositoryFindActiveByTenant(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "tenant_id", "name", "start_date", "end_date", "is_active", "created_at", "updated_at"}).
		AddRow("ses-1", "ten-1", "2025-26", now, now.AddDate(1, 0, 0), true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, tenant_id, name, start_date, end_date, is_active, created_at, updated_at FROM academic_sessions WHERE tenant_id = $1 AND is_active = TRUE LIMIT 1")).
		WithArgs("ten-1").
		WillReturnRows(rows)

	session, err := repo.FindActiveByTenant(context.Background(), "ten-1")
	require.NoError(t, err)
	require.Equal(t, "ses-1", session.ID)
	require.True(t, session.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositorySubPeriodBounds(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	termStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	holidayEnd := time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT MIN(start_date) AS start_date, MAX(end_date) AS end_date FROM (")).
		WithArgs("ses-1").
		WillReturnRows(sqlmock.NewRows([]string{"start_date", "end_date"}).AddRow(termStart, holidayEnd))

	bounds, err := repo.SubPeriodBounds(context.Background(), "ses-1")
	require.NoError(t, err)
	require.NotNil(t, bounds)
	require.Equal(t, termStart, bounds.Start)
	require.Equal(t, holidayEnd, bounds.End)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositorySubPeriodBoundsEmptySession(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT MIN(start_date) AS start_date, MAX(end_date) AS end_date FROM (")).
		WithArgs("empty").
		WillReturnRows(sqlmock.NewRows([]string{"start_date", "end_date"}).AddRow(nil, nil))

	bounds, err := repo.SubPeriodBounds(context.Background(), "empty")
	require.NoError(t, err)
	require.Nil(t, bounds)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryActivateRunsBothWritesInOneTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_sessions SET is_active = FALSE, updated_at = $1 WHERE tenant_id = $2 AND is_active = TRUE AND id <> $3")).
		WithArgs(sqlmock.AnyArg(), "ten-1", "ses-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_sessions SET is_active = TRUE, updated_at = $1 WHERE id = $2 AND tenant_id = $3")).
		WithArgs(sqlmock.AnyArg(), "ses-2", "ten-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Activate(context.Background(), "ten-1", "ses-2")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryActivateUnknownSessionRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_sessions SET is_active = FALSE")).
		WithArgs(sqlmock.AnyArg(), "ten-1", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_sessions SET is_active = TRUE")).
		WithArgs(sqlmock.AnyArg(), "missing", "ten-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Activate(context.Background(), "ten-1", "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
