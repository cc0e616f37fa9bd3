package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/shikshahub/shiksha-api/internal/models"
)

func TestAdmissionRepositoryDecideApprovedAssignsSchool(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_admissions SET status = $1")).
		WithArgs(models.AdmissionStatusApproved, "looks good", sqlmock.AnyArg(), "adm-user", "adm-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET school_id =")).
		WithArgs("adm-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Decide(context.Background(), "adm-1", models.AdmissionStatusApproved, "adm-user", "looks good")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionRepositoryDecideRejectedSkipsStudentWrite(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_admissions SET status = $1")).
		WithArgs(models.AdmissionStatusRejected, "no seats", sqlmock.AnyArg(), "adm-user", "adm-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Decide(context.Background(), "adm-2", models.AdmissionStatusRejected, "adm-user", "no seats")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionRepositoryExistsPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	rows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM student_admissions WHERE student_id = $1 AND school_id = $2 AND status = $3")).
		WithArgs("stu-1", "sch-1", models.AdmissionStatusPending).
		WillReturnRows(rows)

	exists, err := repo.ExistsPending(context.Background(), "stu-1", "sch-1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}
