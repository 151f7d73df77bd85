package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-grading-api/internal/models"
)

func newEnrollmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryListActiveByClassAndTerm(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "class_id", "term_id", "joined_at", "left_at", "status", "needs_remediation"}).
		AddRow("enr-1", "stu-1", "class-1", "term-1", time.Now(), nil, models.EnrollmentStatusActive, false).
		AddRow("enr-2", "stu-2", "class-1", "term-1", time.Now(), nil, models.EnrollmentStatusActive, true)
	mock.ExpectQuery("SELECT id, student_id, class_id, term_id").
		WithArgs("class-1", "term-1", models.EnrollmentStatusActive).
		WillReturnRows(rows)

	enrollments, err := repo.ListActiveByClassAndTerm(context.Background(), "class-1", "term-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	require.True(t, enrollments[1].NeedsRemediation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindActiveByStudentAndTerm(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "class_id", "term_id", "joined_at", "left_at", "status", "needs_remediation"}).
		AddRow("enr-1", "stu-1", "class-1", "term-1", time.Now(), nil, models.EnrollmentStatusActive, false)
	mock.ExpectQuery("SELECT id, student_id, class_id, term_id").
		WithArgs("stu-1", "term-1", models.EnrollmentStatusActive).
		WillReturnRows(rows)

	enrollments, err := repo.FindActiveByStudentAndTerm(context.Background(), "stu-1", "term-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySetNeedsRemediation(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET needs_remediation = $2 WHERE id = $1")).
		WithArgs("enr-1", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetNeedsRemediation(context.Background(), "enr-1", true))
	require.NoError(t, mock.ExpectationsWereMet())
}
