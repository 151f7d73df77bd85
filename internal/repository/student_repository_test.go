package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStudentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "lrn", "full_name", "gender", "birth_date", "active", "created_at", "updated_at"}).
		AddRow("stu-1", "108000000001", "Dela Cruz, Juan", "M", now, true, now, now)
	mock.ExpectQuery("SELECT id, lrn, full_name").
		WithArgs("stu-1").
		WillReturnRows(rows)

	student, err := repo.FindByID(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "Dela Cruz, Juan", student.FullName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDs(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "lrn", "full_name", "gender", "birth_date", "active", "created_at", "updated_at"}).
		AddRow("stu-1", "108000000001", "Dela Cruz, Juan", "M", now, true, now, now).
		AddRow("stu-2", "108000000002", "Santos, Maria", "F", now, true, now, now)
	mock.ExpectQuery("SELECT id, lrn, full_name").
		WithArgs("stu-1", "stu-2").
		WillReturnRows(rows)

	students, err := repo.FindByIDs(context.Background(), []string{"stu-1", "stu-2"})
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Santos, Maria", students["stu-2"].FullName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDsEmpty(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	students, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, students)
	require.NoError(t, mock.ExpectationsWereMet())
}
