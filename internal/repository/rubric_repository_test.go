package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-grading-api/internal/models"
)

func newRubricRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestRubricRepositoryFindBySubject(t *testing.T) {
	db, mock, cleanup := newRubricRepoMock(t)
	defer cleanup()

	repo := NewRubricRepository(db)
	rows := sqlmock.NewRows([]string{"id", "subject_id", "ww_weight", "pt_weight", "qa_weight", "updated_at"}).
		AddRow("rub-1", "subj-1", 30, 50, 20, time.Now())
	mock.ExpectQuery("SELECT id, subject_id").
		WithArgs("subj-1").
		WillReturnRows(rows)

	rubric, err := repo.FindBySubject(context.Background(), "subj-1")
	require.NoError(t, err)
	assert.Equal(t, 30, rubric.WrittenWork)
	assert.Equal(t, 50, rubric.PerformanceTask)
	assert.Equal(t, 20, rubric.QuarterlyAssessment)
}

func TestRubricRepositoryFindBySubjectMissing(t *testing.T) {
	db, mock, cleanup := newRubricRepoMock(t)
	defer cleanup()

	repo := NewRubricRepository(db)
	mock.ExpectQuery("SELECT id, subject_id").
		WithArgs("subj-unknown").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindBySubject(context.Background(), "subj-unknown")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRubricRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRubricRepoMock(t)
	defer cleanup()

	repo := NewRubricRepository(db)
	mock.ExpectExec("INSERT INTO grade_rubrics").
		WithArgs(sqlmock.AnyArg(), "subj-1", 30, 50, 20, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rubric := &models.GradeRubric{SubjectID: "subj-1", WrittenWork: 30, PerformanceTask: 50, QuarterlyAssessment: 20}
	require.NoError(t, repo.Upsert(context.Background(), rubric))
	assert.NotEmpty(t, rubric.ID)
}
