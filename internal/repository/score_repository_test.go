package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-grading-api/internal/models"
)

func newScoreRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestScoreRepositoryBulkUpsert(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO assessment_scores").
		WithArgs(sqlmock.AnyArg(), "stud-1", "ww-1", 18.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO assessment_scores").
		WithArgs(sqlmock.AnyArg(), "stud-2", "ww-1", 15.5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	scores := []models.AssessmentScore{
		{StudentID: "stud-1", AssessmentID: "ww-1", Score: 18},
		{StudentID: "stud-2", AssessmentID: "ww-1", Score: 15.5},
	}
	require.NoError(t, repo.BulkUpsert(context.Background(), scores))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryBulkUpsertRollsBack(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO assessment_scores").
		WithArgs(sqlmock.AnyArg(), "stud-1", "ww-1", 18.0, sqlmock.AnyArg()).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.BulkUpsert(context.Background(), []models.AssessmentScore{
		{StudentID: "stud-1", AssessmentID: "ww-1", Score: 18},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryFetchByAssessments(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	rows := sqlmock.NewRows([]string{"id", "student_id", "assessment_id", "score", "updated_at"}).
		AddRow("sc-1", "stud-1", "ww-1", 18.0, time.Now()).
		AddRow("sc-2", "stud-1", "qa-1", 85.0, time.Now()).
		AddRow("sc-3", "stud-2", "ww-1", 12.0, time.Now())
	mock.ExpectQuery("SELECT id, student_id").
		WithArgs("ww-1", "qa-1").
		WillReturnRows(rows)

	result, err := repo.FetchByAssessments(context.Background(), []string{"ww-1", "qa-1"})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, 18.0, result["stud-1"]["ww-1"])
	assert.Equal(t, 85.0, result["stud-1"]["qa-1"])
	assert.Equal(t, 12.0, result["stud-2"]["ww-1"])
}

func TestScoreRepositoryFetchByAssessmentsEmpty(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	result, err := repo.FetchByAssessments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result)
	require.NoError(t, mock.ExpectationsWereMet())
}
