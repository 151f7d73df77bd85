package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-grading-api/internal/models"
)

func newReportRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReportRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec("INSERT INTO report_jobs").WillReturnResult(sqlmock.NewResult(1, 1))

	student := "stu-1"
	job := &models.ReportJob{
		Type:      models.ReportTypeReportCard,
		Params:    models.ReportJobParams{TermID: "term-1", Quarter: 1, StudentID: &student, Format: models.ReportFormatPDF},
		CreatedBy: "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	assert.False(t, job.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"id", "type", "params", "status", "result_url", "created_by", "created_at", "finished_at", "error_message"}).
		AddRow("job-1", string(models.ReportTypeAdvisoryBoard), []byte(`{}`), string(models.ReportStatusFinished), "/api/v1/export/tok", "user-1", time.Now(), time.Now(), nil)
	mock.ExpectQuery("SELECT id, type, params").
		WithArgs("job-1").
		WillReturnRows(rows)

	job, err := repo.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, job.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	status := models.ReportStatusFinished
	url := "/api/v1/export/tok"
	finished := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_jobs SET status = $1, result_url = $2, finished_at = $3 WHERE id = $4")).
		WithArgs(string(status), url, finished, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", UpdateReportJobParams{
		Status:     &status,
		ResultURL:  &url,
		FinishedAt: &finished,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateNoFields(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateReportJobParams{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListQueued(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"id", "type", "params", "status", "result_url", "created_by", "created_at", "finished_at", "error_message"}).
		AddRow("job-1", string(models.ReportTypeReportCard), []byte(`{}`), string(models.ReportStatusQueued), nil, "user-1", time.Now(), nil, nil)
	mock.ExpectQuery("SELECT id, type, params").
		WithArgs(20).
		WillReturnRows(rows)

	jobs, err := repo.ListQueued(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
