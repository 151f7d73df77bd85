package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-grading-api/internal/models"
	appErrors "github.com/noah-isme/sis-grading-api/pkg/errors"
)

type mockAssessmentReader struct {
	assessments []models.Assessment
}

func (m *mockAssessmentReader) ListByAssignmentQuarter(ctx context.Context, assignmentID string, quarter int) ([]models.Assessment, error) {
	return m.assessments, nil
}

type mockScoreStore struct {
	upserted []models.AssessmentScore
	scores   map[string]map[string]float64
}

func (m *mockScoreStore) BulkUpsert(ctx context.Context, scores []models.AssessmentScore) error {
	m.upserted = append(m.upserted, scores...)
	if m.scores == nil {
		m.scores = make(map[string]map[string]float64)
	}
	for _, s := range scores {
		if m.scores[s.StudentID] == nil {
			m.scores[s.StudentID] = make(map[string]float64)
		}
		m.scores[s.StudentID][s.AssessmentID] = s.Score
	}
	return nil
}

func (m *mockScoreStore) FetchByAssessments(ctx context.Context, assessmentIDs []string) (map[string]map[string]float64, error) {
	return m.scores, nil
}

type mockFinalGradeStore struct {
	finals map[string]models.FinalGrade
}

func (m *mockFinalGradeStore) Upsert(ctx context.Context, finals []models.FinalGrade) error {
	if m.finals == nil {
		m.finals = make(map[string]models.FinalGrade)
	}
	for _, f := range finals {
		m.finals[f.EnrollmentID] = f
	}
	return nil
}

func (m *mockFinalGradeStore) FetchByEnrollments(ctx context.Context, enrollmentIDs []string, assignmentID string, quarter int) (map[string]models.FinalGrade, error) {
	result := make(map[string]models.FinalGrade)
	for _, id := range enrollmentIDs {
		if f, ok := m.finals[id]; ok {
			result[id] = f
		}
	}
	return result, nil
}

func (m *mockFinalGradeStore) ReportCard(ctx context.Context, studentID, termID string, quarter int) ([]models.SubjectGradeRow, error) {
	return nil, nil
}

type mockEnrollmentLister struct {
	enrollments []models.Enrollment
}

func (m *mockEnrollmentLister) ListActiveByClassAndTerm(ctx context.Context, classID, termID string) ([]models.Enrollment, error) {
	return m.enrollments, nil
}

type mockAssignmentReader struct {
	assignment *models.TeacherAssignment
}

func (m *mockAssignmentReader) FindByID(ctx context.Context, id string) (*models.TeacherAssignment, error) {
	return m.assignment, nil
}

type staticRubricResolver struct {
	rubric models.GradeRubric
}

func (r *staticRubricResolver) Resolve(ctx context.Context, subjectID string) (models.GradeRubric, error) {
	return r.rubric, nil
}

type mockStudentReaderSvc struct {
	students map[string]models.Student
}

func (m *mockStudentReaderSvc) FindByID(ctx context.Context, id string) (*models.Student, error) {
	s, ok := m.students[id]
	if !ok {
		return nil, assert.AnError
	}
	return &s, nil
}

func (m *mockStudentReaderSvc) FindByIDs(ctx context.Context, ids []string) (map[string]models.Student, error) {
	return m.students, nil
}

func newTestGradeService(assessments *mockAssessmentReader, scores *mockScoreStore, finals *mockFinalGradeStore, enrollments *mockEnrollmentLister) *GradeService {
	return NewGradeService(
		assessments,
		scores,
		finals,
		enrollments,
		&mockAssignmentReader{assignment: &models.TeacherAssignment{ID: "ta-1", ClassID: "class-1", SubjectID: "subj-1", TermID: "term-1"}},
		&staticRubricResolver{rubric: models.DefaultRubric},
		&mockStudentReaderSvc{students: map[string]models.Student{
			"stud-1": {ID: "stud-1", FullName: "Dela Cruz, Juan"},
			"stud-2": {ID: "stud-2", FullName: "Santos, Maria"},
		}},
		nil, nil, nil, nil,
	)
}

func TestGradeServiceSaveScores(t *testing.T) {
	ctx := context.Background()
	assessments := []models.Assessment{
		{ID: "ww1", Component: models.ComponentWrittenWork, MaxScore: 60},
		{ID: "qa1", Component: models.ComponentQuarterlyAssessment, MaxScore: 100},
	}
	enrollments := []models.Enrollment{
		{ID: "enr-1", StudentID: "stud-1", ClassID: "class-1", TermID: "term-1", Status: models.EnrollmentStatusActive},
		{ID: "enr-2", StudentID: "stud-2", ClassID: "class-1", TermID: "term-1", Status: models.EnrollmentStatusActive},
	}

	t.Run("draft save posts unlocked grades for every active enrollment", func(t *testing.T) {
		finals := &mockFinalGradeStore{}
		svc := newTestGradeService(&mockAssessmentReader{assessments: assessments}, &mockScoreStore{}, finals, &mockEnrollmentLister{enrollments: enrollments})

		result, err := svc.SaveScores(ctx, SaveScoresRequest{
			AssignmentID: "ta-1",
			Quarter:      1,
			SaveMode:     SaveModeDraft,
			Scores: []ScoreRow{
				{StudentID: "stud-1", AssessmentID: "ww1", Score: 54},
				{StudentID: "stud-1", AssessmentID: "qa1", Score: 85},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, result.ScoresUpserted)
		assert.Equal(t, 2, result.GradesPosted)
		assert.Zero(t, result.LockedSkipped)

		require.Len(t, finals.finals, 2)
		// 54/60 = 90% of WW (contributes 36 of 40) plus 85% of QA weight 20.
		assert.InDelta(t, 53.0, finals.finals["enr-1"].Grade, 0.001)
		assert.Equal(t, models.LockStateDraft, finals.finals["enr-1"].LockState)
		// No scores at all still posts a zero grade for the enrollment.
		assert.Zero(t, finals.finals["enr-2"].Grade)
	})

	t.Run("submitted save locks posted grades", func(t *testing.T) {
		finals := &mockFinalGradeStore{}
		svc := newTestGradeService(&mockAssessmentReader{assessments: assessments}, &mockScoreStore{}, finals, &mockEnrollmentLister{enrollments: enrollments})

		_, err := svc.SaveScores(ctx, SaveScoresRequest{
			AssignmentID: "ta-1",
			Quarter:      1,
			SaveMode:     SaveModeSubmitted,
			Scores:       []ScoreRow{{StudentID: "stud-1", AssessmentID: "qa1", Score: 90}},
		})
		require.NoError(t, err)
		assert.Equal(t, models.LockStateLocked, finals.finals["enr-1"].LockState)
		assert.Equal(t, models.LockStateLocked, finals.finals["enr-2"].LockState)
	})

	t.Run("locked rows are skipped and never change", func(t *testing.T) {
		finals := &mockFinalGradeStore{finals: map[string]models.FinalGrade{
			"enr-1": {ID: "fg-1", EnrollmentID: "enr-1", Grade: 88.33, LockState: models.LockStateLocked},
		}}
		svc := newTestGradeService(&mockAssessmentReader{assessments: assessments}, &mockScoreStore{}, finals, &mockEnrollmentLister{enrollments: enrollments})

		result, err := svc.SaveScores(ctx, SaveScoresRequest{
			AssignmentID: "ta-1",
			Quarter:      1,
			SaveMode:     SaveModeSubmitted,
			Scores:       []ScoreRow{{StudentID: "stud-1", AssessmentID: "qa1", Score: 10}},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.LockedSkipped)
		assert.Equal(t, 1, result.GradesPosted)
		assert.InDelta(t, 88.33, finals.finals["enr-1"].Grade, 0.001)
		assert.Equal(t, models.LockStateLocked, finals.finals["enr-1"].LockState)
	})

	t.Run("scores above max are clamped at write time", func(t *testing.T) {
		scores := &mockScoreStore{}
		svc := newTestGradeService(&mockAssessmentReader{assessments: assessments}, scores, &mockFinalGradeStore{}, &mockEnrollmentLister{enrollments: enrollments})

		_, err := svc.SaveScores(ctx, SaveScoresRequest{
			AssignmentID: "ta-1",
			Quarter:      1,
			SaveMode:     SaveModeDraft,
			Scores: []ScoreRow{
				{StudentID: "stud-1", AssessmentID: "ww1", Score: 120},
				{StudentID: "stud-1", AssessmentID: "qa1", Score: -4},
			},
		})
		require.NoError(t, err)
		require.Len(t, scores.upserted, 2)
		assert.Equal(t, 60.0, scores.upserted[0].Score)
		assert.Equal(t, 0.0, scores.upserted[1].Score)
	})

	t.Run("no assessments fails with empty operation", func(t *testing.T) {
		scores := &mockScoreStore{}
		svc := newTestGradeService(&mockAssessmentReader{}, scores, &mockFinalGradeStore{}, &mockEnrollmentLister{enrollments: enrollments})

		_, err := svc.SaveScores(ctx, SaveScoresRequest{
			AssignmentID: "ta-1",
			Quarter:      1,
			SaveMode:     SaveModeDraft,
			Scores:       []ScoreRow{{StudentID: "stud-1", AssessmentID: "ww1", Score: 10}},
		})
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrEmptyOperation.Code, appErr.Code)
		assert.Empty(t, scores.upserted)
	})

	t.Run("unknown assessment is rejected before any write", func(t *testing.T) {
		scores := &mockScoreStore{}
		svc := newTestGradeService(&mockAssessmentReader{assessments: assessments}, scores, &mockFinalGradeStore{}, &mockEnrollmentLister{enrollments: enrollments})

		_, err := svc.SaveScores(ctx, SaveScoresRequest{
			AssignmentID: "ta-1",
			Quarter:      1,
			SaveMode:     SaveModeDraft,
			Scores:       []ScoreRow{{StudentID: "stud-1", AssessmentID: "other", Score: 10}},
		})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		assert.Empty(t, scores.upserted)
	})

	t.Run("invalid save mode fails validation", func(t *testing.T) {
		svc := newTestGradeService(&mockAssessmentReader{assessments: assessments}, &mockScoreStore{}, &mockFinalGradeStore{}, &mockEnrollmentLister{enrollments: enrollments})
		_, err := svc.SaveScores(ctx, SaveScoresRequest{AssignmentID: "ta-1", Quarter: 1, SaveMode: "finalize"})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})
}

func TestGradeServicePreview(t *testing.T) {
	ctx := context.Background()
	assessments := []models.Assessment{
		{ID: "qa1", Component: models.ComponentQuarterlyAssessment, MaxScore: 100},
	}
	enrollments := []models.Enrollment{
		{ID: "enr-1", StudentID: "stud-1", Status: models.EnrollmentStatusActive},
	}

	t.Run("computes without writing", func(t *testing.T) {
		finals := &mockFinalGradeStore{}
		scores := &mockScoreStore{scores: map[string]map[string]float64{
			"stud-1": {"qa1": 85},
		}}
		svc := newTestGradeService(&mockAssessmentReader{assessments: assessments}, scores, finals, &mockEnrollmentLister{enrollments: enrollments})

		preview, err := svc.Preview(ctx, "ta-1", 1)
		require.NoError(t, err)
		require.Len(t, preview.Rows, 1)
		assert.Equal(t, "Dela Cruz, Juan", preview.Rows[0].StudentName)
		assert.InDelta(t, 17.0, preview.Rows[0].Grade, 0.001)
		assert.Empty(t, finals.finals)
		assert.Empty(t, scores.upserted)
	})

	t.Run("rejects out of range quarter", func(t *testing.T) {
		svc := newTestGradeService(&mockAssessmentReader{assessments: assessments}, &mockScoreStore{}, &mockFinalGradeStore{}, &mockEnrollmentLister{})
		_, err := svc.Preview(ctx, "ta-1", 5)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})
}
