package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-grading-api/internal/models"
	appErrors "github.com/noah-isme/sis-grading-api/pkg/errors"
)

type mockAssessmentStore struct {
	assessments map[string]models.Assessment
	scored      map[string]bool
	deleted     []string
}

func (m *mockAssessmentStore) ListByAssignmentQuarter(ctx context.Context, assignmentID string, quarter int) ([]models.Assessment, error) {
	var result []models.Assessment
	for _, a := range m.assessments {
		if a.AssignmentID == assignmentID && a.Quarter == quarter {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockAssessmentStore) FindByID(ctx context.Context, id string) (*models.Assessment, error) {
	a, ok := m.assessments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (m *mockAssessmentStore) Create(ctx context.Context, assessment *models.Assessment) error {
	if m.assessments == nil {
		m.assessments = make(map[string]models.Assessment)
	}
	m.assessments[assessment.ID] = *assessment
	return nil
}

func (m *mockAssessmentStore) Update(ctx context.Context, assessment *models.Assessment) error {
	m.assessments[assessment.ID] = *assessment
	return nil
}

func (m *mockAssessmentStore) Delete(ctx context.Context, id string) error {
	delete(m.assessments, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockAssessmentStore) HasScores(ctx context.Context, id string) (bool, error) {
	return m.scored[id], nil
}

func newTestAssessmentService(store *mockAssessmentStore) *AssessmentService {
	return NewAssessmentService(
		store,
		&mockAssignmentReader{assignment: &models.TeacherAssignment{ID: "ta-1", ClassID: "class-1", SubjectID: "subj-1", TermID: "term-1"}},
		nil, nil,
	)
}

func TestAssessmentServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("registers a new activity", func(t *testing.T) {
		store := &mockAssessmentStore{}
		svc := newTestAssessmentService(store)

		assessment, err := svc.Create(ctx, CreateAssessmentRequest{
			AssignmentID: "ta-1", Quarter: 1, Component: "WW", Title: "Quiz 1", MaxScore: 20,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, assessment.ID)
		assert.Equal(t, models.ComponentWrittenWork, assessment.Component)
		assert.Contains(t, store.assessments, assessment.ID)
	})

	t.Run("rejects unknown component", func(t *testing.T) {
		svc := newTestAssessmentService(&mockAssessmentStore{})
		_, err := svc.Create(ctx, CreateAssessmentRequest{
			AssignmentID: "ta-1", Quarter: 1, Component: "EXAM", Title: "Quiz 1", MaxScore: 20,
		})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})

	t.Run("rejects non positive max score", func(t *testing.T) {
		svc := newTestAssessmentService(&mockAssessmentStore{})
		_, err := svc.Create(ctx, CreateAssessmentRequest{
			AssignmentID: "ta-1", Quarter: 1, Component: "WW", Title: "Quiz 1", MaxScore: 0,
		})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})

	t.Run("rejects quarter out of range", func(t *testing.T) {
		svc := newTestAssessmentService(&mockAssessmentStore{})
		_, err := svc.Create(ctx, CreateAssessmentRequest{
			AssignmentID: "ta-1", Quarter: 5, Component: "WW", Title: "Quiz 1", MaxScore: 20,
		})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})
}

func TestAssessmentServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes an unscored activity", func(t *testing.T) {
		store := &mockAssessmentStore{assessments: map[string]models.Assessment{
			"a-1": {ID: "a-1", AssignmentID: "ta-1", Quarter: 1},
		}}
		svc := newTestAssessmentService(store)

		require.NoError(t, svc.Delete(ctx, "a-1"))
		assert.Contains(t, store.deleted, "a-1")
	})

	t.Run("refuses once scores exist", func(t *testing.T) {
		store := &mockAssessmentStore{
			assessments: map[string]models.Assessment{"a-1": {ID: "a-1", AssignmentID: "ta-1", Quarter: 1}},
			scored:      map[string]bool{"a-1": true},
		}
		svc := newTestAssessmentService(store)

		err := svc.Delete(ctx, "a-1")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
		assert.Contains(t, store.assessments, "a-1")
	})

	t.Run("unknown activity", func(t *testing.T) {
		svc := newTestAssessmentService(&mockAssessmentStore{})
		err := svc.Delete(ctx, "missing")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	})
}

func TestAssessmentServiceUpdate(t *testing.T) {
	ctx := context.Background()
	store := &mockAssessmentStore{assessments: map[string]models.Assessment{
		"a-1": {ID: "a-1", AssignmentID: "ta-1", Quarter: 1, Component: models.ComponentWrittenWork, Title: "Quiz 1", MaxScore: 20},
	}}
	svc := newTestAssessmentService(store)

	updated, err := svc.Update(ctx, "a-1", UpdateAssessmentRequest{Title: "Quiz 1 (moved)", MaxScore: 25})
	require.NoError(t, err)
	assert.Equal(t, "Quiz 1 (moved)", updated.Title)
	assert.Equal(t, 25.0, updated.MaxScore)
	// Component stays fixed after creation.
	assert.Equal(t, models.ComponentWrittenWork, updated.Component)
}
