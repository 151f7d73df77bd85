package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-grading-api/internal/models"
	appErrors "github.com/noah-isme/sis-grading-api/pkg/errors"
)

type mockRemedialStore struct {
	records  map[string]models.RemedialRecord
	upserted []models.RemedialRecord
}

func (m *mockRemedialStore) ListByStudentTerm(ctx context.Context, studentID, termID string) ([]models.RemedialRecord, error) {
	var result []models.RemedialRecord
	for _, r := range m.records {
		result = append(result, r)
	}
	return result, nil
}

func (m *mockRemedialStore) Upsert(ctx context.Context, records []models.RemedialRecord) error {
	if m.records == nil {
		m.records = make(map[string]models.RemedialRecord)
	}
	m.upserted = append(m.upserted, records...)
	for _, r := range records {
		m.records[r.SubjectID] = r
	}
	return nil
}

type mockFailingGradeReader struct {
	rows        []models.SubjectGradeRow
	lastQuarter int
}

func (m *mockFailingGradeReader) FailingFinals(ctx context.Context, studentID, termID string, quarter int, threshold float64) ([]models.SubjectGradeRow, error) {
	m.lastQuarter = quarter
	return m.rows, nil
}

type mockRemediationFlagStore struct {
	enrollments []models.Enrollment
	flags       map[string]bool
}

func (m *mockRemediationFlagStore) FindActiveByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.Enrollment, error) {
	return m.enrollments, nil
}

func (m *mockRemediationFlagStore) SetNeedsRemediation(ctx context.Context, id string, needs bool) error {
	if m.flags == nil {
		m.flags = make(map[string]bool)
	}
	m.flags[id] = needs
	return nil
}

func grade(v float64) *float64 { return &v }

func newTestRemedialService(remedials *mockRemedialStore, finals *mockFailingGradeReader, flags *mockRemediationFlagStore) *RemedialService {
	return NewRemedialService(
		remedials,
		finals,
		flags,
		&mockStudentReaderSvc{students: map[string]models.Student{
			"stud-1": {ID: "stud-1", FullName: "Dela Cruz, Juan"},
		}},
		&mockSubjectReader{subjects: map[string]models.Subject{
			"math": {ID: "math", Name: "Mathematics"},
			"pe":   {ID: "pe", Name: "Physical Education"},
		}},
		75.0,
		nil, nil,
	)
}

func TestRemedialServiceSheet(t *testing.T) {
	ctx := context.Background()

	t.Run("failing finals become rows for encoding", func(t *testing.T) {
		finals := &mockFailingGradeReader{rows: []models.SubjectGradeRow{
			{SubjectID: "math", SubjectName: "Mathematics", Grade: grade(70)},
			{SubjectID: "sci", SubjectName: "Science", Grade: grade(72.5)},
		}}
		svc := newTestRemedialService(&mockRemedialStore{}, finals, &mockRemediationFlagStore{})

		sheet, err := svc.Sheet(ctx, "stud-1", "term-1")
		require.NoError(t, err)
		require.Len(t, sheet.Rows, 2)
		assert.Equal(t, models.TerminalQuarter, finals.lastQuarter)
		assert.Equal(t, models.RemedialForEncoding, sheet.Rows[0].Status)
		require.NotNil(t, sheet.Rows[0].FinalRating)
		assert.Equal(t, 70.0, *sheet.Rows[0].FinalRating)
		assert.Nil(t, sheet.Rows[0].RemedialClassMark)
	})

	t.Run("existing records override the snapshot", func(t *testing.T) {
		finals := &mockFailingGradeReader{rows: []models.SubjectGradeRow{
			{SubjectID: "math", SubjectName: "Mathematics", Grade: grade(70)},
		}}
		remedials := &mockRemedialStore{records: map[string]models.RemedialRecord{
			"math": {ID: "rm-1", SubjectID: "math", FinalRating: 70, RemedialClassMark: 84, RecomputedFinalGrade: 77, Status: models.RemedialPassed},
		}}
		svc := newTestRemedialService(remedials, finals, &mockRemediationFlagStore{})

		sheet, err := svc.Sheet(ctx, "stud-1", "term-1")
		require.NoError(t, err)
		require.Len(t, sheet.Rows, 1)
		assert.Equal(t, models.RemedialPassed, sheet.Rows[0].Status)
		require.NotNil(t, sheet.Rows[0].RecomputedFinalGrade)
		assert.Equal(t, 77.0, *sheet.Rows[0].RecomputedFinalGrade)
	})

	t.Run("records outside the failing snapshot keep their subject name", func(t *testing.T) {
		remedials := &mockRemedialStore{records: map[string]models.RemedialRecord{
			"pe": {ID: "rm-2", SubjectID: "pe", FinalRating: 72, RemedialClassMark: 80, RecomputedFinalGrade: 76, Status: models.RemedialPassed},
		}}
		svc := newTestRemedialService(remedials, &mockFailingGradeReader{}, &mockRemediationFlagStore{})

		sheet, err := svc.Sheet(ctx, "stud-1", "term-1")
		require.NoError(t, err)
		require.Len(t, sheet.Rows, 1)
		assert.Equal(t, "pe", sheet.Rows[0].SubjectID)
		assert.Equal(t, "Physical Education", sheet.Rows[0].SubjectName)
		assert.Equal(t, models.RemedialPassed, sheet.Rows[0].Status)
	})
}

func TestRemedialServiceSave(t *testing.T) {
	ctx := context.Background()
	failing := &mockFailingGradeReader{rows: []models.SubjectGradeRow{
		{SubjectID: "math", SubjectName: "Mathematics", Grade: grade(70)},
		{SubjectID: "sci", SubjectName: "Science", Grade: grade(65)},
	}}
	enrollment := []models.Enrollment{{ID: "enr-1", StudentID: "stud-1", TermID: "term-1", Status: models.EnrollmentStatusActive}}

	t.Run("blends and classifies encoded marks", func(t *testing.T) {
		remedials := &mockRemedialStore{}
		flags := &mockRemediationFlagStore{enrollments: enrollment}
		svc := newTestRemedialService(remedials, failing, flags)

		sheet, err := svc.Save(ctx, SaveRemedialRequest{
			StudentID: "stud-1", TermID: "term-1", SaveMode: SaveModeSubmitted,
			Rows: []RemedialSaveRow{
				{SubjectID: "math", RemedialClassMark: grade(84)},
				{SubjectID: "sci", RemedialClassMark: grade(70)},
			},
		})
		require.NoError(t, err)
		require.Len(t, remedials.upserted, 2)

		math := remedials.records["math"]
		assert.Equal(t, 77.0, math.RecomputedFinalGrade)
		assert.Equal(t, models.RemedialPassed, math.Status)

		sci := remedials.records["sci"]
		assert.Equal(t, 67.5, sci.RecomputedFinalGrade)
		assert.Equal(t, models.RemedialFailed, sci.Status)

		// One failed subject keeps the flag up even on a submitted save.
		assert.True(t, flags.flags["enr-1"])
		require.Len(t, sheet.Rows, 2)
	})

	t.Run("submitted save with everything passed clears the flag", func(t *testing.T) {
		remedials := &mockRemedialStore{}
		flags := &mockRemediationFlagStore{enrollments: enrollment}
		svc := newTestRemedialService(remedials, failing, flags)

		_, err := svc.Save(ctx, SaveRemedialRequest{
			StudentID: "stud-1", TermID: "term-1", SaveMode: SaveModeSubmitted,
			Rows: []RemedialSaveRow{
				{SubjectID: "math", RemedialClassMark: grade(84)},
				{SubjectID: "sci", RemedialClassMark: grade(90)},
			},
		})
		require.NoError(t, err)
		assert.False(t, flags.flags["enr-1"])
	})

	t.Run("draft save keeps the flag up", func(t *testing.T) {
		remedials := &mockRemedialStore{}
		flags := &mockRemediationFlagStore{enrollments: enrollment}
		svc := newTestRemedialService(remedials, failing, flags)

		_, err := svc.Save(ctx, SaveRemedialRequest{
			StudentID: "stud-1", TermID: "term-1", SaveMode: SaveModeDraft,
			Rows: []RemedialSaveRow{
				{SubjectID: "math", RemedialClassMark: grade(84)},
				{SubjectID: "sci", RemedialClassMark: grade(90)},
			},
		})
		require.NoError(t, err)
		assert.True(t, flags.flags["enr-1"])
	})

	t.Run("rows without a mark or snapshot are skipped", func(t *testing.T) {
		remedials := &mockRemedialStore{}
		svc := newTestRemedialService(remedials, failing, &mockRemediationFlagStore{enrollments: enrollment})

		_, err := svc.Save(ctx, SaveRemedialRequest{
			StudentID: "stud-1", TermID: "term-1", SaveMode: SaveModeDraft,
			Rows: []RemedialSaveRow{
				{SubjectID: "math", RemedialClassMark: grade(84)},
				{SubjectID: "sci"},
				{SubjectID: "english", RemedialClassMark: grade(80)},
			},
		})
		require.NoError(t, err)
		require.Len(t, remedials.upserted, 1)
		assert.Equal(t, "math", remedials.upserted[0].SubjectID)
	})

	t.Run("zero writable rows fails with empty operation", func(t *testing.T) {
		remedials := &mockRemedialStore{}
		svc := newTestRemedialService(remedials, failing, &mockRemediationFlagStore{enrollments: enrollment})

		_, err := svc.Save(ctx, SaveRemedialRequest{
			StudentID: "stud-1", TermID: "term-1", SaveMode: SaveModeDraft,
			Rows:      []RemedialSaveRow{{SubjectID: "sci"}},
		})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrEmptyOperation.Code, appErrors.FromError(err).Code)
		assert.Empty(t, remedials.upserted)
	})
}
