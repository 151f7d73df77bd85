package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-grading-api/internal/dto"
	"github.com/noah-isme/sis-grading-api/internal/models"
	appErrors "github.com/noah-isme/sis-grading-api/pkg/errors"
)

// Save modes accepted by SaveScores.
const (
	SaveModeDraft     = "draft"
	SaveModeSubmitted = "submitted"
)

type assessmentReader interface {
	ListByAssignmentQuarter(ctx context.Context, assignmentID string, quarter int) ([]models.Assessment, error)
}

type scoreStore interface {
	BulkUpsert(ctx context.Context, scores []models.AssessmentScore) error
	FetchByAssessments(ctx context.Context, assessmentIDs []string) (map[string]map[string]float64, error)
}

type finalGradeStore interface {
	Upsert(ctx context.Context, finals []models.FinalGrade) error
	FetchByEnrollments(ctx context.Context, enrollmentIDs []string, assignmentID string, quarter int) (map[string]models.FinalGrade, error)
	ReportCard(ctx context.Context, studentID, termID string, quarter int) ([]models.SubjectGradeRow, error)
}

type enrollmentLister interface {
	ListActiveByClassAndTerm(ctx context.Context, classID, termID string) ([]models.Enrollment, error)
}

type assignmentReader interface {
	FindByID(ctx context.Context, id string) (*models.TeacherAssignment, error)
}

type rubricResolver interface {
	Resolve(ctx context.Context, subjectID string) (models.GradeRubric, error)
}

type studentNameReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Student, error)
}

type boardCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type gradeMetrics interface {
	AddGradesPosted(n int)
	AddLocksApplied(n int)
}

// ScoreRow is one raw score in a save payload.
type ScoreRow struct {
	StudentID    string  `json:"student_id" validate:"required"`
	AssessmentID string  `json:"assessment_id" validate:"required"`
	Score        float64 `json:"score"`
}

// SaveScoresRequest persists raw scores and posts recomputed quarterly
// grades for every active learner of the assignment's class.
type SaveScoresRequest struct {
	AssignmentID string     `json:"assignment_id" validate:"required"`
	Quarter      int        `json:"quarter" validate:"required,min=1,max=4"`
	SaveMode     string     `json:"save_mode" validate:"required,oneof=draft submitted"`
	Scores       []ScoreRow `json:"scores" validate:"dive"`
}

// GradeService orchestrates the save/lock state machine around the pure
// quarterly calculator.
type GradeService struct {
	assessments assessmentReader
	scores      scoreStore
	finals      finalGradeStore
	enrollments enrollmentLister
	assignments assignmentReader
	rubrics     rubricResolver
	students    studentNameReader
	cache       boardCacheInvalidator
	metrics     gradeMetrics
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(
	assessments assessmentReader,
	scores scoreStore,
	finals finalGradeStore,
	enrollments enrollmentLister,
	assignments assignmentReader,
	rubrics rubricResolver,
	students studentNameReader,
	cache boardCacheInvalidator,
	metrics gradeMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		assessments: assessments,
		scores:      scores,
		finals:      finals,
		enrollments: enrollments,
		assignments: assignments,
		rubrics:     rubrics,
		students:    students,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// SaveScores upserts the incoming scores (clamped to each assessment's
// max), recomputes every active learner's quarterly grade and posts it to
// the final grade register. Rows already locked are skipped: nothing
// moves a locked grade, in either direction.
func (s *GradeService) SaveScores(ctx context.Context, req SaveScoresRequest) (*dto.SaveScoresResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scores payload")
	}
	assignment, assessments, err := s.loadScope(ctx, req.AssignmentID, req.Quarter)
	if err != nil {
		return nil, err
	}

	assessmentByID := make(map[string]models.Assessment, len(assessments))
	for _, a := range assessments {
		assessmentByID[a.ID] = a
	}
	upserts := make([]models.AssessmentScore, 0, len(req.Scores))
	for _, row := range req.Scores {
		assessment, ok := assessmentByID[row.AssessmentID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("assessment %s not part of this quarter", row.AssessmentID))
		}
		upserts = append(upserts, models.AssessmentScore{
			StudentID:    row.StudentID,
			AssessmentID: row.AssessmentID,
			Score:        ClampScore(row.Score, assessment.MaxScore),
		})
	}
	if err := s.scores.BulkUpsert(ctx, upserts); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save scores")
	}

	computed, err := s.computeForClass(ctx, assignment, req.Quarter, assessments)
	if err != nil {
		return nil, err
	}

	existing, err := s.finals.FetchByEnrollments(ctx, enrollmentIDs(computed), req.AssignmentID, req.Quarter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect final grades")
	}

	lock := models.LockStateDraft
	if req.SaveMode == SaveModeSubmitted {
		lock = models.LockStateLocked
	}
	now := time.Now().UTC()
	finals := make([]models.FinalGrade, 0, len(computed))
	skipped := 0
	for _, row := range computed {
		prior, ok := existing[row.enrollment.ID]
		if ok && prior.LockState.Locked() {
			skipped++
			continue
		}
		finals = append(finals, models.FinalGrade{
			ID:           prior.ID,
			EnrollmentID: row.enrollment.ID,
			AssignmentID: req.AssignmentID,
			Quarter:      req.Quarter,
			Grade:        row.grade,
			LockState:    lock,
			CalculatedAt: now,
		})
	}
	if err := s.finals.Upsert(ctx, finals); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to post final grades")
	}

	if s.metrics != nil {
		s.metrics.AddGradesPosted(len(finals))
		if lock.Locked() {
			s.metrics.AddLocksApplied(len(finals))
		}
	}
	s.invalidateBoard(ctx, assignment.ClassID)
	s.logger.Info("scores saved",
		zap.String("assignment_id", req.AssignmentID),
		zap.Int("quarter", req.Quarter),
		zap.String("save_mode", req.SaveMode),
		zap.Int("grades_posted", len(finals)),
		zap.Int("locked_skipped", skipped),
	)
	return &dto.SaveScoresResult{
		ScoresUpserted: len(upserts),
		GradesPosted:   len(finals),
		LockedSkipped:  skipped,
	}, nil
}

// Preview computes the quarterly grades a save would post, without
// writing anything. It shares the calculator with SaveScores so the two
// can never diverge.
func (s *GradeService) Preview(ctx context.Context, assignmentID string, quarter int) (*dto.GradePreview, error) {
	if quarter < 1 || quarter > 4 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "quarter must be between 1 and 4")
	}
	assignment, assessments, err := s.loadScope(ctx, assignmentID, quarter)
	if err != nil {
		return nil, err
	}
	computed, err := s.computeForClass(ctx, assignment, quarter, assessments)
	if err != nil {
		return nil, err
	}
	studentIDs := make([]string, 0, len(computed))
	for _, row := range computed {
		studentIDs = append(studentIDs, row.enrollment.StudentID)
	}
	students, err := s.students.FindByIDs(ctx, studentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	preview := &dto.GradePreview{AssignmentID: assignmentID, Quarter: quarter}
	for _, row := range computed {
		preview.Rows = append(preview.Rows, dto.GradePreviewRow{
			EnrollmentID: row.enrollment.ID,
			StudentID:    row.enrollment.StudentID,
			StudentName:  students[row.enrollment.StudentID].FullName,
			Grade:        row.grade,
		})
	}
	return preview, nil
}

// ReportCard returns a learner's posted grades per subject for a quarter.
func (s *GradeService) ReportCard(ctx context.Context, studentID, termID string, quarter int) (*dto.ReportCard, error) {
	if quarter < 1 || quarter > 4 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "quarter must be between 1 and 4")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	subjects, err := s.finals.ReportCard(ctx, studentID, termID, quarter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report card")
	}
	card := &dto.ReportCard{StudentID: studentID, StudentName: student.FullName, TermID: termID, Quarter: quarter}
	for _, row := range subjects {
		card.Subjects = append(card.Subjects, dto.ReportCardEntry{SubjectID: row.SubjectID, SubjectName: row.SubjectName, Grade: row.Grade})
	}
	return card, nil
}

type computedGrade struct {
	enrollment models.Enrollment
	grade      float64
}

func (s *GradeService) loadScope(ctx context.Context, assignmentID string, quarter int) (*models.TeacherAssignment, []models.Assessment, error) {
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "subject class assignment not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	assessments, err := s.assessments.ListByAssignmentQuarter(ctx, assignmentID, quarter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessments")
	}
	if len(assessments) == 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrEmptyOperation, "no assessments recorded for this quarter")
	}
	return assignment, assessments, nil
}

func (s *GradeService) computeForClass(ctx context.Context, assignment *models.TeacherAssignment, quarter int, assessments []models.Assessment) ([]computedGrade, error) {
	enrollments, err := s.enrollments.ListActiveByClassAndTerm(ctx, assignment.ClassID, assignment.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	rubric, err := s.rubrics.Resolve(ctx, assignment.SubjectID)
	if err != nil {
		return nil, err
	}
	assessmentIDs := make([]string, 0, len(assessments))
	for _, a := range assessments {
		assessmentIDs = append(assessmentIDs, a.ID)
	}
	scoresByStudent, err := s.scores.FetchByAssessments(ctx, assessmentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch scores")
	}
	computed := make([]computedGrade, 0, len(enrollments))
	for _, enrollment := range enrollments {
		computed = append(computed, computedGrade{
			enrollment: enrollment,
			grade:      ComputeQuarterGrade(rubric, assessments, scoresByStudent[enrollment.StudentID]),
		})
	}
	return computed, nil
}

func (s *GradeService) invalidateBoard(ctx context.Context, classID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("board:%s:*", classID)); err != nil {
		s.logger.Warn("failed to invalidate board cache", zap.String("class_id", classID), zap.Error(err))
	}
}

func enrollmentIDs(rows []computedGrade) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.enrollment.ID)
	}
	return ids
}
