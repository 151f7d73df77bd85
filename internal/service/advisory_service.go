package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-grading-api/internal/dto"
	"github.com/noah-isme/sis-grading-api/internal/models"
	appErrors "github.com/noah-isme/sis-grading-api/pkg/errors"
)

type boardGradeReader interface {
	BoardRows(ctx context.Context, classID, termID string, quarter int) ([]models.BoardGradeRow, error)
}

type conductStore interface {
	FetchByEnrollments(ctx context.Context, enrollmentIDs []string, quarter int) (map[string]models.ConductRating, error)
	Upsert(ctx context.Context, ratings []models.ConductRating) error
	CountLocked(ctx context.Context, enrollmentIDs []string, quarter int) (int, error)
}

type classReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
}

type boardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type conductMetrics interface {
	AddLocksApplied(n int)
	IncLockViolations()
}

// SaveModeLocked is the conduct register's locking token. Conduct locks
// with "locked"; only the score pipeline uses "submitted".
const SaveModeLocked = "locked"

// ConductRow is one learner's conduct marks in a save payload.
type ConductRow struct {
	EnrollmentID  string `json:"enrollment_id" validate:"required"`
	MakaDiyos     string `json:"maka_diyos" validate:"required,oneof=AO SO RO NO"`
	Makatao       string `json:"makatao" validate:"required,oneof=AO SO RO NO"`
	Makakalikasan string `json:"makakalikasan" validate:"required,oneof=AO SO RO NO"`
	Makabansa     string `json:"makabansa" validate:"required,oneof=AO SO RO NO"`
	Remarks       string `json:"remarks" validate:"max=500"`
}

// SaveConductRequest upserts conduct ratings for a class and quarter.
type SaveConductRequest struct {
	ClassID  string       `json:"class_id" validate:"required"`
	TermID   string       `json:"term_id" validate:"required"`
	Quarter  int          `json:"quarter" validate:"required,min=1,max=4"`
	SaveMode string       `json:"save_mode" validate:"required,oneof=draft locked"`
	Rows     []ConductRow `json:"rows" validate:"dive"`
}

// AdvisoryService serves the adviser's consolidated grade board and the
// conduct register behind it. It reads posted final grades only; scores
// are never recomputed here.
type AdvisoryService struct {
	finals      boardGradeReader
	conduct     conductStore
	enrollments enrollmentLister
	students    studentNameReader
	classes     classReader
	cache       boardCache
	metrics     conductMetrics
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAdvisoryService constructs AdvisoryService.
func NewAdvisoryService(
	finals boardGradeReader,
	conduct conductStore,
	enrollments enrollmentLister,
	students studentNameReader,
	classes classReader,
	cache boardCache,
	metrics conductMetrics,
	cacheTTL time.Duration,
	validate *validator.Validate,
	logger *zap.Logger,
) *AdvisoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdvisoryService{
		finals:      finals,
		conduct:     conduct,
		enrollments: enrollments,
		students:    students,
		classes:     classes,
		cache:       cache,
		metrics:     metrics,
		cacheTTL:    cacheTTL,
		validator:   validate,
		logger:      logger,
	}
}

// Board assembles the grade matrix for one class and quarter: one row per
// active enrollment, one column per subject with any posted grade. The
// general average covers present grades only.
func (s *AdvisoryService) Board(ctx context.Context, classID, termID string, quarter int) (*dto.AdvisoryBoard, error) {
	if quarter < 1 || quarter > 4 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "quarter must be between 1 and 4")
	}
	cacheKey := boardCacheKey(classID, termID, quarter)
	if s.cache != nil {
		var cached dto.AdvisoryBoard
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	class, err := s.classes.FindDetailByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	enrollments, err := s.enrollments.ListActiveByClassAndTerm(ctx, classID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	gradeRows, err := s.finals.BoardRows(ctx, classID, termID, quarter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load board grades")
	}

	subjectNames := make(map[string]string)
	gradesByEnrollment := make(map[string]map[string]float64)
	for _, row := range gradeRows {
		subjectNames[row.SubjectID] = row.SubjectName
		if gradesByEnrollment[row.EnrollmentID] == nil {
			gradesByEnrollment[row.EnrollmentID] = make(map[string]float64)
		}
		gradesByEnrollment[row.EnrollmentID][row.SubjectID] = row.Grade
	}
	subjects := make([]dto.BoardSubject, 0, len(subjectNames))
	for id, name := range subjectNames {
		subjects = append(subjects, dto.BoardSubject{SubjectID: id, SubjectName: name})
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].SubjectName < subjects[j].SubjectName })

	studentIDs := make([]string, 0, len(enrollments))
	enrollmentIDs := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		studentIDs = append(studentIDs, e.StudentID)
		enrollmentIDs = append(enrollmentIDs, e.ID)
	}
	students, err := s.students.FindByIDs(ctx, studentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	board := &dto.AdvisoryBoard{
		ClassID:     classID,
		ClassName:   class.Name,
		AdviserName: class.AdviserName,
		TermID:      termID,
		Quarter:     quarter,
		Subjects:    subjects,
	}
	for _, e := range enrollments {
		row := dto.BoardRow{
			EnrollmentID: e.ID,
			StudentID:    e.StudentID,
			StudentName:  students[e.StudentID].FullName,
			Grades:       make(map[string]string),
		}
		present := make([]float64, 0, len(subjects))
		for subjectID, grade := range gradesByEnrollment[e.ID] {
			row.Grades[subjectID] = strconv.FormatFloat(grade, 'f', 2, 64)
			present = append(present, grade)
		}
		row.GeneralAverage = GeneralAverage(present)
		board.Rows = append(board.Rows, row)
	}
	sort.Slice(board.Rows, func(i, j int) bool { return board.Rows[i].StudentName < board.Rows[j].StudentName })

	board.Status, err = s.boardStatus(ctx, enrollmentIDs, quarter)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, board, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache board", zap.String("class_id", classID), zap.Error(err))
		}
	}
	return board, nil
}

// Conduct returns the quarter's conduct ratings keyed by enrollment.
func (s *AdvisoryService) Conduct(ctx context.Context, classID, termID string, quarter int) (map[string]models.ConductRating, error) {
	if quarter < 1 || quarter > 4 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "quarter must be between 1 and 4")
	}
	enrollments, err := s.enrollments.ListActiveByClassAndTerm(ctx, classID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.ID)
	}
	ratings, err := s.conduct.FetchByEnrollments(ctx, ids, quarter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conduct ratings")
	}
	return ratings, nil
}

// SaveConduct upserts conduct ratings for the listed enrollments. The
// whole batch is rejected when any targeted enrollment already has a
// locked rating for the quarter; partial conduct locks per batch would
// leave the board status ambiguous.
func (s *AdvisoryService) SaveConduct(ctx context.Context, req SaveConductRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conduct payload")
	}
	if len(req.Rows) == 0 {
		return appErrors.Clone(appErrors.ErrEmptyOperation, "no conduct rows to save")
	}

	ids := make([]string, 0, len(req.Rows))
	for _, row := range req.Rows {
		ids = append(ids, row.EnrollmentID)
	}
	existing, err := s.conduct.FetchByEnrollments(ctx, ids, req.Quarter)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect conduct ratings")
	}
	for _, row := range req.Rows {
		if prior, ok := existing[row.EnrollmentID]; ok && prior.LockState.Locked() {
			if s.metrics != nil {
				s.metrics.IncLockViolations()
			}
			return appErrors.Clone(appErrors.ErrLocked, fmt.Sprintf("conduct rating for enrollment %s is locked", row.EnrollmentID))
		}
	}

	lock := models.LockStateDraft
	if req.SaveMode == SaveModeLocked {
		lock = models.LockStateLocked
	}
	now := time.Now().UTC()
	ratings := make([]models.ConductRating, 0, len(req.Rows))
	for _, row := range req.Rows {
		id := existing[row.EnrollmentID].ID
		if id == "" {
			id = uuid.NewString()
		}
		ratings = append(ratings, models.ConductRating{
			ID:            id,
			EnrollmentID:  row.EnrollmentID,
			Quarter:       req.Quarter,
			MakaDiyos:     models.ConductScale(row.MakaDiyos),
			Makatao:       models.ConductScale(row.Makatao),
			Makakalikasan: models.ConductScale(row.Makakalikasan),
			Makabansa:     models.ConductScale(row.Makabansa),
			Remarks:       row.Remarks,
			LockState:     lock,
			UpdatedAt:     now,
		})
	}
	if err := s.conduct.Upsert(ctx, ratings); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save conduct ratings")
	}

	if s.metrics != nil && lock.Locked() {
		s.metrics.AddLocksApplied(len(ratings))
	}
	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("board:%s:*", req.ClassID)); err != nil {
			s.logger.Warn("failed to invalidate board cache", zap.String("class_id", req.ClassID), zap.Error(err))
		}
	}
	s.logger.Info("conduct saved",
		zap.String("class_id", req.ClassID),
		zap.Int("quarter", req.Quarter),
		zap.String("save_mode", req.SaveMode),
		zap.Int("rows", len(ratings)),
	)
	return nil
}

func (s *AdvisoryService) boardStatus(ctx context.Context, enrollmentIDs []string, quarter int) (string, error) {
	if len(enrollmentIDs) == 0 {
		return dto.BoardStatusDraft, nil
	}
	locked, err := s.conduct.CountLocked(ctx, enrollmentIDs, quarter)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count locked conduct ratings")
	}
	if locked == len(enrollmentIDs) {
		return dto.BoardStatusLocked, nil
	}
	return dto.BoardStatusDraft, nil
}

func boardCacheKey(classID, termID string, quarter int) string {
	return fmt.Sprintf("board:%s:%s:%d", classID, termID, quarter)
}
