package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-grading-api/internal/models"
	appErrors "github.com/noah-isme/sis-grading-api/pkg/errors"
)

type rubricStore interface {
	FindBySubject(ctx context.Context, subjectID string) (*models.GradeRubric, error)
	Upsert(ctx context.Context, rubric *models.GradeRubric) error
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// UpsertRubricRequest overrides the default component weights for one
// subject. Weights need not sum to 100; they are applied as given.
type UpsertRubricRequest struct {
	SubjectID           string `json:"subject_id" validate:"required"`
	WrittenWork         int    `json:"written_work" validate:"min=0"`
	PerformanceTask     int    `json:"performance_task" validate:"min=0"`
	QuarterlyAssessment int    `json:"quarterly_assessment" validate:"min=0"`
}

// RubricService resolves component weights for subjects, falling back to
// the institutional default when no override exists.
type RubricService struct {
	rubrics   rubricStore
	subjects  subjectReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRubricService constructs RubricService.
func NewRubricService(rubrics rubricStore, subjects subjectReader, validate *validator.Validate, logger *zap.Logger) *RubricService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RubricService{rubrics: rubrics, subjects: subjects, validator: validate, logger: logger}
}

// Resolve returns the rubric in force for a subject. A missing override
// resolves to DefaultRubric rather than an error, so callers never deal
// with absent weights.
func (s *RubricService) Resolve(ctx context.Context, subjectID string) (models.GradeRubric, error) {
	rubric, err := s.rubrics.FindBySubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			fallback := models.DefaultRubric
			fallback.SubjectID = subjectID
			return fallback, nil
		}
		return models.GradeRubric{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve rubric")
	}
	return *rubric, nil
}

// Upsert stores or replaces a subject's weight override.
func (s *RubricService) Upsert(ctx context.Context, req UpsertRubricRequest) (*models.GradeRubric, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rubric payload")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	rubric := &models.GradeRubric{
		SubjectID:           req.SubjectID,
		WrittenWork:         req.WrittenWork,
		PerformanceTask:     req.PerformanceTask,
		QuarterlyAssessment: req.QuarterlyAssessment,
		UpdatedAt:           time.Now().UTC(),
	}
	if err := s.rubrics.Upsert(ctx, rubric); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save rubric")
	}
	s.logger.Info("rubric updated",
		zap.String("subject_id", req.SubjectID),
		zap.Int("ww", req.WrittenWork),
		zap.Int("pt", req.PerformanceTask),
		zap.Int("qa", req.QuarterlyAssessment),
	)
	return rubric, nil
}
