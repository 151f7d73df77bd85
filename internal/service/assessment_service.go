package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-grading-api/internal/models"
	appErrors "github.com/noah-isme/sis-grading-api/pkg/errors"
)

type assessmentStore interface {
	ListByAssignmentQuarter(ctx context.Context, assignmentID string, quarter int) ([]models.Assessment, error)
	FindByID(ctx context.Context, id string) (*models.Assessment, error)
	Create(ctx context.Context, assessment *models.Assessment) error
	Update(ctx context.Context, assessment *models.Assessment) error
	Delete(ctx context.Context, id string) error
	HasScores(ctx context.Context, id string) (bool, error)
}

// CreateAssessmentRequest registers a graded activity in the catalog.
type CreateAssessmentRequest struct {
	AssignmentID string  `json:"assignment_id" validate:"required"`
	Quarter      int     `json:"quarter" validate:"required,min=1,max=4"`
	Component    string  `json:"component" validate:"required,oneof=WW PT QA"`
	Title        string  `json:"title" validate:"required,max=200"`
	MaxScore     float64 `json:"max_score" validate:"required,gt=0"`
}

// UpdateAssessmentRequest edits the descriptive fields of an activity.
// Component and quarter are fixed after creation; moving an activity
// between components would silently reshape already saved grades.
type UpdateAssessmentRequest struct {
	Title    string  `json:"title" validate:"required,max=200"`
	MaxScore float64 `json:"max_score" validate:"required,gt=0"`
}

// AssessmentService manages the catalog of graded activities.
type AssessmentService struct {
	assessments assessmentStore
	assignments assignmentReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssessmentService constructs AssessmentService.
func NewAssessmentService(assessments assessmentStore, assignments assignmentReader, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{assessments: assessments, assignments: assignments, validator: validate, logger: logger}
}

// List returns the activities of an assignment for one quarter.
func (s *AssessmentService) List(ctx context.Context, assignmentID string, quarter int) ([]models.Assessment, error) {
	if quarter < 1 || quarter > 4 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "quarter must be between 1 and 4")
	}
	assessments, err := s.assessments.ListByAssignmentQuarter(ctx, assignmentID, quarter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessments")
	}
	return assessments, nil
}

// Create registers a new activity.
func (s *AssessmentService) Create(ctx context.Context, req CreateAssessmentRequest) (*models.Assessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	if _, err := s.assignments.FindByID(ctx, req.AssignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject class assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	now := time.Now().UTC()
	assessment := &models.Assessment{
		ID:           uuid.NewString(),
		AssignmentID: req.AssignmentID,
		Quarter:      req.Quarter,
		Component:    models.GradeComponent(req.Component),
		Title:        req.Title,
		MaxScore:     req.MaxScore,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.assessments.Create(ctx, assessment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessment")
	}
	s.logger.Info("assessment created",
		zap.String("assessment_id", assessment.ID),
		zap.String("assignment_id", req.AssignmentID),
		zap.Int("quarter", req.Quarter),
		zap.String("component", req.Component),
	)
	return assessment, nil
}

// Update edits an activity's title and max score. Shrinking the max does
// not retroactively clamp stored scores; the next save does.
func (s *AssessmentService) Update(ctx context.Context, id string, req UpdateAssessmentRequest) (*models.Assessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	assessment, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	assessment.Title = req.Title
	assessment.MaxScore = req.MaxScore
	assessment.UpdatedAt = time.Now().UTC()
	if err := s.assessments.Update(ctx, assessment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assessment")
	}
	return assessment, nil
}

// Delete removes an activity that has no scores yet. Once a score is
// attached the activity is part of the grading record and stays.
func (s *AssessmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	hasScores, err := s.assessments.HasScores(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assessment scores")
	}
	if hasScores {
		return appErrors.Clone(appErrors.ErrConflict, "assessment already has recorded scores")
	}
	if err := s.assessments.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assessment")
	}
	s.logger.Info("assessment deleted", zap.String("assessment_id", id))
	return nil
}

func (s *AssessmentService) find(ctx context.Context, id string) (*models.Assessment, error) {
	assessment, err := s.assessments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	return assessment, nil
}
