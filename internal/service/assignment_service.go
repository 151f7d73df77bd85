package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-grading-api/internal/models"
	appErrors "github.com/noah-isme/sis-grading-api/pkg/errors"
)

type assignmentLister interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignmentDetail, error)
}

// AssignmentService reads subject-class assignments.
type AssignmentService struct {
	assignments assignmentLister
	logger      *zap.Logger
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(assignments assignmentLister, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{assignments: assignments, logger: logger}
}

// ListByTeacher returns the teacher's assignments with class, subject and
// term names resolved.
func (s *AssignmentService) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignmentDetail, error) {
	assignments, err := s.assignments.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}
