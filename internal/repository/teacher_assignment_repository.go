package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-grading-api/internal/models"
)

// TeacherAssignmentRepository reads subject-class assignments, the unit
// assessments and final grades are scoped to.
type TeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeacherAssignmentRepository constructs the repository.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

// FindByID returns one assignment.
func (r *TeacherAssignmentRepository) FindByID(ctx context.Context, id string) (*models.TeacherAssignment, error) {
	const query = `SELECT id, teacher_id, class_id, subject_id, term_id, created_at
        FROM teacher_assignments WHERE id = $1`
	var assignment models.TeacherAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// HasClassAccess reports whether the teacher holds any assignment for the
// class within the term.
func (r *TeacherAssignmentRepository) HasClassAccess(ctx context.Context, teacherID, classID, termID string) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM teacher_assignments
        WHERE teacher_id = $1 AND class_id = $2 AND term_id = $3)`
	var has bool
	if err := r.db.GetContext(ctx, &has, query, teacherID, classID, termID); err != nil {
		return false, fmt.Errorf("check class access: %w", err)
	}
	return has, nil
}

// ListByTeacher returns assignments with descriptive fields for one teacher.
func (r *TeacherAssignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignmentDetail, error) {
	const query = `SELECT ta.id, ta.teacher_id, ta.class_id, ta.subject_id, ta.term_id, ta.created_at,
        c.name AS class_name, s.name AS subject_name, t.name AS term_name
        FROM teacher_assignments ta
        JOIN classes c ON c.id = ta.class_id
        JOIN subjects s ON s.id = ta.subject_id
        JOIN terms t ON t.id = ta.term_id
        WHERE ta.teacher_id = $1
        ORDER BY t.name, c.name, s.name`
	var assignments []models.TeacherAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return assignments, nil
}
