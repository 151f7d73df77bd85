package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-grading-api/internal/models"
)

// EnrollmentRepository reads enrollments for grade computation and flags
// learners needing remediation. Enrollment intake itself lives outside
// this service.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, class_id, term_id, joined_at, left_at, status, needs_remediation
        FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListActiveByClassAndTerm returns active enrollments for a class and
// term; withdrawn and transferred learners are excluded.
func (r *EnrollmentRepository) ListActiveByClassAndTerm(ctx context.Context, classID, termID string) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, class_id, term_id, joined_at, left_at, status, needs_remediation
        FROM enrollments WHERE class_id = $1 AND term_id = $2 AND status = $3`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, classID, termID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list class enrollments: %w", err)
	}
	return enrollments, nil
}

// FindActiveByStudentAndTerm returns the learner's active enrollments
// for a term.
func (r *EnrollmentRepository) FindActiveByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, class_id, term_id, joined_at, left_at, status, needs_remediation
        FROM enrollments WHERE student_id = $1 AND term_id = $2 AND status = $3`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID, termID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("find student enrollments: %w", err)
	}
	return enrollments, nil
}

// SetNeedsRemediation flips the remediation flag on an enrollment.
func (r *EnrollmentRepository) SetNeedsRemediation(ctx context.Context, id string, needs bool) error {
	const query = `UPDATE enrollments SET needs_remediation = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, needs); err != nil {
		return fmt.Errorf("set needs remediation: %w", err)
	}
	return nil
}
