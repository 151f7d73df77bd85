package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-grading-api/internal/models"
)

// AssessmentRepository handles graded activity persistence.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs the repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// ListByAssignmentQuarter returns the graded activities owned by one
// assignment and quarter.
func (r *AssessmentRepository) ListByAssignmentQuarter(ctx context.Context, assignmentID string, quarter int) ([]models.Assessment, error) {
	const query = `SELECT id, assignment_id, quarter, component, title, max_score, created_at, updated_at
        FROM assessments WHERE assignment_id = $1 AND quarter = $2
        ORDER BY component, created_at`
	var assessments []models.Assessment
	if err := r.db.SelectContext(ctx, &assessments, query, assignmentID, quarter); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, nil
}

// FindByID returns one assessment.
func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*models.Assessment, error) {
	const query = `SELECT id, assignment_id, quarter, component, title, max_score, created_at, updated_at
        FROM assessments WHERE id = $1`
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, query, id); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// Create inserts a new assessment.
func (r *AssessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assessment.CreatedAt = now
	assessment.UpdatedAt = now
	const query = `INSERT INTO assessments (id, assignment_id, quarter, component, title, max_score, created_at, updated_at)
        VALUES (:id, :assignment_id, :quarter, :component, :title, :max_score, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

// Update modifies title and max score.
func (r *AssessmentRepository) Update(ctx context.Context, assessment *models.Assessment) error {
	assessment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assessments SET title = :title, max_score = :max_score, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	return nil
}

// Delete removes an assessment.
func (r *AssessmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM assessments WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete assessment: %w", err)
	}
	return nil
}

// HasScores reports whether any student score references the assessment.
func (r *AssessmentRepository) HasScores(ctx context.Context, id string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM assessment_scores WHERE assessment_id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check assessment scores: %w", err)
	}
	return exists, nil
}
