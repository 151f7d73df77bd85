package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-grading-api/internal/models"
)

// RubricRepository persists per-subject component weight splits.
type RubricRepository struct {
	db *sqlx.DB
}

// NewRubricRepository constructs the repository.
func NewRubricRepository(db *sqlx.DB) *RubricRepository {
	return &RubricRepository{db: db}
}

// FindBySubject returns the stored rubric for the subject, or
// sql.ErrNoRows when no override exists.
func (r *RubricRepository) FindBySubject(ctx context.Context, subjectID string) (*models.GradeRubric, error) {
	const query = `SELECT id, subject_id, ww_weight, pt_weight, qa_weight, updated_at
        FROM grade_rubrics WHERE subject_id = $1`
	var rubric models.GradeRubric
	if err := r.db.GetContext(ctx, &rubric, query, subjectID); err != nil {
		return nil, err
	}
	return &rubric, nil
}

// Upsert creates or replaces the subject's rubric. Rubrics are never
// deleted, only overwritten.
func (r *RubricRepository) Upsert(ctx context.Context, rubric *models.GradeRubric) error {
	if rubric.ID == "" {
		rubric.ID = uuid.NewString()
	}
	rubric.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO grade_rubrics (id, subject_id, ww_weight, pt_weight, qa_weight, updated_at)
        VALUES (:id, :subject_id, :ww_weight, :pt_weight, :qa_weight, :updated_at)
        ON CONFLICT (subject_id)
        DO UPDATE SET ww_weight = EXCLUDED.ww_weight, pt_weight = EXCLUDED.pt_weight, qa_weight = EXCLUDED.qa_weight, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, rubric); err != nil {
		return fmt.Errorf("upsert rubric: %w", err)
	}
	return nil
}
