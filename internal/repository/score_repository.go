package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-grading-api/internal/models"
)

// ScoreRepository handles raw per-activity score persistence.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs the repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// BulkUpsert inserts or updates scores in a transaction. Callers clamp
// scores before handing them over; nothing is rejected here.
func (r *ScoreRepository) BulkUpsert(ctx context.Context, scores []models.AssessmentScore) error {
	if len(scores) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO assessment_scores (id, student_id, assessment_id, score, updated_at)
        VALUES (:id, :student_id, :assessment_id, :score, :updated_at)
        ON CONFLICT (student_id, assessment_id)
        DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range scores {
		if scores[i].ID == "" {
			scores[i].ID = uuid.NewString()
		}
		scores[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, scores[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert score: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scores: %w", err)
	}
	return nil
}

// FetchByAssessments returns stored scores keyed by student then
// assessment for the given assessment set.
func (r *ScoreRepository) FetchByAssessments(ctx context.Context, assessmentIDs []string) (map[string]map[string]float64, error) {
	result := make(map[string]map[string]float64)
	if len(assessmentIDs) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(assessmentIDs))
	args := make([]interface{}, len(assessmentIDs))
	for i, id := range assessmentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, student_id, assessment_id, score, updated_at
        FROM assessment_scores WHERE assessment_id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch scores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var score models.AssessmentScore
		if err := rows.StructScan(&score); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		if result[score.StudentID] == nil {
			result[score.StudentID] = make(map[string]float64)
		}
		result[score.StudentID][score.AssessmentID] = score.Score
	}
	return result, nil
}
