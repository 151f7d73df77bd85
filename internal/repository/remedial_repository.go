package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-grading-api/internal/models"
)

// RemedialRepository stores remedial recomputation records. Records are
// independent snapshots: later changes to quarter grades never alter
// remedial history.
type RemedialRepository struct {
	db *sqlx.DB
}

// NewRemedialRepository constructs the repository.
func NewRemedialRepository(db *sqlx.DB) *RemedialRepository {
	return &RemedialRepository{db: db}
}

// ListByStudentTerm returns a learner's remedial records for one term.
func (r *RemedialRepository) ListByStudentTerm(ctx context.Context, studentID, termID string) ([]models.RemedialRecord, error) {
	const query = `SELECT id, student_id, subject_id, term_id, final_rating, remedial_class_mark, recomputed_final_grade, status, updated_at
        FROM remedial_records WHERE student_id = $1 AND term_id = $2`
	var records []models.RemedialRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID, termID); err != nil {
		return nil, fmt.Errorf("list remedial records: %w", err)
	}
	return records, nil
}

// Upsert bulk upserts records keyed by (student, subject, term).
func (r *RemedialRepository) Upsert(ctx context.Context, records []models.RemedialRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO remedial_records (id, student_id, subject_id, term_id, final_rating, remedial_class_mark, recomputed_final_grade, status, updated_at)
        VALUES (:id, :student_id, :subject_id, :term_id, :final_rating, :remedial_class_mark, :recomputed_final_grade, :status, :updated_at)
        ON CONFLICT (student_id, subject_id, term_id)
        DO UPDATE SET final_rating = EXCLUDED.final_rating, remedial_class_mark = EXCLUDED.remedial_class_mark, recomputed_final_grade = EXCLUDED.recomputed_final_grade, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		records[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, records[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert remedial record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit remedial records: %w", err)
	}
	return nil
}
