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

// ConductRepository manages core-value ratings. Conduct carries its own
// lock, independent of the final grade register.
type ConductRepository struct {
	db *sqlx.DB
}

// NewConductRepository constructs the repository.
func NewConductRepository(db *sqlx.DB) *ConductRepository {
	return &ConductRepository{db: db}
}

// FetchByEnrollments returns existing ratings for the quarter keyed by
// enrollment ID.
func (r *ConductRepository) FetchByEnrollments(ctx context.Context, enrollmentIDs []string, quarter int) (map[string]models.ConductRating, error) {
	result := make(map[string]models.ConductRating, len(enrollmentIDs))
	if len(enrollmentIDs) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(enrollmentIDs))
	args := make([]interface{}, len(enrollmentIDs)+1)
	for i, id := range enrollmentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	args[len(args)-1] = quarter
	query := fmt.Sprintf(`SELECT id, enrollment_id, quarter, maka_diyos, makatao, makakalikasan, makabansa, remarks, lock_state, updated_at
        FROM conduct_ratings WHERE enrollment_id IN (%s) AND quarter = $%d`, strings.Join(placeholders, ","), len(args))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch conduct ratings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rating models.ConductRating
		if err := rows.StructScan(&rating); err != nil {
			return nil, fmt.Errorf("scan conduct rating: %w", err)
		}
		result[rating.EnrollmentID] = rating
	}
	return result, nil
}

// Upsert bulk upserts ratings in a transaction. Enrollments absent from
// the batch are left untouched.
func (r *ConductRepository) Upsert(ctx context.Context, ratings []models.ConductRating) error {
	if len(ratings) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO conduct_ratings (id, enrollment_id, quarter, maka_diyos, makatao, makakalikasan, makabansa, remarks, lock_state, updated_at)
        VALUES (:id, :enrollment_id, :quarter, :maka_diyos, :makatao, :makakalikasan, :makabansa, :remarks, :lock_state, :updated_at)
        ON CONFLICT (enrollment_id, quarter)
        DO UPDATE SET maka_diyos = EXCLUDED.maka_diyos, makatao = EXCLUDED.makatao, makakalikasan = EXCLUDED.makakalikasan, makabansa = EXCLUDED.makabansa, remarks = EXCLUDED.remarks, lock_state = EXCLUDED.lock_state, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range ratings {
		if ratings[i].ID == "" {
			ratings[i].ID = uuid.NewString()
		}
		ratings[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, ratings[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert conduct rating: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit conduct ratings: %w", err)
	}
	return nil
}

// CountLocked returns how many of the given enrollments have a locked
// rating for the quarter.
func (r *ConductRepository) CountLocked(ctx context.Context, enrollmentIDs []string, quarter int) (int, error) {
	if len(enrollmentIDs) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(enrollmentIDs))
	args := make([]interface{}, len(enrollmentIDs)+2)
	for i, id := range enrollmentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	args[len(args)-2] = quarter
	args[len(args)-1] = models.LockStateLocked
	query := fmt.Sprintf(`SELECT COUNT(*) FROM conduct_ratings
        WHERE enrollment_id IN (%s) AND quarter = $%d AND lock_state = $%d`,
		strings.Join(placeholders, ","), len(args)-1, len(args))
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count locked conduct: %w", err)
	}
	return count, nil
}
