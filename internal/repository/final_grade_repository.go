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

// FinalGradeRepository manages the final grade register. Lock
// monotonicity is enforced by the service layer, which never hands a
// locked row back to Upsert.
type FinalGradeRepository struct {
	db *sqlx.DB
}

// NewFinalGradeRepository constructs the repository.
func NewFinalGradeRepository(db *sqlx.DB) *FinalGradeRepository {
	return &FinalGradeRepository{db: db}
}

// Upsert bulk upserts final grades.
func (r *FinalGradeRepository) Upsert(ctx context.Context, finals []models.FinalGrade) error {
	if len(finals) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO final_grades (id, enrollment_id, assignment_id, quarter, grade, lock_state, calculated_at)
        VALUES (:id, :enrollment_id, :assignment_id, :quarter, :grade, :lock_state, :calculated_at)
        ON CONFLICT (enrollment_id, assignment_id, quarter)
        DO UPDATE SET grade = EXCLUDED.grade, lock_state = EXCLUDED.lock_state, calculated_at = EXCLUDED.calculated_at`
	now := time.Now().UTC()
	for i := range finals {
		if finals[i].ID == "" {
			finals[i].ID = uuid.NewString()
		}
		if finals[i].CalculatedAt.IsZero() {
			finals[i].CalculatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, finals[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert final grade: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit final grades: %w", err)
	}
	return nil
}

// FetchByEnrollments returns existing finals for the assignment/quarter
// keyed by enrollment ID.
func (r *FinalGradeRepository) FetchByEnrollments(ctx context.Context, enrollmentIDs []string, assignmentID string, quarter int) (map[string]models.FinalGrade, error) {
	result := make(map[string]models.FinalGrade, len(enrollmentIDs))
	if len(enrollmentIDs) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(enrollmentIDs))
	args := make([]interface{}, len(enrollmentIDs)+2)
	for i, id := range enrollmentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	args[len(args)-2] = assignmentID
	args[len(args)-1] = quarter
	query := fmt.Sprintf(`SELECT id, enrollment_id, assignment_id, quarter, grade, lock_state, calculated_at
        FROM final_grades WHERE enrollment_id IN (%s) AND assignment_id = $%d AND quarter = $%d`,
		strings.Join(placeholders, ","), len(args)-1, len(args))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch finals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var final models.FinalGrade
		if err := rows.StructScan(&final); err != nil {
			return nil, fmt.Errorf("scan final: %w", err)
		}
		result[final.EnrollmentID] = final
	}
	return result, nil
}

// BoardRows returns every posted final grade for a class term quarter,
// joined with the owning subject. Subjects a teacher has not started
// grading produce no rows and therefore no board column.
func (r *FinalGradeRepository) BoardRows(ctx context.Context, classID, termID string, quarter int) ([]models.BoardGradeRow, error) {
	const query = `SELECT fg.enrollment_id, ta.subject_id, s.name AS subject_name, fg.grade, fg.lock_state
        FROM final_grades fg
        JOIN enrollments e ON e.id = fg.enrollment_id
        JOIN teacher_assignments ta ON ta.id = fg.assignment_id
        JOIN subjects s ON s.id = ta.subject_id
        WHERE e.class_id = $1 AND e.term_id = $2 AND fg.quarter = $3
        ORDER BY s.name`
	var rows []models.BoardGradeRow
	if err := r.db.SelectContext(ctx, &rows, query, classID, termID, quarter); err != nil {
		return nil, fmt.Errorf("board rows: %w", err)
	}
	return rows, nil
}

// ReportCard returns a learner's per-subject grades for a quarter.
func (r *FinalGradeRepository) ReportCard(ctx context.Context, studentID, termID string, quarter int) ([]models.SubjectGradeRow, error) {
	const query = `SELECT ta.subject_id, s.name AS subject_name, fg.grade
        FROM final_grades fg
        JOIN enrollments e ON e.id = fg.enrollment_id
        JOIN teacher_assignments ta ON ta.id = fg.assignment_id
        JOIN subjects s ON s.id = ta.subject_id
        WHERE e.student_id = $1 AND e.term_id = $2 AND fg.quarter = $3
        ORDER BY s.name`
	var subjects []models.SubjectGradeRow
	if err := r.db.SelectContext(ctx, &subjects, query, studentID, termID, quarter); err != nil {
		return nil, fmt.Errorf("report card: %w", err)
	}
	return subjects, nil
}

// FailingFinals returns the subjects where the learner's grade for the
// given quarter fell below the threshold.
func (r *FinalGradeRepository) FailingFinals(ctx context.Context, studentID, termID string, quarter int, threshold float64) ([]models.SubjectGradeRow, error) {
	const query = `SELECT ta.subject_id, s.name AS subject_name, fg.grade
        FROM final_grades fg
        JOIN enrollments e ON e.id = fg.enrollment_id
        JOIN teacher_assignments ta ON ta.id = fg.assignment_id
        JOIN subjects s ON s.id = ta.subject_id
        WHERE e.student_id = $1 AND e.term_id = $2 AND fg.quarter = $3 AND fg.grade < $4
        ORDER BY s.name`
	var subjects []models.SubjectGradeRow
	if err := r.db.SelectContext(ctx, &subjects, query, studentID, termID, quarter, threshold); err != nil {
		return nil, fmt.Errorf("failing finals: %w", err)
	}
	return subjects, nil
}
