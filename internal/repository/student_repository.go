package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-grading-api/internal/models"
)

// StudentRepository reads learner records for board and report views.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns one student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, lrn, full_name, gender, birth_date, active, created_at, updated_at
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByIDs returns students keyed by ID.
func (r *StudentRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Student, error) {
	result := make(map[string]models.Student, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, lrn, full_name, gender, birth_date, active, created_at, updated_at
        FROM students WHERE id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch students: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var student models.Student
		if err := rows.StructScan(&student); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		result[student.ID] = student
	}
	return result, nil
}
