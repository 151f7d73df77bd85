package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-grading-api/internal/models"
)

// ClassRepository reads sections for advisory workflows.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindDetailByID returns a class with the adviser's name.
func (r *ClassRepository) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	const query = `SELECT c.id, c.name, c.grade_level, c.adviser_id, c.created_at, c.updated_at,
        t.full_name AS adviser_name
        FROM classes c
        LEFT JOIN teachers t ON t.id = c.adviser_id
        WHERE c.id = $1`
	var detail models.ClassDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}
