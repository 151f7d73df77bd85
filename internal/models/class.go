package models

import "time"

// Class represents a section; the adviser is the teacher responsible for
// the section holistically (conduct, general average).
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	GradeLvl  string    `db:"grade_level" json:"grade_level"`
	AdviserID *string   `db:"adviser_id" json:"adviser_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with the adviser's name.
type ClassDetail struct {
	Class
	AdviserName *string `db:"adviser_name" json:"adviser_name,omitempty"`
}
