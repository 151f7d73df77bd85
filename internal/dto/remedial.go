package dto

import "github.com/noah-isme/sis-grading-api/internal/models"

// RemedialRow is one editable line of a learner's remedial sheet. The
// final rating is a snapshot of the failing terminal-quarter grade, or
// the persisted record's stored rating once one exists.
type RemedialRow struct {
	SubjectID            string                `json:"subjectId"`
	SubjectName          string                `json:"subjectName"`
	FinalRating          *float64              `json:"finalRating,omitempty"`
	RemedialClassMark    *float64              `json:"remedialClassMark,omitempty"`
	RecomputedFinalGrade *float64              `json:"recomputedFinalGrade,omitempty"`
	Status               models.RemedialStatus `json:"status"`
}

// RemedialSheet lists a learner's remedial rows for one academic year.
type RemedialSheet struct {
	StudentID string        `json:"studentId"`
	TermID    string        `json:"termId"`
	Rows      []RemedialRow `json:"rows"`
}
