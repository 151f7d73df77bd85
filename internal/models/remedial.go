package models

import "time"

// RemedialStatus classifies the outcome of a remedial recomputation.
type RemedialStatus string

const (
	// RemedialForEncoding marks rows still missing the class mark.
	RemedialForEncoding RemedialStatus = "FOR_ENCODING"
	RemedialPassed      RemedialStatus = "PASSED"
	RemedialFailed      RemedialStatus = "FAILED"
)

// RemedialRecord blends a failing terminal-quarter grade with a remedial
// class mark. FinalRating is a snapshot taken at creation time; later
// changes to quarter grades do not flow back into it.
type RemedialRecord struct {
	ID                   string         `db:"id" json:"id"`
	StudentID            string         `db:"student_id" json:"student_id"`
	SubjectID            string         `db:"subject_id" json:"subject_id"`
	TermID               string         `db:"term_id" json:"term_id"`
	FinalRating          float64        `db:"final_rating" json:"final_rating"`
	RemedialClassMark    float64        `db:"remedial_class_mark" json:"remedial_class_mark"`
	RecomputedFinalGrade float64        `db:"recomputed_final_grade" json:"recomputed_final_grade"`
	Status               RemedialStatus `db:"status" json:"status"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}
