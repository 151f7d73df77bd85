package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. Only ACTIVE learners receive computed
// grades; withdrawn and transferred learners are excluded from saves.
const (
	EnrollmentStatusActive      EnrollmentStatus = "ACTIVE"
	EnrollmentStatusTransferred EnrollmentStatus = "TRANSFERRED"
	EnrollmentStatusWithdrawn   EnrollmentStatus = "WITHDRAWN"
)

// Enrollment captures a learner's registration to a class within a term.
// Grades attach to the enrollment, not the student record.
type Enrollment struct {
	ID               string           `db:"id" json:"id"`
	StudentID        string           `db:"student_id" json:"student_id"`
	ClassID          string           `db:"class_id" json:"class_id"`
	TermID           string           `db:"term_id" json:"term_id"`
	JoinedAt         time.Time        `db:"joined_at" json:"joined_at"`
	LeftAt           *time.Time       `db:"left_at" json:"left_at,omitempty"`
	Status           EnrollmentStatus `db:"status" json:"status"`
	NeedsRemediation bool             `db:"needs_remediation" json:"needs_remediation"`
}
