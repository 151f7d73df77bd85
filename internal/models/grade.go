package models

import "time"

// GradeComponent identifies one of the three graded work types.
type GradeComponent string

const (
	// ComponentWrittenWork covers quizzes, seatwork and written outputs.
	ComponentWrittenWork GradeComponent = "WW"
	// ComponentPerformanceTask covers projects and practical outputs.
	ComponentPerformanceTask GradeComponent = "PT"
	// ComponentQuarterlyAssessment is the single end-of-quarter exam bucket.
	ComponentQuarterlyAssessment GradeComponent = "QA"
)

// Components lists the graded components in display order.
var Components = []GradeComponent{ComponentWrittenWork, ComponentPerformanceTask, ComponentQuarterlyAssessment}

// Valid reports whether the component is one of WW/PT/QA.
func (c GradeComponent) Valid() bool {
	switch c {
	case ComponentWrittenWork, ComponentPerformanceTask, ComponentQuarterlyAssessment:
		return true
	}
	return false
}

// LockState is the two-state lifecycle of a posted record. LOCKED is
// terminal: no save operation transitions a record back to DRAFT.
type LockState string

const (
	LockStateDraft  LockState = "DRAFT"
	LockStateLocked LockState = "LOCKED"
)

// Locked reports whether the state is terminal.
func (s LockState) Locked() bool { return s == LockStateLocked }

// GradeRubric holds the per-subject weight split between components.
// Weights are plain integers and are not forced to sum to 100; the
// calculator applies them as-is.
type GradeRubric struct {
	ID                  string    `db:"id" json:"id,omitempty"`
	SubjectID           string    `db:"subject_id" json:"subject_id"`
	WrittenWork         int       `db:"ww_weight" json:"ww_weight"`
	PerformanceTask     int       `db:"pt_weight" json:"pt_weight"`
	QuarterlyAssessment int       `db:"qa_weight" json:"qa_weight"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Weight returns the rubric weight for the given component.
func (r GradeRubric) Weight(c GradeComponent) int {
	switch c {
	case ComponentWrittenWork:
		return r.WrittenWork
	case ComponentPerformanceTask:
		return r.PerformanceTask
	case ComponentQuarterlyAssessment:
		return r.QuarterlyAssessment
	}
	return 0
}

// DefaultRubric is applied for subjects without a stored override.
var DefaultRubric = GradeRubric{WrittenWork: 40, PerformanceTask: 40, QuarterlyAssessment: 20}

// TerminalQuarter is the school year's last quarter. Quarter-4 grades
// below the passing mark feed the remedial workflow.
const TerminalQuarter = 4

// Assessment is a graded activity owned by one subject-class assignment
// and quarter.
type Assessment struct {
	ID           string         `db:"id" json:"id"`
	AssignmentID string         `db:"assignment_id" json:"assignment_id"`
	Quarter      int            `db:"quarter" json:"quarter"`
	Component    GradeComponent `db:"component" json:"component"`
	Title        string         `db:"title" json:"title"`
	MaxScore     float64        `db:"max_score" json:"max_score"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// AssessmentScore is one raw score per student and assessment, clamped to
// [0, max_score] before storage.
type AssessmentScore struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	AssessmentID string    `db:"assessment_id" json:"assessment_id"`
	Score        float64   `db:"score" json:"score"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FinalGrade stores the computed quarterly grade per enrollment, subject
// assignment and quarter.
type FinalGrade struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	AssignmentID string    `db:"assignment_id" json:"assignment_id"`
	Quarter      int       `db:"quarter" json:"quarter"`
	Grade        float64   `db:"grade" json:"grade"`
	LockState    LockState `db:"lock_state" json:"lock_state"`
	CalculatedAt time.Time `db:"calculated_at" json:"calculated_at"`
}

// BoardGradeRow is a joined projection used by the advisory aggregator.
type BoardGradeRow struct {
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	SubjectName  string    `db:"subject_name" json:"subject_name"`
	Grade        float64   `db:"grade" json:"grade"`
	LockState    LockState `db:"lock_state" json:"lock_state"`
}

// SubjectGradeRow is the per-subject row of a learner's report card.
type SubjectGradeRow struct {
	SubjectID   string   `db:"subject_id" json:"subject_id"`
	SubjectName string   `db:"subject_name" json:"subject_name"`
	Grade       *float64 `db:"grade" json:"grade,omitempty"`
}
