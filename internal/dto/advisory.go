package dto

// BoardSubject is one column of the advisory grade matrix.
type BoardSubject struct {
	SubjectID   string `json:"subjectId"`
	SubjectName string `json:"subjectName"`
}

// BoardRow is one learner's row on the advisory board. Grades holds a
// formatted value per subject; subjects without a posted final grade are
// absent from the map and excluded from the general average.
type BoardRow struct {
	EnrollmentID   string            `json:"enrollmentId"`
	StudentID      string            `json:"studentId"`
	StudentName    string            `json:"studentName"`
	Grades         map[string]string `json:"grades"`
	GeneralAverage *float64          `json:"generalAverage,omitempty"`
}

// AdvisoryBoard is the grade matrix for one class and quarter.
type AdvisoryBoard struct {
	ClassID     string         `json:"classId"`
	ClassName   string         `json:"className"`
	AdviserName *string        `json:"adviserName,omitempty"`
	TermID      string         `json:"termId"`
	Quarter     int            `json:"quarter"`
	Subjects    []BoardSubject `json:"subjects"`
	Rows        []BoardRow     `json:"rows"`
	Status      string         `json:"status"`
}

// BoardStatus values. The board is locked when every enrollment's conduct
// rating for the quarter is locked; advisers lock conduct from this
// screen, not subject grades.
const (
	BoardStatusDraft  = "draft"
	BoardStatusLocked = "locked"
)
