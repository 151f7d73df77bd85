package dto

// GradePreviewRow is one learner's computed grade, returned without
// persisting anything.
type GradePreviewRow struct {
	EnrollmentID string  `json:"enrollmentId"`
	StudentID    string  `json:"studentId"`
	StudentName  string  `json:"studentName"`
	Grade        float64 `json:"grade"`
}

// GradePreview mirrors what a save would compute for an assignment and
// quarter using only currently stored scores.
type GradePreview struct {
	AssignmentID string            `json:"assignmentId"`
	Quarter      int               `json:"quarter"`
	Rows         []GradePreviewRow `json:"rows"`
}

// SaveScoresResult summarises a completed save operation.
type SaveScoresResult struct {
	ScoresUpserted int `json:"scoresUpserted"`
	GradesPosted   int `json:"gradesPosted"`
	LockedSkipped  int `json:"lockedSkipped"`
}

// ReportCard lists a learner's per-subject grades for one quarter.
type ReportCard struct {
	StudentID   string            `json:"studentId"`
	StudentName string            `json:"studentName"`
	TermID      string            `json:"termId"`
	Quarter     int               `json:"quarter"`
	Subjects    []ReportCardEntry `json:"subjects"`
}

// ReportCardEntry is one subject line of a report card.
type ReportCardEntry struct {
	SubjectID   string   `json:"subjectId"`
	SubjectName string   `json:"subjectName"`
	Grade       *float64 `json:"grade,omitempty"`
}
