package dto

import "github.com/noah-isme/sis-grading-api/internal/models"

// ReportRequest asks for an asynchronous export.
type ReportRequest struct {
	Type      models.ReportType   `json:"type"`
	TermID    string              `json:"termId"`
	Quarter   int                 `json:"quarter"`
	ClassID   *string             `json:"classId,omitempty"`
	StudentID *string             `json:"studentId,omitempty"`
	Format    models.ReportFormat `json:"format"`
}

// ReportJobResponse acknowledges job creation.
type ReportJobResponse struct {
	ID     string              `json:"id"`
	Status models.ReportStatus `json:"status"`
}

// ReportStatusResponse exposes job progress to pollers.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
