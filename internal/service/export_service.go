package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-grading-api/internal/dto"
	"github.com/noah-isme/sis-grading-api/internal/models"
	"github.com/noah-isme/sis-grading-api/pkg/export"
	"github.com/noah-isme/sis-grading-api/pkg/storage"
)

type reportCardReader interface {
	ReportCard(ctx context.Context, studentID, termID string, quarter int) (*dto.ReportCard, error)
}

type boardReader interface {
	Board(ctx context.Context, classID, termID string, quarter int) (*dto.AdvisoryBoard, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	grades   reportCardReader
	advisory boardReader
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(grades reportCardReader, advisory boardReader, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		grades:   grades,
		advisory: advisory,
		storage:  storage,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate builds dataset according to job definition and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	termPart := sanitizeFilename(job.Params.TermID)
	name := fmt.Sprintf("%s_%s_q%d_%s.%s", strings.ToLower(string(job.Type)), termPart, job.Params.Quarter, timestamp, job.Params.Format)
	return name
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeReportCard:
		return s.buildReportCardDataset(ctx, job.Params)
	case models.ReportTypeAdvisoryBoard:
		return s.buildBoardDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildReportCardDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	if params.StudentID == nil || *params.StudentID == "" {
		return export.Dataset{}, "", fmt.Errorf("report card requires a student id")
	}
	card, err := s.grades.ReportCard(ctx, *params.StudentID, params.TermID, params.Quarter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(card.Subjects))
	for _, entry := range card.Subjects {
		grade := ""
		if entry.Grade != nil {
			grade = strconv.FormatFloat(*entry.Grade, 'f', 2, 64)
		}
		dataRows = append(dataRows, map[string]string{
			"Subject": entry.SubjectName,
			"Grade":   grade,
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Subject", "Grade"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Report Card %s Q%d", card.StudentName, params.Quarter)
	return dataset, title, nil
}

func (s *ExportService) buildBoardDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	if params.ClassID == nil || *params.ClassID == "" {
		return export.Dataset{}, "", fmt.Errorf("advisory board requires a class id")
	}
	board, err := s.advisory.Board(ctx, *params.ClassID, params.TermID, params.Quarter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	headers := make([]string, 0, len(board.Subjects)+2)
	headers = append(headers, "Student")
	for _, subject := range board.Subjects {
		headers = append(headers, subject.SubjectName)
	}
	headers = append(headers, "General Average")

	dataRows := make([]map[string]string, 0, len(board.Rows))
	for _, row := range board.Rows {
		record := map[string]string{"Student": row.StudentName}
		for _, subject := range board.Subjects {
			record[subject.SubjectName] = row.Grades[subject.SubjectID]
		}
		if row.GeneralAverage != nil {
			record["General Average"] = strconv.FormatFloat(*row.GeneralAverage, 'f', 2, 64)
		}
		dataRows = append(dataRows, record)
	}
	dataset := export.Dataset{
		Headers: headers,
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Advisory Board Q%d (%s)", params.Quarter, board.Status)
	return dataset, title, nil
}
