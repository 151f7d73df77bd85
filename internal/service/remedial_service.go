package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-grading-api/internal/dto"
	"github.com/noah-isme/sis-grading-api/internal/models"
	appErrors "github.com/noah-isme/sis-grading-api/pkg/errors"
)

type remedialStore interface {
	ListByStudentTerm(ctx context.Context, studentID, termID string) ([]models.RemedialRecord, error)
	Upsert(ctx context.Context, records []models.RemedialRecord) error
}

type failingGradeReader interface {
	FailingFinals(ctx context.Context, studentID, termID string, quarter int, threshold float64) ([]models.SubjectGradeRow, error)
}

type remediationFlagStore interface {
	FindActiveByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.Enrollment, error)
	SetNeedsRemediation(ctx context.Context, id string, needs bool) error
}

// RemedialSaveRow carries one subject's remedial class mark.
type RemedialSaveRow struct {
	SubjectID         string   `json:"subject_id" validate:"required"`
	RemedialClassMark *float64 `json:"remedial_class_mark" validate:"omitempty,min=0,max=100"`
}

// SaveRemedialRequest encodes remedial class marks for a learner's
// failing subjects of one academic year.
type SaveRemedialRequest struct {
	StudentID string            `json:"student_id" validate:"required"`
	TermID    string            `json:"term_id" validate:"required"`
	SaveMode  string            `json:"save_mode" validate:"required,oneof=draft submitted"`
	Rows      []RemedialSaveRow `json:"rows" validate:"dive"`
}

// RemedialService blends failing terminal-quarter grades with remedial
// class marks. It writes only its own register; posted FinalGrades are
// read, never changed.
type RemedialService struct {
	remedials    remedialStore
	finals       failingGradeReader
	enrollments  remediationFlagStore
	students     studentNameReader
	subjects     subjectReader
	passingGrade float64
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewRemedialService constructs RemedialService.
func NewRemedialService(
	remedials remedialStore,
	finals failingGradeReader,
	enrollments remediationFlagStore,
	students studentNameReader,
	subjects subjectReader,
	passingGrade float64,
	validate *validator.Validate,
	logger *zap.Logger,
) *RemedialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemedialService{
		remedials:    remedials,
		finals:       finals,
		enrollments:  enrollments,
		students:     students,
		subjects:     subjects,
		passingGrade: passingGrade,
		validator:    validate,
		logger:       logger,
	}
}

// Sheet lists the learner's remediable subjects: terminal-quarter grades
// below the passing mark, merged with any already encoded records.
// Subjects without a persisted record show as FOR_ENCODING.
func (s *RemedialService) Sheet(ctx context.Context, studentID, termID string) (*dto.RemedialSheet, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	failing, err := s.finals.FailingFinals(ctx, studentID, termID, models.TerminalQuarter, s.passingGrade)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load failing grades")
	}
	records, err := s.remedials.ListByStudentTerm(ctx, studentID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load remedial records")
	}
	recordBySubject := make(map[string]models.RemedialRecord, len(records))
	for _, rec := range records {
		recordBySubject[rec.SubjectID] = rec
	}

	sheet := &dto.RemedialSheet{StudentID: studentID, TermID: termID}
	seen := make(map[string]bool, len(failing))
	for _, row := range failing {
		seen[row.SubjectID] = true
		entry := dto.RemedialRow{
			SubjectID:   row.SubjectID,
			SubjectName: row.SubjectName,
			FinalRating: row.Grade,
			Status:      models.RemedialForEncoding,
		}
		if rec, ok := recordBySubject[row.SubjectID]; ok {
			rating := rec.FinalRating
			mark := rec.RemedialClassMark
			recomputed := rec.RecomputedFinalGrade
			entry.FinalRating = &rating
			entry.RemedialClassMark = &mark
			entry.RecomputedFinalGrade = &recomputed
			entry.Status = rec.Status
		}
		sheet.Rows = append(sheet.Rows, entry)
	}
	// Records whose snapshot grade no longer appears as failing still
	// belong on the sheet; the snapshot is authoritative once taken.
	// Their subject names come from the catalog since no failing join
	// carries them.
	for _, rec := range records {
		if seen[rec.SubjectID] {
			continue
		}
		rating := rec.FinalRating
		mark := rec.RemedialClassMark
		recomputed := rec.RecomputedFinalGrade
		entry := dto.RemedialRow{
			SubjectID:            rec.SubjectID,
			FinalRating:          &rating,
			RemedialClassMark:    &mark,
			RecomputedFinalGrade: &recomputed,
			Status:               rec.Status,
		}
		subject, err := s.subjects.FindByID(ctx, rec.SubjectID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
			}
		} else {
			entry.SubjectName = subject.Name
		}
		sheet.Rows = append(sheet.Rows, entry)
	}
	return sheet, nil
}

// Save encodes remedial class marks. Rows without a mark or without a
// failing final rating are skipped; a save that writes nothing fails with
// EmptyOperation. Afterwards the learner's needs_remediation flag is
// refreshed: set while the sheet is still a draft or any subject stays
// failed, cleared once everything passed on a submitted save.
func (s *RemedialService) Save(ctx context.Context, req SaveRemedialRequest) (*dto.RemedialSheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid remedial payload")
	}
	failing, err := s.finals.FailingFinals(ctx, req.StudentID, req.TermID, models.TerminalQuarter, s.passingGrade)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load failing grades")
	}
	existing, err := s.remedials.ListByStudentTerm(ctx, req.StudentID, req.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load remedial records")
	}
	ratingBySubject := make(map[string]float64, len(failing)+len(existing))
	for _, row := range failing {
		if row.Grade != nil {
			ratingBySubject[row.SubjectID] = *row.Grade
		}
	}
	recordBySubject := make(map[string]models.RemedialRecord, len(existing))
	for _, rec := range existing {
		recordBySubject[rec.SubjectID] = rec
		ratingBySubject[rec.SubjectID] = rec.FinalRating
	}

	now := time.Now().UTC()
	writes := make([]models.RemedialRecord, 0, len(req.Rows))
	for _, row := range req.Rows {
		rating, hasRating := ratingBySubject[row.SubjectID]
		if !hasRating || row.RemedialClassMark == nil {
			continue
		}
		recomputed := BlendRemedial(rating, *row.RemedialClassMark)
		status := models.RemedialFailed
		if recomputed >= s.passingGrade {
			status = models.RemedialPassed
		}
		id := recordBySubject[row.SubjectID].ID
		if id == "" {
			id = uuid.NewString()
		}
		rec := models.RemedialRecord{
			ID:                   id,
			StudentID:            req.StudentID,
			SubjectID:            row.SubjectID,
			TermID:               req.TermID,
			FinalRating:          rating,
			RemedialClassMark:    *row.RemedialClassMark,
			RecomputedFinalGrade: recomputed,
			Status:               status,
			UpdatedAt:            now,
		}
		writes = append(writes, rec)
		recordBySubject[row.SubjectID] = rec
	}
	if len(writes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyOperation, "no remedial rows to save")
	}
	if err := s.remedials.Upsert(ctx, writes); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save remedial records")
	}

	anyFailed := false
	for _, rec := range recordBySubject {
		if rec.Status == models.RemedialFailed {
			anyFailed = true
			break
		}
	}
	needs := req.SaveMode == SaveModeDraft || anyFailed
	if err := s.flagEnrollments(ctx, req.StudentID, req.TermID, needs); err != nil {
		return nil, err
	}

	s.logger.Info("remedial records saved",
		zap.String("student_id", req.StudentID),
		zap.String("term_id", req.TermID),
		zap.String("save_mode", req.SaveMode),
		zap.Int("rows", len(writes)),
		zap.Bool("needs_remediation", needs),
	)
	return s.Sheet(ctx, req.StudentID, req.TermID)
}

func (s *RemedialService) flagEnrollments(ctx context.Context, studentID, termID string, needs bool) error {
	enrollments, err := s.enrollments.FindActiveByStudentAndTerm(ctx, studentID, termID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	for _, e := range enrollments {
		if err := s.enrollments.SetNeedsRemediation(ctx, e.ID, needs); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update remediation flag")
		}
	}
	return nil
}
