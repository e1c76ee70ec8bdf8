package service

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/marksvc/marks-api/internal/models"
	"github.com/marksvc/marks-api/internal/tabular"
	appErrors "github.com/marksvc/marks-api/pkg/errors"
)

const (
	marksMin             = 0
	marksMax             = 100
	dobYearMin           = 1900
	lookupCacheKeyPrefix = "lookup:"
)

// dobLayouts are the accepted date-of-birth input forms: ISO and the
// day-first form used by institutional spreadsheets.
var dobLayouts = []string{"2006-01-02", "02-01-2006"}

type markStore interface {
	Reconcile(ctx context.Context, student *models.Student, mark *models.MarkRecord) error
}

type uploadRegistry interface {
	Record(ctx context.Context, file *models.UploadFile) error
}

type ingestCache interface {
	Delete(ctx context.Context, keys ...string) error
}

// IngestService validates parsed upload rows and reconciles them into
// student and mark state.
type IngestService struct {
	marks   markStore
	uploads uploadRegistry
	cache   ingestCache
	metrics *MetricsService
	logger  *zap.Logger
}

// NewIngestService constructs an IngestService.
func NewIngestService(marks markStore, uploads uploadRegistry, cache ingestCache, metrics *MetricsService, logger *zap.Logger) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{marks: marks, uploads: uploads, cache: cache, metrics: metrics, logger: logger}
}

// validatedRow is an upload row that passed all checks and is safe to store.
type validatedRow struct {
	registerNumber string
	studentName    string
	subjectCode    string
	marks          float64
	dateOfBirth    time.Time
}

// Process consumes the row source, validating and reconciling each row.
// A failing row is recorded against its index and skipped; processing
// continues with the rest of the file. Only source-level decode failures
// and an expired context abort the whole upload.
func (s *IngestService) Process(ctx context.Context, actorEmail, filename string, sizeBytes int64, src tabular.Source) (*models.UploadSummary, error) {
	summary := &models.UploadSummary{Errors: []models.RowFailure{}}
	touched := make(map[string]struct{})

	for {
		if err := ctx.Err(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCorruptFile.Code, appErrors.ErrCorruptFile.Status, "upload processing exceeded the deadline")
		}

		row, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		summary.RowsTotal++

		parsed, reason := validateRow(row)
		if reason != "" {
			summary.RowsFailed++
			summary.Errors = append(summary.Errors, models.RowFailure{Row: row.Index, Reason: reason})
			continue
		}

		student := &models.Student{
			RegisterNumber: parsed.registerNumber,
			StudentName:    parsed.studentName,
			DateOfBirth:    parsed.dateOfBirth,
		}
		mark := &models.MarkRecord{
			RegisterNumber: parsed.registerNumber,
			SubjectCode:    parsed.subjectCode,
			Marks:          parsed.marks,
			UploadedBy:     actorEmail,
			SourceFile:     filename,
		}
		if err := s.marks.Reconcile(ctx, student, mark); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store row")
		}

		touched[parsed.registerNumber] = struct{}{}
		summary.RowsSucceeded++
	}

	s.metrics.ObserveIngestRows(summary.RowsSucceeded, summary.RowsFailed)

	// The registry entry is recorded even when some rows failed; partial
	// success is still a completed upload.
	entry := &models.UploadFile{
		Name:          filename,
		SizeBytes:     sizeBytes,
		UploadedBy:    actorEmail,
		RowsTotal:     summary.RowsTotal,
		RowsSucceeded: summary.RowsSucceeded,
		RowsFailed:    summary.RowsFailed,
	}
	if err := s.uploads.Record(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record upload")
	}

	s.invalidateLookups(ctx, touched)

	s.logger.Info("upload processed",
		zap.String("file", filename),
		zap.String("uploaded_by", actorEmail),
		zap.Int("rows_total", summary.RowsTotal),
		zap.Int("rows_succeeded", summary.RowsSucceeded),
		zap.Int("rows_failed", summary.RowsFailed),
	)

	return summary, nil
}

func (s *IngestService) invalidateLookups(ctx context.Context, touched map[string]struct{}) {
	if s.cache == nil || len(touched) == 0 {
		return
	}
	keys := make([]string, 0, len(touched))
	for registerNumber := range touched {
		keys = append(keys, lookupCacheKeyPrefix+registerNumber)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("failed to invalidate lookup cache", zap.Error(err))
	}
}

// validateRow classifies a raw row, returning either the typed row or the
// failure reason. Checks run in a fixed order and the first failure wins.
func validateRow(row tabular.Row) (*validatedRow, string) {
	registerNumber := row.Fields["register_number"]
	subjectCode := row.Fields["subject_code"]
	if registerNumber == "" || subjectCode == "" {
		return nil, models.ReasonMissingField
	}

	marks, err := strconv.ParseFloat(row.Fields["marks"], 64)
	if err != nil || marks < marksMin || marks > marksMax {
		return nil, models.ReasonInvalidMarks
	}

	dob, ok := ParseDOB(row.Fields["dob"])
	if !ok {
		return nil, models.ReasonInvalidDob
	}

	studentName := row.Fields["student_name"]
	if studentName == "" {
		return nil, models.ReasonMissingField
	}

	return &validatedRow{
		registerNumber: registerNumber,
		studentName:    studentName,
		subjectCode:    subjectCode,
		marks:          marks,
		dateOfBirth:    dob,
	}, ""
}

// ParseDOB parses a date of birth in one of the accepted layouts. The
// layouts are strict, so impossible calendar dates (Feb 29 outside leap
// years, day 31 in a 30-day month) fail to parse. Years are additionally
// bounded to [1900, current year].
func ParseDOB(raw string) (time.Time, bool) {
	for _, layout := range dobLayouts {
		parsed, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if parsed.Year() < dobYearMin || parsed.Year() > time.Now().UTC().Year() {
			return time.Time{}, false
		}
		return parsed.UTC(), true
	}
	return time.Time{}, false
}
