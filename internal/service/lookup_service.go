package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/marksvc/marks-api/internal/models"
	appErrors "github.com/marksvc/marks-api/pkg/errors"
)

type studentFinder interface {
	FindByRegisterNumber(ctx context.Context, registerNumber string) (*models.Student, error)
}

type markLister interface {
	ListByRegisterNumber(ctx context.Context, registerNumber string) ([]models.MarkRecord, error)
}

type lookupCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// cachedLookup is the cache payload: the student's identity plus marks,
// keyed by register number only. The DOB gate is re-checked on every
// request so a cache hit never bypasses it.
type cachedLookup struct {
	StudentName string            `json:"student_name"`
	DateOfBirth time.Time         `json:"date_of_birth"`
	Marks       []models.MarkInfo `json:"marks"`
}

// LookupService resolves (register number, DOB) pairs to mark sets.
type LookupService struct {
	students studentFinder
	marks    markLister
	cache    lookupCache
	metrics  *MetricsService
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewLookupService constructs a LookupService.
func NewLookupService(students studentFinder, marks markLister, cache lookupCache, metrics *MetricsService, logger *zap.Logger, cacheTTL time.Duration) *LookupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{students: students, marks: marks, cache: cache, metrics: metrics, logger: logger, cacheTTL: cacheTTL}
}

// Lookup returns a student's marks when register number and date of birth
// both match. Every negative case — unknown register number, wrong DOB,
// unparseable DOB — yields the same empty result, so callers cannot probe
// which part was wrong.
func (s *LookupService) Lookup(ctx context.Context, req models.LookupRequest) (*models.LookupResponse, error) {
	empty := &models.LookupResponse{StudentName: "", Marks: []models.MarkInfo{}}

	dob, ok := ParseDOB(req.DOB)
	if !ok {
		return empty, nil
	}

	if payload, found := s.cachedPayload(ctx, req.RegisterNumber); found {
		if !sameDate(payload.DateOfBirth, dob) {
			return empty, nil
		}
		return &models.LookupResponse{StudentName: payload.StudentName, Marks: payload.Marks}, nil
	}

	student, err := s.students.FindByRegisterNumber(ctx, req.RegisterNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return empty, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}

	records, err := s.marks.ListByRegisterNumber(ctx, student.RegisterNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch marks")
	}

	marks := make([]models.MarkInfo, 0, len(records))
	for _, record := range records {
		marks = append(marks, models.MarkInfo{
			SubjectCode: record.SubjectCode,
			Marks:       record.Marks,
			UploadedBy:  record.UploadedBy,
			UploadedAt:  record.UploadedAt,
		})
	}

	s.storePayload(ctx, student, marks)

	if !sameDate(student.DateOfBirth, dob) {
		return empty, nil
	}

	return &models.LookupResponse{StudentName: student.StudentName, Marks: marks}, nil
}

func (s *LookupService) cachedPayload(ctx context.Context, registerNumber string) (*cachedLookup, bool) {
	if s.cache == nil {
		return nil, false
	}
	var payload cachedLookup
	err := s.cache.Get(ctx, lookupCacheKeyPrefix+registerNumber, &payload)
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("lookup cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheLookup(false)
		return nil, false
	}
	s.metrics.RecordCacheLookup(true)
	return &payload, true
}

func (s *LookupService) storePayload(ctx context.Context, student *models.Student, marks []models.MarkInfo) {
	if s.cache == nil {
		return
	}
	payload := cachedLookup{
		StudentName: student.StudentName,
		DateOfBirth: student.DateOfBirth,
		Marks:       marks,
	}
	if err := s.cache.Set(ctx, lookupCacheKeyPrefix+student.RegisterNumber, payload, s.cacheTTL); err != nil {
		s.logger.Warn("lookup cache write failed", zap.Error(err))
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
