package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/marksvc/marks-api/internal/models"
	appErrors "github.com/marksvc/marks-api/pkg/errors"
	"github.com/marksvc/marks-api/pkg/storage"
)

type uploadStore interface {
	List(ctx context.Context) ([]models.UploadFile, error)
	DeleteByName(ctx context.Context, name string) (bool, error)
}

type artifactStore interface {
	Delete(filename string) error
}

// UploadService backs the admin registry endpoints.
type UploadService struct {
	uploads   uploadStore
	artifacts artifactStore
	logger    *zap.Logger
}

// NewUploadService constructs an UploadService.
func NewUploadService(uploads uploadStore, artifacts artifactStore, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{uploads: uploads, artifacts: artifacts, logger: logger}
}

// List returns registry entries for processed uploads.
func (s *UploadService) List(ctx context.Context) ([]models.UploadFile, error) {
	files, err := s.uploads.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list uploads")
	}
	if files == nil {
		files = []models.UploadFile{}
	}
	return files, nil
}

// Remove deletes a registry entry and its stored artifact. Already
// reconciled student and mark data is intentionally left untouched.
func (s *UploadService) Remove(ctx context.Context, name string) error {
	name = storage.SanitizeName(name)
	if name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "filename required")
	}

	existed, err := s.uploads.DeleteByName(ctx, name)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete upload")
	}
	if !existed {
		return appErrors.Clone(appErrors.ErrNotFound, "upload not found")
	}

	if s.artifacts != nil {
		if err := s.artifacts.Delete(name); err != nil {
			// The registry row is already gone; a stale artifact is
			// recoverable by hand and should not fail the request.
			s.logger.Warn("failed to delete stored artifact", zap.String("name", name), zap.Error(err))
		}
	}

	s.logger.Info("upload removed", zap.String("name", name))
	return nil
}
