package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marksvc/marks-api/internal/models"
	"github.com/marksvc/marks-api/internal/tabular"
	appErrors "github.com/marksvc/marks-api/pkg/errors"
	"github.com/marksvc/marks-api/pkg/response"
	"github.com/marksvc/marks-api/pkg/storage"
)

type ingestService interface {
	Process(ctx context.Context, actorEmail, filename string, sizeBytes int64, src tabular.Source) (*models.UploadSummary, error)
}

// UploadHandler accepts mark files and feeds them through ingestion.
type UploadHandler struct {
	ingest         ingestService
	store          *storage.LocalStorage
	maxSizeBytes   int64
	processTimeout time.Duration
}

// NewUploadHandler creates a new handler.
func NewUploadHandler(ingest ingestService, store *storage.LocalStorage, maxSizeBytes int64, processTimeout time.Duration) *UploadHandler {
	return &UploadHandler{ingest: ingest, store: store, maxSizeBytes: maxSizeBytes, processTimeout: processTimeout}
}

// UploadMarks receives a multipart `file` field, persists the artifact and
// processes its rows, returning the per-row summary.
func (h *UploadHandler) UploadMarks(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file field required"))
		return
	}

	filename := storage.SanitizeName(header.Filename)
	if filename == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "empty filename"))
		return
	}
	if h.maxSizeBytes > 0 && header.Size > h.maxSizeBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds size limit"))
		return
	}

	upload, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrCorruptFile.Code, appErrors.ErrCorruptFile.Status, "unable to read upload"))
		return
	}
	defer upload.Close() //nolint:errcheck

	// The artifact is persisted first so the admin registry always has the
	// bytes that were processed, even for files full of bad rows.
	size, err := h.store.SaveStream(filename, upload)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload"))
		return
	}

	stored, err := h.store.Open(filename)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reopen upload"))
		return
	}
	defer stored.Close() //nolint:errcheck

	src, err := tabular.Open(filename, stored)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer src.Close() //nolint:errcheck

	ctx := c.Request.Context()
	if h.processTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.processTimeout)
		defer cancel()
	}

	summary, err := h.ingest.Process(ctx, claims.Email, filename, size, src)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary)
}
