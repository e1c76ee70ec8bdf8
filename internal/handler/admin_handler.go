package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marksvc/marks-api/internal/models"
	appErrors "github.com/marksvc/marks-api/pkg/errors"
	"github.com/marksvc/marks-api/pkg/response"
)

type uploadsService interface {
	List(ctx context.Context) ([]models.UploadFile, error)
	Remove(ctx context.Context, name string) error
}

type staffCreator interface {
	CreateStaff(ctx context.Context, req models.CreateStaffRequest) (*models.Staff, error)
}

// AdminHandler exposes the admin-only registry and provisioning endpoints.
type AdminHandler struct {
	uploads uploadsService
	staff   staffCreator
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(uploads uploadsService, staff staffCreator) *AdminHandler {
	return &AdminHandler{uploads: uploads, staff: staff}
}

// ListUploads returns metadata for every processed upload.
func (h *AdminHandler) ListUploads(c *gin.Context) {
	files, err := h.uploads.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"uploads": files})
}

// DeleteUpload removes a registry entry and its stored artifact. Marks the
// file introduced remain in place.
func (h *AdminHandler) DeleteUpload(c *gin.Context) {
	var payload struct {
		Filename string `json:"filename" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "filename required"))
		return
	}

	if err := h.uploads.Remove(c.Request.Context(), payload.Filename); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"ok": true})
}

// CreateStaff provisions a staff account.
func (h *AdminHandler) CreateStaff(c *gin.Context) {
	var req models.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid staff payload"))
		return
	}

	staff, err := h.staff.CreateStaff(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, staff)
}
