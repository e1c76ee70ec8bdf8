package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marksvc/marks-api/internal/models"
	appErrors "github.com/marksvc/marks-api/pkg/errors"
	"github.com/marksvc/marks-api/pkg/response"
)

type lookupService interface {
	Lookup(ctx context.Context, req models.LookupRequest) (*models.LookupResponse, error)
}

// LookupHandler serves the public student self-service lookup. It is the
// only data endpoint that requires no authentication.
type LookupHandler struct {
	service lookupService
}

// NewLookupHandler creates a new handler.
func NewLookupHandler(svc lookupService) *LookupHandler {
	return &LookupHandler{service: svc}
}

// Lookup resolves a (register number, date of birth) pair to the student's
// marks. No-match responds 200 with an empty result.
func (h *LookupHandler) Lookup(c *gin.Context) {
	var req models.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "register_number and dob required"))
		return
	}

	res, err := h.service.Lookup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}
