package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-grading-api/internal/service"
	appErrors "github.com/noah-isme/sis-grading-api/pkg/errors"
	"github.com/noah-isme/sis-grading-api/pkg/response"
)

// RemedialHandler exposes the remedial recomputation sheet.
type RemedialHandler struct {
	remedials *service.RemedialService
}

// NewRemedialHandler constructs handler.
func NewRemedialHandler(remedials *service.RemedialService) *RemedialHandler {
	return &RemedialHandler{remedials: remedials}
}

// Sheet godoc
// @Summary Remedial sheet for a student and academic year
// @Tags Remedial
// @Produce json
// @Param id path string true "Student ID"
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /remedial/{id} [get]
func (h *RemedialHandler) Sheet(c *gin.Context) {
	termID := c.Query("termId")
	if termID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "termId required"))
		return
	}
	sheet, err := h.remedials.Sheet(c.Request.Context(), c.Param("id"), termID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Save godoc
// @Summary Encode remedial class marks
// @Tags Remedial
// @Accept json
// @Produce json
// @Param payload body service.SaveRemedialRequest true "Remedial payload"
// @Success 200 {object} response.Envelope
// @Router /remedial [post]
func (h *RemedialHandler) Save(c *gin.Context) {
	var req service.SaveRemedialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sheet, err := h.remedials.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}
