package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-grading-api/internal/service"
	appErrors "github.com/noah-isme/sis-grading-api/pkg/errors"
	"github.com/noah-isme/sis-grading-api/pkg/response"
)

// AdvisoryHandler exposes the adviser's board and conduct register.
type AdvisoryHandler struct {
	advisory *service.AdvisoryService
}

// NewAdvisoryHandler constructs handler.
func NewAdvisoryHandler(advisory *service.AdvisoryService) *AdvisoryHandler {
	return &AdvisoryHandler{advisory: advisory}
}

// Board godoc
// @Summary Advisory grade board for a class and quarter
// @Tags Advisory
// @Produce json
// @Param classId query string true "Class ID"
// @Param termId query string true "Term ID"
// @Param quarter query int true "Quarter (1-4)"
// @Success 200 {object} response.Envelope
// @Router /advisory/board [get]
func (h *AdvisoryHandler) Board(c *gin.Context) {
	classID, termID, quarter, err := boardScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	board, err := h.advisory.Board(c.Request.Context(), classID, termID, quarter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, nil)
}

// Conduct godoc
// @Summary Conduct ratings for a class and quarter
// @Tags Advisory
// @Produce json
// @Param classId query string true "Class ID"
// @Param termId query string true "Term ID"
// @Param quarter query int true "Quarter (1-4)"
// @Success 200 {object} response.Envelope
// @Router /advisory/conduct [get]
func (h *AdvisoryHandler) Conduct(c *gin.Context) {
	classID, termID, quarter, err := boardScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	ratings, err := h.advisory.Conduct(c.Request.Context(), classID, termID, quarter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ratings, nil)
}

// SaveConduct godoc
// @Summary Save conduct ratings for a class and quarter
// @Tags Advisory
// @Accept json
// @Produce json
// @Param payload body service.SaveConductRequest true "Conduct payload"
// @Success 200 {object} response.Envelope
// @Router /advisory/conduct [post]
func (h *AdvisoryHandler) SaveConduct(c *gin.Context) {
	var req service.SaveConductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.advisory.SaveConduct(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "saved"}, nil)
}

func boardScope(c *gin.Context) (string, string, int, error) {
	classID := c.Query("classId")
	termID := c.Query("termId")
	if classID == "" || termID == "" {
		return "", "", 0, appErrors.Clone(appErrors.ErrValidation, "classId and termId required")
	}
	quarter, err := parseQuarter(c)
	if err != nil {
		return "", "", 0, err
	}
	return classID, termID, quarter, nil
}
