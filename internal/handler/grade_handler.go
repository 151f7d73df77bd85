package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-grading-api/internal/service"
	appErrors "github.com/noah-isme/sis-grading-api/pkg/errors"
	"github.com/noah-isme/sis-grading-api/pkg/response"
)

// GradeHandler exposes score saving and grade computation endpoints.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// SaveScores godoc
// @Summary Save raw scores and post quarterly grades
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.SaveScoresRequest true "Scores payload"
// @Success 200 {object} response.Envelope
// @Router /grades/scores [post]
func (h *GradeHandler) SaveScores(c *gin.Context) {
	var req service.SaveScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.grades.SaveScores(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Preview godoc
// @Summary Preview quarterly grades without saving
// @Tags Grades
// @Produce json
// @Param assignmentId query string true "Assignment ID"
// @Param quarter query int true "Quarter (1-4)"
// @Success 200 {object} response.Envelope
// @Router /grades/preview [get]
func (h *GradeHandler) Preview(c *gin.Context) {
	assignmentID := c.Query("assignmentId")
	if assignmentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "assignmentId required"))
		return
	}
	quarter, err := parseQuarter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	preview, err := h.grades.Preview(c.Request.Context(), assignmentID, quarter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// ReportCard godoc
// @Summary Student report card for one quarter
// @Tags Grades
// @Produce json
// @Param id path string true "Student ID"
// @Param termId query string true "Term ID"
// @Param quarter query int true "Quarter (1-4)"
// @Success 200 {object} response.Envelope
// @Router /grades/report-card/{id} [get]
func (h *GradeHandler) ReportCard(c *gin.Context) {
	termID := c.Query("termId")
	if termID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "termId required"))
		return
	}
	quarter, err := parseQuarter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	card, err := h.grades.ReportCard(c.Request.Context(), c.Param("id"), termID, quarter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}

func parseQuarter(c *gin.Context) (int, error) {
	raw := c.Query("quarter")
	if raw == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "quarter required")
	}
	quarter, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "quarter must be a number")
	}
	return quarter, nil
}
