package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-grading-api/internal/service"
	appErrors "github.com/noah-isme/sis-grading-api/pkg/errors"
	"github.com/noah-isme/sis-grading-api/pkg/response"
)

// AssessmentHandler exposes the graded activity catalog.
type AssessmentHandler struct {
	assessments *service.AssessmentService
}

// NewAssessmentHandler constructs handler.
func NewAssessmentHandler(assessments *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// List godoc
// @Summary List graded activities for an assignment and quarter
// @Tags Assessments
// @Produce json
// @Param assignmentId query string true "Assignment ID"
// @Param quarter query int true "Quarter (1-4)"
// @Success 200 {object} response.Envelope
// @Router /assessments [get]
func (h *AssessmentHandler) List(c *gin.Context) {
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
	assessments, err := h.assessments.List(c.Request.Context(), assignmentID, quarter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessments, nil)
}

// Create godoc
// @Summary Register a graded activity
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body service.CreateAssessmentRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Router /assessments [post]
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req service.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assessment, err := h.assessments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assessment)
}

// Update godoc
// @Summary Edit a graded activity
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Assessment ID"
// @Param payload body service.UpdateAssessmentRequest true "Assessment payload"
// @Success 200 {object} response.Envelope
// @Router /assessments/{id} [put]
func (h *AssessmentHandler) Update(c *gin.Context) {
	var req service.UpdateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assessment, err := h.assessments.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// Delete godoc
// @Summary Delete a graded activity without scores
// @Tags Assessments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 204
// @Router /assessments/{id} [delete]
func (h *AssessmentHandler) Delete(c *gin.Context) {
	if err := h.assessments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
