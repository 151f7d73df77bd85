package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-grading-api/internal/service"
	appErrors "github.com/noah-isme/sis-grading-api/pkg/errors"
	"github.com/noah-isme/sis-grading-api/pkg/response"
)

// RubricHandler exposes component weight endpoints.
type RubricHandler struct {
	rubrics *service.RubricService
}

// NewRubricHandler constructs handler.
func NewRubricHandler(rubrics *service.RubricService) *RubricHandler {
	return &RubricHandler{rubrics: rubrics}
}

// Get godoc
// @Summary Resolve the rubric in force for a subject
// @Tags Rubrics
// @Produce json
// @Param subjectId path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /rubrics/{subjectId} [get]
func (h *RubricHandler) Get(c *gin.Context) {
	rubric, err := h.rubrics.Resolve(c.Request.Context(), c.Param("subjectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rubric, nil)
}

// Upsert godoc
// @Summary Override component weights for a subject
// @Tags Rubrics
// @Accept json
// @Produce json
// @Param payload body service.UpsertRubricRequest true "Rubric payload"
// @Success 200 {object} response.Envelope
// @Router /rubrics [put]
func (h *RubricHandler) Upsert(c *gin.Context) {
	var req service.UpsertRubricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rubric, err := h.rubrics.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rubric, nil)
}
