package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeHandlerSaveScoresInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGradeHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/grades/scores", bytes.NewReader([]byte(`not-json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.SaveScores(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestGradeHandlerPreviewMissingAssignment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGradeHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/grades/preview?quarter=1", nil)
	c.Request = req

	handler.Preview(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGradeHandlerPreviewBadQuarter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGradeHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/grades/preview?assignmentId=ta-1&quarter=first", nil)
	c.Request = req

	handler.Preview(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "quarter must be a number")
}

func TestGradeHandlerReportCardMissingTerm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGradeHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/grades/report-card/stud-1?quarter=1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "stud-1"}}

	handler.ReportCard(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "termId required")
}
