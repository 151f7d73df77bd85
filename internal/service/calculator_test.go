package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-grading-api/internal/models"
)

func defaultTestRubric() models.GradeRubric {
	return models.GradeRubric{WrittenWork: 40, PerformanceTask: 40, QuarterlyAssessment: 20}
}

func quarterAssessments() []models.Assessment {
	return []models.Assessment{
		{ID: "ww1", Component: models.ComponentWrittenWork, MaxScore: 20},
		{ID: "ww2", Component: models.ComponentWrittenWork, MaxScore: 15},
		{ID: "ww3", Component: models.ComponentWrittenWork, MaxScore: 25},
		{ID: "pt1", Component: models.ComponentPerformanceTask, MaxScore: 50},
		{ID: "pt2", Component: models.ComponentPerformanceTask, MaxScore: 40},
		{ID: "qa1", Component: models.ComponentQuarterlyAssessment, MaxScore: 100},
	}
}

func TestComputeQuarterGrade(t *testing.T) {
	rubric := defaultTestRubric()
	assessments := quarterAssessments()

	t.Run("weighted components", func(t *testing.T) {
		scores := map[string]float64{
			"ww1": 18, "ww2": 13, "ww3": 22,
			"pt1": 45, "pt2": 36,
			"qa1": 85,
		}
		assert.InDelta(t, 88.33, ComputeQuarterGrade(rubric, assessments, scores), 0.001)
	})

	t.Run("fractional component percentages round once", func(t *testing.T) {
		scores := map[string]float64{
			"ww1": 19, "ww2": 14, "ww3": 24,
			"pt1": 48, "pt2": 38,
			"qa1": 91,
		}
		assert.InDelta(t, 94.42, ComputeQuarterGrade(rubric, assessments, scores), 0.001)
	})

	t.Run("missing scores count as zero", func(t *testing.T) {
		scores := map[string]float64{"qa1": 100}
		assert.InDelta(t, 20.0, ComputeQuarterGrade(rubric, assessments, scores), 0.001)
	})

	t.Run("component without assessments contributes zero", func(t *testing.T) {
		wwOnly := []models.Assessment{
			{ID: "ww1", Component: models.ComponentWrittenWork, MaxScore: 50},
		}
		scores := map[string]float64{"ww1": 50}
		assert.InDelta(t, 40.0, ComputeQuarterGrade(rubric, wwOnly, scores), 0.001)
	})

	t.Run("zero total max contributes zero", func(t *testing.T) {
		zeroMax := []models.Assessment{
			{ID: "ww1", Component: models.ComponentWrittenWork, MaxScore: 0},
			{ID: "qa1", Component: models.ComponentQuarterlyAssessment, MaxScore: 100},
		}
		scores := map[string]float64{"ww1": 10, "qa1": 50}
		assert.InDelta(t, 10.0, ComputeQuarterGrade(rubric, zeroMax, scores), 0.001)
	})

	t.Run("no assessments at all", func(t *testing.T) {
		assert.Zero(t, ComputeQuarterGrade(rubric, nil, nil))
	})

	t.Run("weights applied without normalization", func(t *testing.T) {
		skewed := models.GradeRubric{WrittenWork: 50, PerformanceTask: 30, QuarterlyAssessment: 10}
		perfect := map[string]float64{
			"ww1": 20, "ww2": 15, "ww3": 25,
			"pt1": 50, "pt2": 40,
			"qa1": 100,
		}
		assert.InDelta(t, 90.0, ComputeQuarterGrade(skewed, assessments, perfect), 0.001)
	})

	t.Run("deterministic", func(t *testing.T) {
		scores := map[string]float64{
			"ww1": 18, "ww2": 13, "ww3": 22,
			"pt1": 45, "pt2": 36,
			"qa1": 85,
		}
		first := ComputeQuarterGrade(rubric, assessments, scores)
		for i := 0; i < 100; i++ {
			assert.Equal(t, first, ComputeQuarterGrade(rubric, assessments, scores))
		}
	})
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0.0, ClampScore(-5, 20))
	assert.Equal(t, 20.0, ClampScore(25, 20))
	assert.Equal(t, 12.5, ClampScore(12.5, 20))
	assert.Equal(t, 0.0, ClampScore(3, 0))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 88.33, Round2(88.3333))
	assert.Equal(t, 94.42, Round2(94.4222))
	assert.Equal(t, 75.01, Round2(75.005))
	assert.Equal(t, -75.01, Round2(-75.005))
}

func TestGeneralAverage(t *testing.T) {
	t.Run("averages present grades only", func(t *testing.T) {
		avg := GeneralAverage([]float64{88.33, 94.42})
		require.NotNil(t, avg)
		assert.InDelta(t, 91.38, *avg, 0.001)
	})

	t.Run("nil for empty input", func(t *testing.T) {
		assert.Nil(t, GeneralAverage(nil))
	})
}

func TestBlendRemedial(t *testing.T) {
	assert.Equal(t, 77.0, BlendRemedial(70, 84))
	assert.Equal(t, 72.5, BlendRemedial(70, 75))
	assert.Equal(t, 74.38, BlendRemedial(73.75, 75))
}
