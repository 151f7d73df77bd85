package service

import (
	"math"

	"github.com/noah-isme/sis-grading-api/internal/models"
)

// The quarterly grade math lives in pure functions so the live preview
// and the persisted save share one code path and the arithmetic is
// testable without a database.

// ClampScore bounds a raw score to [0, maxScore]. Scores are clamped at
// write time and never stored out of range.
func ClampScore(score, maxScore float64) float64 {
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// Round2 rounds to two decimals, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeQuarterGrade turns raw scores into one learner's quarterly
// percentage grade.
//
// Each component (WW, PT, QA) is taken independently: a component with no
// assessments, or whose max scores sum to zero, contributes 0 regardless
// of its weight. Otherwise the component percentage is the clamped score
// sum over the max sum, scaled by the rubric weight. Missing scores count
// as 0. Weights are applied exactly as stored; the calculator performs no
// normalization even when they do not sum to 100.
func ComputeQuarterGrade(rubric models.GradeRubric, assessments []models.Assessment, scores map[string]float64) float64 {
	total := 0.0
	for _, component := range models.Components {
		total += componentContribution(component, rubric, assessments, scores)
	}
	return Round2(total)
}

func componentContribution(component models.GradeComponent, rubric models.GradeRubric, assessments []models.Assessment, scores map[string]float64) float64 {
	var maxSum, scoreSum float64
	for _, a := range assessments {
		if a.Component != component {
			continue
		}
		maxSum += a.MaxScore
		scoreSum += ClampScore(scores[a.ID], a.MaxScore)
	}
	if maxSum == 0 {
		return 0
	}
	percentage := scoreSum / maxSum * 100
	return percentage * float64(rubric.Weight(component)) / 100
}

// GeneralAverage is the mean of the grades present on a learner's board
// row. Subjects without a posted grade are excluded, not counted as zero.
// Returns nil when no grade is present.
func GeneralAverage(grades []float64) *float64 {
	if len(grades) == 0 {
		return nil
	}
	sum := 0.0
	for _, g := range grades {
		sum += g
	}
	avg := Round2(sum / float64(len(grades)))
	return &avg
}

// BlendRemedial recomputes a failing final rating against the remedial
// class mark: the plain average of the two, rounded to two decimals.
func BlendRemedial(finalRating, remedialClassMark float64) float64 {
	return Round2((finalRating + remedialClassMark) / 2)
}
