package models

// GradeCategory is the banded label derived from a mean score.
type GradeCategory string

const (
	GradeExcellent GradeCategory = "excellent"
	GradeVeryGood  GradeCategory = "very_good"
	GradeGood      GradeCategory = "good"
	GradePassed    GradeCategory = "passed"
	GradeFailed    GradeCategory = "failed"
)

// GradeCategories lists every category from best to worst.
var GradeCategories = []GradeCategory{GradeExcellent, GradeVeryGood, GradeGood, GradePassed, GradeFailed}

var gradeRanks = map[GradeCategory]int{
	GradeExcellent: 5,
	GradeVeryGood:  4,
	GradeGood:      3,
	GradePassed:    2,
	GradeFailed:    1,
}

// Rank orders categories for sorting; unknown labels rank below failed.
func (g GradeCategory) Rank() int {
	return gradeRanks[g]
}

// Valid reports whether g is one of the known categories.
func (g GradeCategory) Valid() bool {
	_, ok := gradeRanks[g]
	return ok
}

// GradeScale holds inclusive lower bounds for each passing band.
type GradeScale struct {
	Excellent float64
	VeryGood  float64
	Good      float64
	Passed    float64
}

var (
	// DefaultGradeScale bands per-record enrichment scores.
	DefaultGradeScale = GradeScale{Excellent: 90, VeryGood: 80, Good: 70, Passed: 50}
	// DefaultDashboardGradeScale buckets final training results on the dashboard.
	DefaultDashboardGradeScale = GradeScale{Excellent: 85, VeryGood: 75, Good: 65, Passed: 50}
)

// NewGradeScale builds a scale from four descending bounds, falling back to the given scale
// when the slice has the wrong length.
func NewGradeScale(bounds []float64, fallback GradeScale) GradeScale {
	if len(bounds) != 4 {
		return fallback
	}
	return GradeScale{Excellent: bounds[0], VeryGood: bounds[1], Good: bounds[2], Passed: bounds[3]}
}

// Classify returns the category for score.
func (s GradeScale) Classify(score float64) GradeCategory {
	switch {
	case score >= s.Excellent:
		return GradeExcellent
	case score >= s.VeryGood:
		return GradeVeryGood
	case score >= s.Good:
		return GradeGood
	case score >= s.Passed:
		return GradePassed
	default:
		return GradeFailed
	}
}
