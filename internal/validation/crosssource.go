package validation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"AlloySentinel/internal/model"
)

const checkCrossSource = "cross_source"

// SourcePrice is one source's observation for a single material and month.
type SourcePrice struct {
	Source string
	Value  float64
}

// CheckCrossSource compares same-month observations from multiple sources.
// Disagreement is measured as the max pairwise spread relative to the mean
// of all observations. Fewer than two sources makes this a no-op.
func CheckCrossSource(field string, obs []SourcePrice, tolerancePct float64) *model.ValidationIssue {
	if len(obs) < 2 {
		return nil
	}
	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.Value
	}
	mean := stat.Mean(values, nil)
	if mean == 0 {
		return nil
	}

	maxDev := 0.0
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			dev := math.Abs(values[i]-values[j]) / mean * 100
			if dev > maxDev {
				maxDev = dev
			}
		}
	}
	if maxDev <= tolerancePct {
		return nil
	}
	return &model.ValidationIssue{
		Severity: model.SeverityWarning,
		Check:    checkCrossSource,
		Field:    field,
		Message: fmt.Sprintf("%s sources disagree: max pairwise deviation %.2f%% of the mean ($%.2f) exceeds the %.1f%% tolerance across %d sources",
			field, maxDev, mean, tolerancePct, len(obs)),
	}
}
