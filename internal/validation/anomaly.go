package validation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"AlloySentinel/internal/model"
)

const checkAnomaly = "anomaly"

// CheckAnomaly z-scores a candidate value against a trailing window of the
// same field. Returns nil when the window is too small or has no variance:
// without signal there is nothing to flag.
func CheckAnomaly(field string, value float64, window []float64, zLimit float64, minWindow int) *model.ValidationIssue {
	if len(window) < minWindow {
		return nil
	}
	mean := stat.Mean(window, nil)
	sigma := math.Sqrt(stat.Variance(window, nil)) // sample variance, n-1
	if sigma == 0 {
		return nil
	}
	z := (value - mean) / sigma
	if math.Abs(z) <= zLimit {
		return nil
	}
	return &model.ValidationIssue{
		Severity: model.SeverityWarning,
		Check:    checkAnomaly,
		Field:    field,
		Message: fmt.Sprintf("%s value ($%.2f) has a z-score of %.2f against the trailing %d-month window (mean $%.2f), outside ±%.1f std dev",
			field, value, z, len(window), mean, zLimit),
	}
}
