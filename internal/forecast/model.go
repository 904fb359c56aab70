// Package forecast fits time-series models to accepted price history and
// projects future values with confidence bounds. Two candidate models are
// supported, ARIMA and exponential smoothing, behind a uniform contract so
// the engine can evaluate and swap them without caring which is which.
package forecast

import (
	"math"

	"AlloySentinel/internal/model"
)

// Model is the capability contract every candidate implements. Fit must be
// callable more than once (the engine fits on the training split first and
// refits on the full series after selection).
type Model interface {
	Kind() model.ModelKind
	// Fit estimates parameters from the series. A non-nil error means the
	// model could not converge on this data and must be excluded.
	Fit(series []float64) error
	// Forecast projects horizon steps ahead with symmetric bounds at the
	// given confidence level. Fit must have succeeded first.
	Forecast(horizon int, confidence float64) (points, lower, upper []float64, err error)
}

// MAE is the mean absolute error between actuals and predictions.
func MAE(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

// RMSE is the root mean squared error between actuals and predictions.
func RMSE(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	sum := 0.0
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(actual)))
}
