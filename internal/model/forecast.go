package model

import "time"

// ModelKind names a candidate forecasting model.
type ModelKind string

const (
	ModelARIMA     ModelKind = "ARIMA"
	ModelSmoothing ModelKind = "ExponentialSmoothing"
)

// TrendDirection summarizes where the forecast is headed.
type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

// ForecastPoint is one projected month.
type ForecastPoint struct {
	Month time.Time
	Value float64
}

// EvalMetrics holds holdout accuracy for the selected model.
type EvalMetrics struct {
	MAE  float64
	RMSE float64
}

// Insight is a human-readable callout derived from the forecast.
type Insight struct {
	Series  string
	Message string
}

// ForecastResult is the projection for one series. When Available is false
// (insufficient history or no model converged), all other fields are zero.
type ForecastResult struct {
	SeriesName       string
	Available        bool
	Points           []ForecastPoint
	Lower            []float64
	Upper            []float64
	ModelUsed        ModelKind
	Metrics          EvalMetrics
	ConfidenceLevel  float64
	TrendDirection   TrendDirection
	TrendDescription string
	SeasonalDetected bool
	Insights         []Insight
}
