package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"AlloySentinel/internal/config"
	"AlloySentinel/internal/model"
)

const (
	// Relative move (first vs last point forecast) below which the trend
	// is called flat.
	trendFlatPct = 1.0
	// Per-series move over the horizon worth calling out.
	seriesInsightPct = 10.0
	// Largest single-month move worth calling out.
	monthMoveInsightPct = 8.0
)

// Engine selects between the candidate models by holdout error and turns
// the winner's projection into a ForecastResult. It is a pure function of
// the series and the configuration; repeated runs on the same input pick
// the same model.
type Engine struct {
	cfg config.ForecastConfig
}

// NewEngine returns an engine with the given parameters.
func NewEngine(cfg config.ForecastConfig) *Engine {
	return &Engine{cfg: cfg}
}

type candidate struct {
	build func() Model
	mae   float64
	rmse  float64
	ok    bool
}

// Forecast projects the series over the configured horizon. lastMonth is
// the month of the final observation; forecast points follow it. A series
// shorter than the configured minimum, or one no candidate model can fit,
// yields Available=false rather than an error.
func (e *Engine) Forecast(name string, values []float64, lastMonth time.Time) model.ForecastResult {
	res := model.ForecastResult{SeriesName: name, ConfidenceLevel: e.cfg.ConfidenceLevel}
	if len(values) < e.cfg.MinHistory {
		log.Debug().Str("series", name).Int("observations", len(values)).Int("minimum", e.cfg.MinHistory).
			Msg("not enough history for forecasting")
		return res
	}

	res.SeasonalDetected = DetectSeasonality(values, e.cfg.SeasonalPeriod)

	holdout := e.cfg.HoldoutMonths
	train := values[:len(values)-holdout]
	test := values[len(values)-holdout:]

	// Exponential smoothing first: it wins exact MAE ties as the simpler
	// model.
	smoothing := &candidate{build: func() Model {
		return NewSmoothing(seasonalPeriodFor(res.SeasonalDetected, e.cfg.SeasonalPeriod))
	}}
	arima := &candidate{build: func() Model {
		return NewARIMA(e.cfg.SeasonalPeriod, res.SeasonalDetected)
	}}
	for _, c := range []*candidate{smoothing, arima} {
		m := c.build()
		if err := m.Fit(train); err != nil {
			log.Debug().Str("series", name).Str("model", string(m.Kind())).Err(err).
				Msg("candidate model excluded")
			continue
		}
		pred, _, _, err := m.Forecast(len(test), e.cfg.ConfidenceLevel)
		if err != nil {
			log.Debug().Str("series", name).Str("model", string(m.Kind())).Err(err).
				Msg("candidate model excluded")
			continue
		}
		c.mae = MAE(test, pred)
		c.rmse = RMSE(test, pred)
		c.ok = true
	}

	order := []*candidate{smoothing, arima}
	if arima.ok && (!smoothing.ok || arima.mae < smoothing.mae) {
		order = []*candidate{arima, smoothing}
	}

	for _, c := range order {
		if !c.ok {
			continue
		}
		m := c.build()
		if err := m.Fit(values); err != nil {
			log.Warn().Str("series", name).Str("model", string(m.Kind())).Err(err).
				Msg("refit on full series failed")
			continue
		}
		points, lower, upper, err := m.Forecast(e.cfg.Horizon, e.cfg.ConfidenceLevel)
		if err != nil {
			log.Warn().Str("series", name).Str("model", string(m.Kind())).Err(err).
				Msg("forecast on full series failed")
			continue
		}
		res.Available = true
		res.ModelUsed = m.Kind()
		res.Metrics = model.EvalMetrics{MAE: c.mae, RMSE: c.rmse}
		res.Points = makePoints(lastMonth, points)
		res.Lower = clampNonNegative(lower)
		res.Upper = upper
		clampPoints(res.Points)
		log.Info().Str("series", name).Str("model", string(m.Kind())).
			Float64("mae", c.mae).Float64("rmse", c.rmse).
			Bool("seasonal", res.SeasonalDetected).
			Msg("forecast model selected")
		break
	}
	if !res.Available {
		log.Warn().Str("series", name).Msg("all candidate models failed, forecast unavailable")
		return res
	}

	summarizeTrend(&res)
	return res
}

func seasonalPeriodFor(detected bool, period int) int {
	if !detected {
		return 0
	}
	return period
}

func makePoints(lastMonth time.Time, values []float64) []model.ForecastPoint {
	base := model.NormalizeMonth(lastMonth)
	points := make([]model.ForecastPoint, len(values))
	for i, v := range values {
		points[i] = model.ForecastPoint{Month: base.AddDate(0, i+1, 0), Value: v}
	}
	return points
}

// Prices cannot go negative; point forecasts and lower bounds are floored
// at zero, upper bounds are left alone.
func clampNonNegative(values []float64) []float64 {
	for i, v := range values {
		if v < 0 {
			values[i] = 0
		}
	}
	return values
}

func clampPoints(points []model.ForecastPoint) {
	for i := range points {
		if points[i].Value < 0 {
			points[i].Value = 0
		}
	}
}

// summarizeTrend classifies the horizon's direction and derives the
// callout messages downstream reports and emails embed verbatim.
func summarizeTrend(res *model.ForecastResult) {
	first := res.Points[0].Value
	last := res.Points[len(res.Points)-1].Value
	if first == 0 {
		res.TrendDirection = model.TrendFlat
		res.TrendDescription = "remain relatively stable"
		return
	}
	pct := (last - first) / first * 100
	switch {
	case pct > trendFlatPct:
		res.TrendDirection = model.TrendUp
		res.TrendDescription = fmt.Sprintf("increase by approximately %.1f%%", pct)
	case pct < -trendFlatPct:
		res.TrendDirection = model.TrendDown
		res.TrendDescription = fmt.Sprintf("decrease by approximately %.1f%%", math.Abs(pct))
	default:
		res.TrendDirection = model.TrendFlat
		res.TrendDescription = "remain relatively stable"
	}

	if math.Abs(pct) > seriesInsightPct {
		verb := "increase"
		if pct < 0 {
			verb = "decrease"
		}
		subject := fmt.Sprintf("%s prices are", capitalize(res.SeriesName))
		if res.SeriesName == model.SurchargeSeries {
			subject = "The alloy surcharge is"
		}
		res.Insights = append(res.Insights, model.Insight{
			Series: res.SeriesName,
			Message: fmt.Sprintf("%s projected to %s by %.1f%% over the next %d months.",
				subject, verb, math.Abs(pct), len(res.Points)),
		})
	}

	// Call out the largest single-month move when it is big enough to plan
	// around.
	maxMove := 0.0
	maxIdx := 0
	for i := 1; i < len(res.Points); i++ {
		prev := res.Points[i-1].Value
		if prev == 0 {
			continue
		}
		move := (res.Points[i].Value - prev) / prev * 100
		if math.Abs(move) > math.Abs(maxMove) {
			maxMove = move
			maxIdx = i
		}
	}
	if math.Abs(maxMove) > monthMoveInsightPct {
		direction := "increase"
		if maxMove < 0 {
			direction = "decrease"
		}
		res.Insights = append(res.Insights, model.Insight{
			Series: res.SeriesName,
			Message: fmt.Sprintf("A significant %s of %.1f%% is expected in %s.",
				direction, math.Abs(maxMove), res.Points[maxIdx].Month.Month()),
		})
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
