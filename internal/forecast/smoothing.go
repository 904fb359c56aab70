package forecast

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"AlloySentinel/internal/model"
)

var (
	smoothingAlphas = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}
	smoothingBetas  = []float64{0.05, 0.1, 0.2, 0.3, 0.5}
	smoothingGammas = []float64{0.05, 0.1, 0.2, 0.3, 0.5}
)

// Smoothing is Holt's additive-trend exponential smoothing, extended to
// additive Holt-Winters when a seasonal period is set and the series is
// long enough for it. Smoothing weights are grid-searched on one-step
// in-sample error.
type Smoothing struct {
	seasonalPeriod int

	fitted   bool
	seasonal bool
	level    float64
	trend    float64
	seas     []float64 // per-observation seasonal indices, empty when non-seasonal
	n        int
	residStd float64
}

// NewSmoothing returns an unfitted smoothing model. period <= 1 disables
// the seasonal component outright.
func NewSmoothing(period int) *Smoothing {
	return &Smoothing{seasonalPeriod: period}
}

func (s *Smoothing) Kind() model.ModelKind { return model.ModelSmoothing }

// Fit grid-searches the smoothing weights, keeping the combination with
// the lowest one-step-ahead squared error.
func (s *Smoothing) Fit(series []float64) error {
	if len(series) < 4 {
		return errors.New("smoothing: need at least 4 observations")
	}
	s.fitted = false
	s.seasonal = s.seasonalPeriod > 1 && len(series) >= 2*s.seasonalPeriod

	bestSSE := math.Inf(1)
	var best smoothState
	gammas := []float64{0}
	if s.seasonal {
		gammas = smoothingGammas
	}
	for _, alpha := range smoothingAlphas {
		for _, beta := range smoothingBetas {
			for _, gamma := range gammas {
				st, sse, ok := s.run(series, alpha, beta, gamma)
				if ok && sse < bestSSE {
					bestSSE = sse
					best = st
				}
			}
		}
	}
	if math.IsInf(bestSSE, 1) {
		return errors.New("smoothing: no weight combination converged")
	}

	s.level = best.level
	s.trend = best.trend
	s.seas = best.seas
	s.n = len(series)
	if best.steps > 1 {
		s.residStd = math.Sqrt(bestSSE / float64(best.steps-1))
	}
	s.fitted = true
	return nil
}

type smoothState struct {
	level, trend float64
	seas         []float64
	steps        int
}

// run executes one smoothing pass and reports the in-sample SSE of the
// one-step forecasts.
func (s *Smoothing) run(series []float64, alpha, beta, gamma float64) (smoothState, float64, bool) {
	if s.seasonal {
		return s.runSeasonal(series, alpha, beta, gamma)
	}
	level := series[0]
	trend := series[1] - series[0]
	sse := 0.0
	steps := 0
	for t := 1; t < len(series); t++ {
		f := level + trend
		r := series[t] - f
		sse += r * r
		steps++
		prevLevel := level
		level = alpha*series[t] + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
	}
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return smoothState{}, 0, false
	}
	return smoothState{level: level, trend: trend, steps: steps}, sse, true
}

func (s *Smoothing) runSeasonal(series []float64, alpha, beta, gamma float64) (smoothState, float64, bool) {
	m := s.seasonalPeriod
	firstAvg := mean(series[:m])
	secondAvg := mean(series[m : 2*m])

	level := firstAvg
	trend := (secondAvg - firstAvg) / float64(m)
	seas := make([]float64, m, len(series))
	for i := 0; i < m; i++ {
		seas[i] = series[i] - firstAvg
	}

	sse := 0.0
	steps := 0
	for t := m; t < len(series); t++ {
		si := seas[t-m]
		f := level + trend + si
		r := series[t] - f
		sse += r * r
		steps++
		prevLevel := level
		level = alpha*(series[t]-si) + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
		seas = append(seas, gamma*(series[t]-level)+(1-gamma)*si)
	}
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return smoothState{}, 0, false
	}
	return smoothState{level: level, trend: trend, seas: seas, steps: steps}, sse, true
}

// Forecast projects h steps with margins z * residStd * sqrt(step), the
// widening-interval approximation for smoothing models.
func (s *Smoothing) Forecast(horizon int, confidence float64) ([]float64, []float64, []float64, error) {
	if !s.fitted {
		return nil, nil, nil, errors.New("smoothing: model not fitted")
	}
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile((1 + confidence) / 2)

	points := make([]float64, horizon)
	lower := make([]float64, horizon)
	upper := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		p := s.level + float64(i+1)*s.trend
		if s.seasonal {
			p += s.seasonalAt(s.n + i)
		}
		margin := z * s.residStd * math.Sqrt(float64(i+1))
		points[i] = p
		lower[i] = p - margin
		upper[i] = p + margin
	}
	return points, lower, upper, nil
}

// seasonalAt resolves the seasonal index for an observation position past
// the end of the series by walking back whole periods.
func (s *Smoothing) seasonalAt(t int) float64 {
	idx := t - s.seasonalPeriod
	for idx >= len(s.seas) {
		idx -= s.seasonalPeriod
	}
	if idx < 0 {
		return 0
	}
	return s.seas[idx]
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
