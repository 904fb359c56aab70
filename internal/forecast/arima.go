package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"AlloySentinel/internal/model"
)

// Bounds of the order search grid.
const (
	maxAROrder   = 2
	maxDiffOrder = 1
	maxMAOrder   = 2
)

// ARIMA fits an autoregressive integrated moving-average model, with the
// order picked by an AIC-ranked search over a bounded (p,d,q) grid.
// Estimation is two-stage least squares (Hannan-Rissanen): a long AR fit
// supplies residual estimates, then AR and MA terms are regressed jointly.
// When the engine detected seasonality and the series covers two full
// periods, a seasonal difference at the period is applied before the grid.
type ARIMA struct {
	seasonalPeriod int
	seasonal       bool

	fitted    bool
	p, d, q   int
	seasDiff  bool
	phi       []float64
	theta     []float64
	intercept float64
	sigma2    float64

	series []float64
	stages [][]float64 // series at each regular differencing stage, stages[0] is post-seasonal
	resid  []float64   // residuals aligned to the fully differenced series
}

// NewARIMA returns an unfitted model. seasonal controls whether a seasonal
// difference at period is attempted.
func NewARIMA(period int, seasonal bool) *ARIMA {
	return &ARIMA{seasonalPeriod: period, seasonal: seasonal}
}

func (a *ARIMA) Kind() model.ModelKind { return model.ModelARIMA }

// Fit searches the order grid and keeps the AIC-best candidate. Grid cells
// whose regression cannot be solved on this series are skipped; if every
// cell fails the model is excluded.
func (a *ARIMA) Fit(series []float64) error {
	if len(series) < 6 {
		return errors.New("arima: need at least 6 observations")
	}
	a.fitted = false
	a.series = series

	base := series
	a.seasDiff = false
	if a.seasonal && a.seasonalPeriod > 1 && len(series) >= 2*a.seasonalPeriod+4 {
		base = seasonalDifference(series, a.seasonalPeriod)
		a.seasDiff = true
	}

	bestAIC := math.Inf(1)
	found := false
	for d := 0; d <= maxDiffOrder; d++ {
		w := difference(base, d)
		if len(w) < 6 {
			continue
		}
		for p := 0; p <= maxAROrder; p++ {
			for q := 0; q <= maxMAOrder; q++ {
				est, err := fitARMA(w, p, q)
				if err != nil {
					continue
				}
				k := float64(p + q + 1)
				aic := float64(est.obs)*math.Log(math.Max(est.sigma2, 1e-12)) + 2*k
				if aic < bestAIC {
					bestAIC = aic
					a.p, a.d, a.q = p, d, q
					a.phi, a.theta = est.phi, est.theta
					a.intercept = est.intercept
					a.sigma2 = est.sigma2
					a.resid = est.resid
					found = true
				}
			}
		}
	}
	if !found {
		return errors.New("arima: no order in the search grid converged")
	}

	// Keep every differencing stage so forecasts can be integrated back.
	a.stages = make([][]float64, a.d+1)
	a.stages[0] = base
	for i := 1; i <= a.d; i++ {
		a.stages[i] = difference(a.stages[i-1], 1)
	}
	a.fitted = true
	return nil
}

type armaFit struct {
	phi, theta []float64
	intercept  float64
	sigma2     float64
	resid      []float64
	obs        int
}

// fitARMA estimates an ARMA(p,q) with intercept on a stationary series.
func fitARMA(w []float64, p, q int) (*armaFit, error) {
	n := len(w)
	if p == 0 && q == 0 {
		mu := mean(w)
		resid := make([]float64, n)
		sse := 0.0
		for i, v := range w {
			resid[i] = v - mu
			sse += resid[i] * resid[i]
		}
		den := float64(n - 1)
		if den < 1 {
			den = 1
		}
		return &armaFit{intercept: mu, sigma2: sse / den, resid: resid, obs: n}, nil
	}

	var innov []float64 // residuals of the long AR stage, aligned to w
	start := p
	if q > 0 {
		long := max(p, q) + 2
		ar, err := olsAR(w, long)
		if err != nil {
			return nil, err
		}
		innov = make([]float64, n)
		for t := long; t < n; t++ {
			pred := ar[0]
			for j := 1; j <= long; j++ {
				pred += ar[j] * w[t-j]
			}
			innov[t] = w[t] - pred
		}
		if long+q > start {
			start = long + q
		}
	}

	rows := n - start
	cols := 1 + p + q
	if rows < cols+2 {
		return nil, fmt.Errorf("arima: %d rows for %d regressors", rows, cols)
	}
	X := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		t := start + i
		X.Set(i, 0, 1)
		for j := 1; j <= p; j++ {
			X.Set(i, j, w[t-j])
		}
		for j := 1; j <= q; j++ {
			X.Set(i, p+j, innov[t-j])
		}
		y.SetVec(i, w[t])
	}
	beta, err := olsSolve(X, y)
	if err != nil {
		return nil, err
	}

	fit := &armaFit{
		intercept: beta[0],
		phi:       beta[1 : 1+p],
		theta:     beta[1+p : 1+p+q],
		resid:     make([]float64, n),
		obs:       rows,
	}
	sse := 0.0
	for i := 0; i < rows; i++ {
		t := start + i
		pred := fit.intercept
		for j := 1; j <= p; j++ {
			pred += fit.phi[j-1] * w[t-j]
		}
		for j := 1; j <= q; j++ {
			pred += fit.theta[j-1] * innov[t-j]
		}
		fit.resid[t] = w[t] - pred
		sse += fit.resid[t] * fit.resid[t]
	}
	den := float64(rows - cols)
	if den < 1 {
		den = 1
	}
	fit.sigma2 = sse / den
	for _, c := range beta {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, errors.New("arima: non-finite coefficients")
		}
	}
	return fit, nil
}

// olsAR fits an AR(order) with intercept and returns [c, a1..aOrder].
func olsAR(w []float64, order int) ([]float64, error) {
	rows := len(w) - order
	cols := order + 1
	if rows < cols+2 {
		return nil, fmt.Errorf("arima: long AR stage has %d rows for %d regressors", rows, cols)
	}
	X := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		t := order + i
		X.Set(i, 0, 1)
		for j := 1; j <= order; j++ {
			X.Set(i, j, w[t-j])
		}
		y.SetVec(i, w[t])
	}
	return olsSolve(X, y)
}

func olsSolve(X *mat.Dense, y *mat.VecDense) ([]float64, error) {
	var qr mat.QR
	qr.Factorize(X)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		return nil, fmt.Errorf("arima: least squares: %w", err)
	}
	out := make([]float64, beta.Len())
	for i := range out {
		out[i] = beta.AtVec(i)
	}
	return out, nil
}

// Forecast projects horizon steps ahead. The ARMA recursion runs on the
// fully differenced series with future innovations at zero, the result is
// integrated back through each differencing stage, and bounds come from
// the psi-weight variance of the integrated process.
func (a *ARIMA) Forecast(horizon int, confidence float64) ([]float64, []float64, []float64, error) {
	if !a.fitted {
		return nil, nil, nil, errors.New("arima: model not fitted")
	}
	w := a.stages[a.d]
	n := len(w)

	ext := make([]float64, n+horizon)
	copy(ext, w)
	for h := 0; h < horizon; h++ {
		t := n + h
		v := a.intercept
		for j := 1; j <= a.p; j++ {
			v += a.phi[j-1] * ext[t-j]
		}
		for j := 1; j <= a.q; j++ {
			if t-j < n {
				v += a.theta[j-1] * a.resid[t-j]
			}
		}
		ext[t] = v
	}
	forecast := ext[n:]

	// Integrate back through the regular differencing stages.
	for k := a.d - 1; k >= 0; k-- {
		level := a.stages[k]
		prev := level[len(level)-1]
		for i := range forecast {
			prev += forecast[i]
			forecast[i] = prev
		}
	}
	// Undo the seasonal difference by adding the value one period back.
	if a.seasDiff {
		nOrig := len(a.series)
		for i := range forecast {
			idx := nOrig + i - a.seasonalPeriod
			if idx < nOrig {
				forecast[i] += a.series[idx]
			} else {
				forecast[i] += forecast[idx-nOrig]
			}
		}
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile((1 + confidence) / 2)
	psi := a.psiWeights(horizon)
	lower := make([]float64, horizon)
	upper := make([]float64, horizon)
	cum := 0.0
	for h := 0; h < horizon; h++ {
		cum += psi[h] * psi[h]
		margin := z * math.Sqrt(a.sigma2*cum)
		if math.IsNaN(forecast[h]) || math.IsInf(forecast[h], 0) {
			return nil, nil, nil, errors.New("arima: forecast diverged")
		}
		lower[h] = forecast[h] - margin
		upper[h] = forecast[h] + margin
	}
	return forecast, lower, upper, nil
}

// psiWeights expands the model into its MA(inf) weights, folding the
// regular and seasonal differencing into the AR polynomial.
func (a *ARIMA) psiWeights(horizon int) []float64 {
	ar := make([]float64, a.p+1)
	ar[0] = 1
	for j := 1; j <= a.p; j++ {
		ar[j] = -a.phi[j-1]
	}
	for i := 0; i < a.d; i++ {
		ar = polyMul(ar, []float64{1, -1})
	}
	if a.seasDiff {
		seas := make([]float64, a.seasonalPeriod+1)
		seas[0] = 1
		seas[a.seasonalPeriod] = -1
		ar = polyMul(ar, seas)
	}

	psi := make([]float64, horizon)
	psi[0] = 1
	for j := 1; j < horizon; j++ {
		v := 0.0
		if j <= a.q {
			v = a.theta[j-1]
		}
		for i := 1; i < len(ar) && i <= j; i++ {
			v -= ar[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}

func polyMul(p1, p2 []float64) []float64 {
	out := make([]float64, len(p1)+len(p2)-1)
	for i, a := range p1 {
		for j, b := range p2 {
			out[i+j] += a * b
		}
	}
	return out
}
