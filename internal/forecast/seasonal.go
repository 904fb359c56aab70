package forecast

import "gonum.org/v1/gonum/stat"

// acfThreshold is the minimum lag-autocorrelation treated as real seasonal
// structure rather than noise.
const acfThreshold = 0.3

// DetectSeasonality tests a series for periodic structure via the
// autocorrelation of its first differences at the given lag. Differencing
// first keeps a strong trend from masquerading as seasonality. Needs at
// least two full periods of differenced data.
func DetectSeasonality(series []float64, period int) bool {
	if period <= 1 || len(series) < 2*period+1 {
		return false
	}
	diffed := difference(series, 1)
	if len(diffed) < 2*period {
		return false
	}
	return autocorrelation(diffed, period) > acfThreshold
}

// autocorrelation computes the lag-k sample autocorrelation.
func autocorrelation(series []float64, lag int) float64 {
	n := len(series)
	if lag >= n {
		return 0
	}
	mean := stat.Mean(series, nil)
	var num, den float64
	for t := 0; t < n; t++ {
		d := series[t] - mean
		den += d * d
		if t+lag < n {
			num += d * (series[t+lag] - mean)
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// difference applies d rounds of first differencing.
func difference(series []float64, d int) []float64 {
	out := series
	for i := 0; i < d; i++ {
		if len(out) < 2 {
			return nil
		}
		next := make([]float64, len(out)-1)
		for t := 1; t < len(out); t++ {
			next[t-1] = out[t] - out[t-1]
		}
		out = next
	}
	return out
}

// seasonalDifference subtracts the value one period back.
func seasonalDifference(series []float64, period int) []float64 {
	if len(series) <= period {
		return nil
	}
	out := make([]float64, len(series)-period)
	for t := period; t < len(series); t++ {
		out[t-period] = series[t] - series[t-period]
	}
	return out
}
