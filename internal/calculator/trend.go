package calculator

import (
	"errors"

	"AlloySentinel/internal/model"
)

// TrendAnalysis summarizes how the surcharge has moved over the history.
type TrendAnalysis struct {
	LatestMonth      string
	LatestSurcharge  float64
	MonthChangePct   float64 // vs the prior month, 0 with fewer than 2 records
	YearChangePct    float64 // vs 12 months back, 0 when unavailable
	HasYearChange    bool
	AvgSurcharge     float64
	Surcharge3mAvg   float64
	ContributionPcts map[model.Material]float64
}

// MovingAverage computes the simple moving average of the last `period`
// values. Requires at least `period` values.
func MovingAverage(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.New("not enough data for moving average")
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// PercentChange returns (new-old)/old*100. The caller guarantees old != 0.
func PercentChange(oldV, newV float64) float64 {
	return (newV - oldV) / oldV * 100
}

// AnalyzeTrend derives the monthly trend summary used by reports and email.
func AnalyzeTrend(history model.HistoricalSeries) (*TrendAnalysis, error) {
	if len(history) == 0 {
		return nil, errors.New("empty history")
	}
	latest := history.Last()
	ta := &TrendAnalysis{
		LatestMonth:     latest.MonthKey(),
		LatestSurcharge: latest.TotalSurcharge,
	}

	surcharges := history.SurchargeValues()
	sum := 0.0
	for _, v := range surcharges {
		sum += v
	}
	ta.AvgSurcharge = sum / float64(len(surcharges))

	if len(history) >= 2 {
		prev := history[len(history)-2].TotalSurcharge
		if prev > 0 {
			ta.MonthChangePct = PercentChange(prev, latest.TotalSurcharge)
		}
	}
	if len(history) >= 13 {
		yearBack := history[len(history)-13].TotalSurcharge
		if yearBack > 0 {
			ta.YearChangePct = PercentChange(yearBack, latest.TotalSurcharge)
			ta.HasYearChange = true
		}
	}
	if avg3, err := MovingAverage(surcharges, 3); err == nil {
		ta.Surcharge3mAvg = avg3
	}

	// Share of the cumulative surcharge owed to each element.
	totals := make(map[model.Material]float64, len(model.Materials))
	grand := 0.0
	for _, r := range history {
		for _, m := range model.Materials {
			totals[m] += r.Contributions[m]
			grand += r.Contributions[m]
		}
	}
	ta.ContributionPcts = make(map[model.Material]float64, len(model.Materials))
	if grand > 0 {
		for _, m := range model.Materials {
			ta.ContributionPcts[m] = totals[m] / grand * 100
		}
	}
	return ta, nil
}
