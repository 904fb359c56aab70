package model

import (
	"fmt"
	"sort"
	"time"
)

// Material identifies one of the alloying elements tracked for grade 444.
type Material string

const (
	Chromium   Material = "chromium"
	Molybdenum Material = "molybdenum"
	Titanium   Material = "titanium"
)

// Materials lists all tracked materials in canonical order.
var Materials = []Material{Chromium, Molybdenum, Titanium}

// SurchargeSeries is the series name used for the derived total surcharge.
const SurchargeSeries = "surcharge"

// Prices maps each material to its price in USD per metric ton.
type Prices map[Material]float64

// PriceRecord is an immutable per-month observation: raw material prices,
// the derived per-element contributions, and the total alloy surcharge.
type PriceRecord struct {
	Month          time.Time
	Prices         Prices
	Contributions  Prices
	TotalSurcharge float64
	DataSources    []string
	Notes          string
}

// MonthKey returns the record's unique key in "2006-01" form.
func (r *PriceRecord) MonthKey() string {
	return r.Month.Format("2006-01")
}

// NormalizeMonth truncates a timestamp to the first day of its month in UTC.
func NormalizeMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// HistoricalSeries is an ordered, month-unique sequence of accepted records.
type HistoricalSeries []PriceRecord

// Sort orders the series by month ascending.
func (s HistoricalSeries) Sort() {
	sort.Slice(s, func(i, j int) bool { return s[i].Month.Before(s[j].Month) })
}

// Last returns the most recent record, or nil for an empty series.
func (s HistoricalSeries) Last() *PriceRecord {
	if len(s) == 0 {
		return nil
	}
	return &s[len(s)-1]
}

// MaterialValues extracts the price series for a single material.
func (s HistoricalSeries) MaterialValues(m Material) []float64 {
	vals := make([]float64, len(s))
	for i := range s {
		vals[i] = s[i].Prices[m]
	}
	return vals
}

// SurchargeValues extracts the total surcharge series.
func (s HistoricalSeries) SurchargeValues() []float64 {
	vals := make([]float64, len(s))
	for i := range s {
		vals[i] = s[i].TotalSurcharge
	}
	return vals
}

// Window returns up to the last n records.
func (s HistoricalSeries) Window(n int) HistoricalSeries {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// CheckOrdered verifies the series is sorted and month-unique. Malformed
// input is a programmer error on the caller's side, so this returns an
// error rather than a validation issue.
func (s HistoricalSeries) CheckOrdered() error {
	for i := 1; i < len(s); i++ {
		if !s[i-1].Month.Before(s[i].Month) {
			return fmt.Errorf("series not ordered/unique at %s", s[i].MonthKey())
		}
	}
	return nil
}
