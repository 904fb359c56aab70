package model

import (
	"testing"
	"time"
)

func mustMonth(t *testing.T, key string) time.Time {
	t.Helper()
	m, err := time.Parse("2006-01", key)
	if err != nil {
		t.Fatalf("parse month %s: %v", key, err)
	}
	return m
}

func TestNormalizeMonth(t *testing.T) {
	in := time.Date(2025, 6, 17, 14, 30, 0, 0, time.Local)
	got := NormalizeMonth(in)
	want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NormalizeMonth = %v, want %v", got, want)
	}
}

func TestMonthKey(t *testing.T) {
	r := PriceRecord{Month: mustMonth(t, "2025-03")}
	if r.MonthKey() != "2025-03" {
		t.Errorf("MonthKey = %s, want 2025-03", r.MonthKey())
	}
}

func TestSeriesSortAndWindow(t *testing.T) {
	s := HistoricalSeries{
		{Month: mustMonth(t, "2025-03"), TotalSurcharge: 3},
		{Month: mustMonth(t, "2025-01"), TotalSurcharge: 1},
		{Month: mustMonth(t, "2025-02"), TotalSurcharge: 2},
	}
	s.Sort()
	if got := s.Last().TotalSurcharge; got != 3 {
		t.Errorf("Last = %v, want 3", got)
	}
	w := s.Window(2)
	if len(w) != 2 || w[0].TotalSurcharge != 2 {
		t.Errorf("Window(2) = %v", w.SurchargeValues())
	}
	if got := s.Window(10); len(got) != 3 {
		t.Errorf("Window(10) returned %d records, want all 3", len(got))
	}
}

func TestCheckOrdered(t *testing.T) {
	ok := HistoricalSeries{
		{Month: mustMonth(t, "2025-01")},
		{Month: mustMonth(t, "2025-02")},
	}
	if err := ok.CheckOrdered(); err != nil {
		t.Errorf("ordered series rejected: %v", err)
	}

	dup := HistoricalSeries{
		{Month: mustMonth(t, "2025-01")},
		{Month: mustMonth(t, "2025-01")},
	}
	if err := dup.CheckOrdered(); err == nil {
		t.Error("duplicate months not rejected")
	}

	rev := HistoricalSeries{
		{Month: mustMonth(t, "2025-02")},
		{Month: mustMonth(t, "2025-01")},
	}
	if err := rev.CheckOrdered(); err == nil {
		t.Error("unordered series not rejected")
	}
}

func TestMaterialValues(t *testing.T) {
	s := HistoricalSeries{
		{Month: mustMonth(t, "2025-01"), Prices: Prices{Chromium: 100}},
		{Month: mustMonth(t, "2025-02"), Prices: Prices{Chromium: 200}},
	}
	vals := s.MaterialValues(Chromium)
	if len(vals) != 2 || vals[0] != 100 || vals[1] != 200 {
		t.Errorf("MaterialValues = %v", vals)
	}
}

func TestErrorCount(t *testing.T) {
	r := ValidationResult{Issues: []ValidationIssue{
		{Severity: SeverityWarning},
		{Severity: SeverityError},
		{Severity: SeverityWarning},
	}}
	if got := r.ErrorCount(); got != 1 {
		t.Errorf("ErrorCount = %d, want 1", got)
	}
}
