package notifier

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlloySentinel/internal/calculator"
	"AlloySentinel/internal/model"
)

func summaryFixtures(t *testing.T) (*model.PriceRecord, *calculator.TrendAnalysis) {
	t.Helper()
	month := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	record, err := calculator.BuildRecord(month, model.Prices{
		model.Chromium:   12800,
		model.Molybdenum: 36500,
		model.Titanium:   7050,
	}, []string{"reference"})
	require.NoError(t, err)

	trend, err := calculator.AnalyzeTrend(model.HistoricalSeries{*record})
	require.NoError(t, err)
	return record, trend
}

func TestFormatMonthlySummary(t *testing.T) {
	record, trend := summaryFixtures(t)
	vres := &model.ValidationResult{Valid: true}
	forecasts := map[string]model.ForecastResult{
		model.SurchargeSeries: {
			SeriesName:       model.SurchargeSeries,
			Available:        true,
			ModelUsed:        model.ModelSmoothing,
			TrendDescription: "increase by approximately 4.2%",
			Points:           make([]model.ForecastPoint, 6),
			Insights: []model.Insight{
				{Series: model.SurchargeSeries, Message: "The alloy surcharge is projected to increase by 12.0% over the next 6 months."},
			},
		},
	}

	body := FormatMonthlySummary(record, trend, vres, forecasts)

	assert.Contains(t, body, "Stainless 444 Alloy Surcharge Update | 2025-06")
	assert.Contains(t, body, "Total surcharge")
	for _, m := range model.Materials {
		assert.Contains(t, body, string(m))
	}
	assert.Contains(t, body, "Data validation: passed")
	assert.Contains(t, body, "expected to increase by approximately 4.2% over the next 6 months")
	assert.Contains(t, body, "projected to increase by 12.0%")
}

func TestFormatMonthlySummaryBypassed(t *testing.T) {
	record, trend := summaryFixtures(t)
	vres := &model.ValidationResult{
		Valid:    true,
		Bypassed: true,
		Issues: []model.ValidationIssue{
			{Severity: model.SeverityError, Check: "range", Field: "chromium", Message: "chromium price out of range"},
		},
	}

	body := FormatMonthlySummary(record, trend, vres, nil)
	assert.Contains(t, body, "FAILED (bypassed, processing continued)")
	assert.Contains(t, body, "[error] chromium price out of range")
}

func TestFormatMonthlySummaryUnavailableForecast(t *testing.T) {
	record, trend := summaryFixtures(t)
	forecasts := map[string]model.ForecastResult{
		string(model.Chromium): {SeriesName: string(model.Chromium)},
	}

	body := FormatMonthlySummary(record, trend, &model.ValidationResult{Valid: true}, forecasts)
	assert.Contains(t, body, "chromium: forecast unavailable")
}

func TestEmailNotifierEnabled(t *testing.T) {
	off := NewEmailNotifier("", 587, "", "", "", "")
	assert.False(t, off.Enabled())
	assert.Error(t, off.Send("subject", "body"))

	on := NewEmailNotifier("smtp.example.com", 587, "user", "pass", "", "ops@example.com")
	assert.True(t, on.Enabled())
	// Sender falls back to the username when unset.
	assert.Equal(t, "user", on.Sender)
}

func TestFormatMonthlySummaryNoTrendNoValidation(t *testing.T) {
	record, _ := summaryFixtures(t)
	body := FormatMonthlySummary(record, nil, nil, nil)
	assert.Contains(t, body, "Total surcharge")
	assert.False(t, strings.Contains(body, "Trend:"))
	assert.False(t, strings.Contains(body, "Data validation"))
}
