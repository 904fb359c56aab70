package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlloySentinel/internal/collector"
	"AlloySentinel/internal/config"
	"AlloySentinel/internal/model"
	"AlloySentinel/internal/notifier"
	"AlloySentinel/internal/store"
)

// seedHistory replays the primary reference source over past months so the
// stored series lines up with what the collector will fetch next.
func seedHistory(t *testing.T, months int, upTo time.Time) model.HistoricalSeries {
	t.Helper()
	col := collector.NewCollector(collector.NewReferenceSource("reference", 0))

	var history model.HistoricalSeries
	for i := months; i >= 1; i-- {
		month := upTo.AddDate(0, -i, 0)
		record, _, err := col.Collect(context.Background(), month)
		require.NoError(t, err)
		history = append(history, *record)
	}
	return history
}

// testPipeline builds a pipeline over a noop store. Mutators run on the
// config before the pipeline is assembled, since the validator snapshots
// its policy at construction.
func testPipeline(t *testing.T, history model.HistoricalSeries, mutate ...func(*config.Config)) *Pipeline {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.Report.OutputDir = t.TempDir()
	for _, m := range mutate {
		m(cfg)
	}

	col := collector.NewCollector(
		collector.NewReferenceSource("reference", 0),
		collector.NewReferenceSource("secondary", -0.015),
	)
	mail := notifier.NewEmailNotifier("", 587, "", "", "", "") // disabled
	return New(cfg, col, store.NewNoopStore(history), mail)
}

func TestRunFullCycle(t *testing.T) {
	target := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p := testPipeline(t, seedHistory(t, 15, target))

	summary, err := p.Run(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, "2025-06", summary.Month)
	assert.True(t, summary.Accepted)
	assert.Greater(t, summary.Surcharge, 0.0)
	require.NotNil(t, summary.Validation)
	assert.True(t, summary.Validation.Valid)
	assert.False(t, summary.EmailSent)

	// One forecast per material plus the surcharge itself.
	require.Len(t, summary.Forecasts, 4)
	for _, m := range model.Materials {
		res, ok := summary.Forecasts[string(m)]
		require.True(t, ok, "missing forecast for %s", m)
		assert.True(t, res.Available, "forecast for %s unavailable", m)
	}
	sf := summary.Forecasts[model.SurchargeSeries]
	require.True(t, sf.Available)
	assert.Len(t, sf.Points, 6)

	require.Len(t, summary.Reports, 3)
	for name, path := range summary.Reports {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("report %s missing at %s: %v", name, path, err)
		}
	}

	loaded, err := p.store.LoadHistory()
	require.NoError(t, err)
	assert.Len(t, loaded, 16)
}

func TestRunRejectsDuplicateMonth(t *testing.T) {
	target := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	history := seedHistory(t, 3, target.AddDate(0, 1, 0)) // includes 2025-06
	p := testPipeline(t, history)

	_, err := p.Run(context.Background(), target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already recorded")
}

func TestRunExcludesInvalidRecord(t *testing.T) {
	target := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// A floor above the collected chromium price makes the record fail
	// range validation; without halt the run completes but excludes it.
	p := testPipeline(t, seedHistory(t, 15, target), func(cfg *config.Config) {
		cfg.Validation.Ranges["chromium"] = config.Bounds{Min: 50000, Max: 60000}
	})

	summary, err := p.Run(context.Background(), target)
	require.NoError(t, err)
	assert.False(t, summary.Accepted)
	assert.False(t, summary.Validation.Valid)

	loaded, err := p.store.LoadHistory()
	require.NoError(t, err)
	assert.Len(t, loaded, 15) // unchanged
}

func TestRunHaltsOnValidationFailure(t *testing.T) {
	target := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p := testPipeline(t, seedHistory(t, 6, target), func(cfg *config.Config) {
		cfg.Validation.Ranges["chromium"] = config.Bounds{Min: 50000, Max: 60000}
		cfg.Validation.HaltOnFailure = true
	})

	_, err := p.Run(context.Background(), target)
	assert.Error(t, err)
}

func TestRunBypassAcceptsFailedRecord(t *testing.T) {
	target := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p := testPipeline(t, seedHistory(t, 6, target), func(cfg *config.Config) {
		cfg.Validation.Ranges["chromium"] = config.Bounds{Min: 50000, Max: 60000}
		cfg.Validation.Bypass = true
	})

	summary, err := p.Run(context.Background(), target)
	require.NoError(t, err)
	assert.True(t, summary.Accepted)
	assert.True(t, summary.Validation.Bypassed)
	assert.NotEmpty(t, summary.Validation.Issues)
}

func TestRunForecastingDisabled(t *testing.T) {
	target := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p := testPipeline(t, seedHistory(t, 15, target), func(cfg *config.Config) {
		cfg.Forecast.Enabled = false
	})

	summary, err := p.Run(context.Background(), target)
	require.NoError(t, err)
	assert.True(t, summary.Accepted)
	assert.Empty(t, summary.Forecasts)
}
