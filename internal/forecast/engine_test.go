package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlloySentinel/internal/config"
	"AlloySentinel/internal/model"
)

func engineConfig() config.ForecastConfig {
	return config.ForecastConfig{
		Enabled:         true,
		Horizon:         6,
		ConfidenceLevel: 0.95,
		MinHistory:      12,
		HoldoutMonths:   3,
		SeasonalPeriod:  12,
	}
}

var lastObserved = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

func TestEngineInsufficientHistory(t *testing.T) {
	e := NewEngine(engineConfig())
	res := e.Forecast("surcharge", linearSeries(11, 3000, 10), lastObserved)

	assert.False(t, res.Available)
	assert.Empty(t, res.Points)
}

func TestEngineLinearSeries(t *testing.T) {
	e := NewEngine(engineConfig())
	res := e.Forecast("chromium", linearSeries(24, 10000, 100), lastObserved)

	require.True(t, res.Available)
	require.Len(t, res.Points, 6)
	assert.Equal(t, model.TrendUp, res.TrendDirection)
	assert.Contains(t, res.TrendDescription, "increase")

	// Both candidates reproduce a pure trend exactly; the simpler model
	// wins the tie.
	assert.Equal(t, model.ModelSmoothing, res.ModelUsed)
	assert.InDelta(t, 0, res.Metrics.MAE, 1e-6)

	// Points continue the line month by month.
	for i, p := range res.Points {
		assert.InDelta(t, 10000+100*float64(23+i+1), p.Value, 1e-6)
		wantMonth := time.Date(2025, time.Month(6+i), 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, wantMonth, p.Month)
	}
}

func TestEngineConstantSeries(t *testing.T) {
	e := NewEngine(engineConfig())
	res := e.Forecast("surcharge", constantSeries(18, 3162.7), lastObserved)

	require.True(t, res.Available)
	assert.InDelta(t, 0, res.Metrics.MAE, 1e-9)
	assert.Equal(t, model.TrendFlat, res.TrendDirection)
	assert.Equal(t, "remain relatively stable", res.TrendDescription)
	for _, p := range res.Points {
		assert.InDelta(t, 3162.7, p.Value, 1e-6)
	}
}

func TestEngineDeterministic(t *testing.T) {
	e := NewEngine(engineConfig())
	series := []float64{
		3100, 3180, 3050, 3220, 3140, 3090, 3260, 3170, 3120, 3280,
		3200, 3150, 3310, 3230, 3190, 3350, 3270, 3240,
	}

	first := e.Forecast("surcharge", series, lastObserved)
	require.True(t, first.Available)
	for i := 0; i < 3; i++ {
		again := e.Forecast("surcharge", series, lastObserved)
		assert.Equal(t, first, again)
	}
}

func TestEngineBoundsBracketPoints(t *testing.T) {
	e := NewEngine(engineConfig())
	series := []float64{
		12800, 12910, 12750, 13020, 12870, 12800, 13100, 12950, 12880,
		13150, 13010, 12940, 13220, 13080, 13000,
	}
	res := e.Forecast("chromium", series, lastObserved)

	require.True(t, res.Available)
	require.Len(t, res.Lower, len(res.Points))
	require.Len(t, res.Upper, len(res.Points))
	for i, p := range res.Points {
		assert.LessOrEqual(t, res.Lower[i], p.Value)
		assert.GreaterOrEqual(t, res.Upper[i], p.Value)
		assert.GreaterOrEqual(t, res.Lower[i], 0.0)
	}
}

func TestEngineNonNegativeFloor(t *testing.T) {
	e := NewEngine(engineConfig())
	// Steep decline toward zero: point forecasts and lower bounds must
	// never go negative.
	res := e.Forecast("titanium", linearSeries(14, 1300, -100), lastObserved)

	require.True(t, res.Available)
	for i, p := range res.Points {
		assert.GreaterOrEqual(t, p.Value, 0.0)
		assert.GreaterOrEqual(t, res.Lower[i], 0.0)
	}
}

func TestEngineSeasonalDetection(t *testing.T) {
	e := NewEngine(engineConfig())
	res := e.Forecast("surcharge", sineSeries(36, 12, 10000, 700), lastObserved)

	require.True(t, res.Available)
	assert.True(t, res.SeasonalDetected)
}

func TestEngineSeriesInsight(t *testing.T) {
	e := NewEngine(engineConfig())
	// Strong slope: well over a 10% move across the six-month horizon.
	res := e.Forecast("molybdenum", linearSeries(24, 20000, 800), lastObserved)

	require.True(t, res.Available)
	require.NotEmpty(t, res.Insights)
	assert.Contains(t, res.Insights[0].Message, "Molybdenum prices are")
	assert.Contains(t, res.Insights[0].Message, "increase")
}

func TestEngineSurchargeInsightWording(t *testing.T) {
	e := NewEngine(engineConfig())
	res := e.Forecast(model.SurchargeSeries, linearSeries(24, 3000, 120), lastObserved)

	require.True(t, res.Available)
	require.NotEmpty(t, res.Insights)
	assert.Contains(t, res.Insights[0].Message, "The alloy surcharge is")
}
