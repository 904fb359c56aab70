package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlloySentinel/internal/model"
)

func TestARIMALinearSeries(t *testing.T) {
	a := NewARIMA(12, false)
	series := linearSeries(20, 1000, 10)
	require.NoError(t, a.Fit(series))

	points, lower, upper, err := a.Forecast(3, 0.95)
	require.NoError(t, err)
	require.Len(t, points, 3)

	// A pure trend differences to a constant, which the grid fits with
	// zero residual variance, so the projection continues the line.
	for i, want := range []float64{1200, 1210, 1220} {
		assert.InDelta(t, want, points[i], 1e-6)
		assert.LessOrEqual(t, lower[i], points[i])
		assert.GreaterOrEqual(t, upper[i], points[i])
	}
}

func TestARIMAConstantSeries(t *testing.T) {
	a := NewARIMA(12, false)
	require.NoError(t, a.Fit(constantSeries(20, 500)))

	points, _, _, err := a.Forecast(6, 0.95)
	require.NoError(t, err)
	for _, p := range points {
		assert.InDelta(t, 500, p, 1e-6)
	}
}

func TestARIMANoisySeriesBounds(t *testing.T) {
	a := NewARIMA(12, false)
	series := []float64{
		3100, 3180, 3050, 3220, 3140, 3090, 3260, 3170, 3120, 3280,
		3200, 3150, 3310, 3230, 3190, 3350, 3270, 3240,
	}
	require.NoError(t, a.Fit(series))

	points, lower, upper, err := a.Forecast(6, 0.95)
	require.NoError(t, err)

	prevWidth := 0.0
	for i := range points {
		assert.Less(t, lower[i], points[i])
		assert.Greater(t, upper[i], points[i])
		width := upper[i] - lower[i]
		assert.GreaterOrEqual(t, width, prevWidth, "interval %d should not narrow", i)
		prevWidth = width
	}
}

func TestARIMARejectsShortSeries(t *testing.T) {
	a := NewARIMA(12, false)
	assert.Error(t, a.Fit([]float64{1, 2, 3, 4, 5}))
}

func TestARIMAForecastBeforeFit(t *testing.T) {
	a := NewARIMA(12, false)
	_, _, _, err := a.Forecast(3, 0.95)
	assert.Error(t, err)
}

func TestARIMARefit(t *testing.T) {
	a := NewARIMA(12, false)
	require.NoError(t, a.Fit(linearSeries(16, 1000, 10)))
	require.NoError(t, a.Fit(linearSeries(20, 2000, 5)))

	points, _, _, err := a.Forecast(1, 0.95)
	require.NoError(t, err)
	assert.InDelta(t, 2100, points[0], 1e-6)
}

func TestARIMAKind(t *testing.T) {
	assert.Equal(t, model.ModelARIMA, NewARIMA(12, false).Kind())
}

func TestPolyMul(t *testing.T) {
	// (1 - x)(1 - x) = 1 - 2x + x^2
	got := polyMul([]float64{1, -1}, []float64{1, -1})
	assert.Equal(t, []float64{1, -2, 1}, got)
}

func TestErrorMetrics(t *testing.T) {
	actual := []float64{10, 20, 30}
	pred := []float64{12, 18, 33}
	assert.InDelta(t, (2.0+2.0+3.0)/3.0, MAE(actual, pred), 1e-9)
	assert.InDelta(t, 2.3804761, RMSE(actual, pred), 1e-6)

	assert.Zero(t, MAE(nil, nil))
	assert.Zero(t, RMSE(nil, nil))
}
