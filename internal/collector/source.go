package collector

import (
	"context"
	"math"
	"time"

	"AlloySentinel/internal/model"
)

// Source supplies per-material prices for one month. Implementations may
// call out to market data providers; the built-in reference source is
// self-contained.
type Source interface {
	Name() string
	Fetch(ctx context.Context, month time.Time) (model.Prices, error)
}

// Baseline prices, USD/MT, around which the reference source varies.
var referenceBase = model.Prices{
	model.Chromium:   12800,
	model.Molybdenum: 36500,
	model.Titanium:   7050,
}

// ReferenceSource produces deterministic month-seeded prices around the
// baseline. It stands in for a live market feed: same month, same prices,
// which keeps validation and forecasting runs reproducible.
type ReferenceSource struct {
	name string
	bias float64 // constant relative offset, models a second quoting venue
}

// NewReferenceSource returns a source with the given name and relative
// bias (0.02 quotes 2% above the primary curve).
func NewReferenceSource(name string, bias float64) *ReferenceSource {
	return &ReferenceSource{name: name, bias: bias}
}

func (r *ReferenceSource) Name() string { return r.name }

// Fetch derives prices from the month index so consecutive months move
// smoothly with a mild annual cycle.
func (r *ReferenceSource) Fetch(_ context.Context, month time.Time) (model.Prices, error) {
	idx := float64(month.Year()*12 + int(month.Month()))
	phases := map[model.Material]float64{
		model.Chromium:   0,
		model.Molybdenum: 2.1,
		model.Titanium:   4.2,
	}
	prices := make(model.Prices, len(referenceBase))
	for m, base := range referenceBase {
		cycle := 0.03*math.Sin(2*math.Pi*idx/12+phases[m]) + 0.015*math.Sin(idx*0.73+phases[m])
		prices[m] = base * (1 + cycle) * (1 + r.bias)
	}
	return prices, nil
}
