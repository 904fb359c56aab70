package calculator

import (
	"fmt"
	"math"
	"time"

	"AlloySentinel/internal/model"
)

// Composition fractions for grade 444 stainless steel, by mass. Midpoints
// of the grade's specified ranges (Cr 17.5-19.5%, Mo 1.75-2.5%, Ti 0.3-0.5%).
var Composition = map[model.Material]float64{
	model.Chromium:   0.185,
	model.Molybdenum: 0.021,
	model.Titanium:   0.004,
}

// SurchargeTolerance is the accepted float drift between the stored total
// and the recomputed sum of contributions.
const SurchargeTolerance = 1e-6

// Contributions derives each element's surcharge contribution from its price.
func Contributions(prices model.Prices) (model.Prices, error) {
	out := make(model.Prices, len(Composition))
	for _, m := range model.Materials {
		price, ok := prices[m]
		if !ok {
			return nil, fmt.Errorf("price for %s not provided", m)
		}
		out[m] = price * Composition[m]
	}
	return out, nil
}

// BuildRecord assembles a candidate PriceRecord for the given month.
func BuildRecord(month time.Time, prices model.Prices, sources []string) (*model.PriceRecord, error) {
	contrib, err := Contributions(prices)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, m := range model.Materials {
		total += contrib[m]
	}
	return &model.PriceRecord{
		Month:          model.NormalizeMonth(month),
		Prices:         prices,
		Contributions:  contrib,
		TotalSurcharge: total,
		DataSources:    sources,
	}, nil
}

// CheckConsistency verifies the record's derived fields: contributions equal
// price times composition fraction and the total equals their sum, both
// within SurchargeTolerance.
func CheckConsistency(r *model.PriceRecord) error {
	sum := 0.0
	for _, m := range model.Materials {
		want := r.Prices[m] * Composition[m]
		if math.Abs(r.Contributions[m]-want) > SurchargeTolerance {
			return fmt.Errorf("%s contribution %.6f does not match price*fraction %.6f", m, r.Contributions[m], want)
		}
		sum += r.Contributions[m]
	}
	if math.Abs(r.TotalSurcharge-sum) > SurchargeTolerance {
		return fmt.Errorf("total surcharge %.6f does not match contribution sum %.6f", r.TotalSurcharge, sum)
	}
	return nil
}
