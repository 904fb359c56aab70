package collector

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"AlloySentinel/internal/calculator"
	"AlloySentinel/internal/model"
	"AlloySentinel/internal/validation"
)

// Collector assembles a candidate PriceRecord for a month from one or
// more sources. The first source that answers is the primary; every
// answering source contributes observations for cross-source checks.
type Collector struct {
	sources []Source
}

// NewCollector creates a collector over the given sources, primary first.
func NewCollector(sources ...Source) *Collector {
	return &Collector{sources: sources}
}

// Collect fetches prices for the month and derives the candidate record.
// Sources that fail are skipped with a warning; all sources failing is an
// error.
func (c *Collector) Collect(ctx context.Context, month time.Time) (*model.PriceRecord, validation.MultiSource, error) {
	var primary model.Prices
	var names []string
	multi := make(validation.MultiSource, len(model.Materials))

	for _, src := range c.sources {
		prices, err := src.Fetch(ctx, month)
		if err != nil {
			log.Warn().Str("source", src.Name()).Err(err).Msg("price source failed, skipping")
			continue
		}
		if primary == nil {
			primary = prices
		}
		names = append(names, src.Name())
		for _, m := range model.Materials {
			multi[m] = append(multi[m], validation.SourcePrice{Source: src.Name(), Value: prices[m]})
		}
	}
	if primary == nil {
		return nil, nil, errors.New("no price source available")
	}

	record, err := calculator.BuildRecord(month, primary, names)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("month", record.MonthKey()).Float64("surcharge", record.TotalSurcharge).
		Strs("sources", names).Msg("candidate record collected")
	return record, multi, nil
}
