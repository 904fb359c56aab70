// Package pipeline runs one complete monthly update: collect, validate,
// persist, analyze, forecast, report, notify.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"AlloySentinel/internal/calculator"
	"AlloySentinel/internal/collector"
	"AlloySentinel/internal/config"
	"AlloySentinel/internal/forecast"
	"AlloySentinel/internal/model"
	"AlloySentinel/internal/notifier"
	"AlloySentinel/internal/report"
	"AlloySentinel/internal/store"
	"AlloySentinel/internal/validation"
)

// Pipeline wires the collaborators around the validation and forecasting
// core for one scheduled run.
type Pipeline struct {
	cfg       *config.Config
	collector *collector.Collector
	store     store.Store
	validator *validation.Validator
	engine    *forecast.Engine
	notifier  *notifier.EmailNotifier
	reporter  *report.Generator
}

// New assembles a pipeline from its collaborators.
func New(cfg *config.Config, col *collector.Collector, st store.Store, mail *notifier.EmailNotifier) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		collector: col,
		store:     st,
		validator: validation.New(cfg.Validation),
		engine:    forecast.NewEngine(cfg.Forecast),
		notifier:  mail,
		reporter:  report.NewGenerator(cfg.Report.OutputDir),
	}
}

// Summary describes what one run did.
type Summary struct {
	RunID      string
	Month      string
	Surcharge  float64
	Accepted   bool
	Validation *model.ValidationResult
	Forecasts  map[string]model.ForecastResult
	Reports    map[string]string
	EmailSent  bool
}

// Run executes one monthly cycle for the given month. It returns an error
// only for fatal conditions: collection failure, storage failure, or a
// validation failure under the halt policy. A validation failure without
// halt excludes the record but still reports and notifies.
func (p *Pipeline) Run(ctx context.Context, month time.Time) (*Summary, error) {
	runID := uuid.NewString()
	monthKey := model.NormalizeMonth(month).Format("2006-01")
	log.Info().Str("run_id", runID).Str("month", monthKey).Msg("monthly update starting")

	history, err := p.store.LoadHistory()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	for _, r := range history {
		if r.MonthKey() == monthKey {
			return nil, fmt.Errorf("month %s already recorded", monthKey)
		}
	}

	candidate, multiSource, err := p.collector.Collect(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	if err := calculator.CheckConsistency(candidate); err != nil {
		return nil, fmt.Errorf("candidate record inconsistent: %w", err)
	}

	vres, verr := p.validator.Validate(candidate, history, multiSource)
	if vres != nil {
		if err := p.store.RecordValidation(runID, monthKey, vres); err != nil {
			log.Error().Err(err).Msg("record validation result")
		}
	}
	if verr != nil {
		return nil, fmt.Errorf("validate: %w", verr)
	}

	summary := &Summary{
		RunID:      runID,
		Month:      monthKey,
		Surcharge:  candidate.TotalSurcharge,
		Validation: vres,
		Forecasts:  make(map[string]model.ForecastResult, 4),
	}

	// An invalid, unbypassed record is excluded from the series but the
	// run keeps going so the failure reaches the report and the email.
	if vres.Valid {
		if err := p.store.AppendRecord(candidate); err != nil {
			return nil, fmt.Errorf("append record: %w", err)
		}
		history = append(history, *candidate)
		summary.Accepted = true
	} else {
		log.Warn().Str("month", monthKey).Msg("record excluded from history after validation failure")
	}

	trend, err := calculator.AnalyzeTrend(history)
	if err != nil {
		log.Warn().Err(err).Msg("trend analysis unavailable")
		trend = nil
	}

	if p.cfg.Forecast.Enabled {
		lastMonth := month
		if last := history.Last(); last != nil {
			lastMonth = last.Month
		}
		for _, m := range model.Materials {
			res := p.engine.Forecast(string(m), history.MaterialValues(m), lastMonth)
			summary.Forecasts[string(m)] = res
			p.recordForecast(runID, res)
		}
		res := p.engine.Forecast(model.SurchargeSeries, history.SurchargeValues(), lastMonth)
		summary.Forecasts[model.SurchargeSeries] = res
		p.recordForecast(runID, res)
	} else {
		log.Info().Msg("forecasting disabled")
	}

	paths, err := p.reporter.GenerateAll(history, trend, summary.Forecasts)
	if err != nil {
		log.Error().Err(err).Msg("report generation failed")
	} else {
		summary.Reports = paths
	}

	if p.notifier != nil && p.notifier.Enabled() {
		subject := fmt.Sprintf("Alloy Surcharge Update %s: $%.2f/MT", monthKey, candidate.TotalSurcharge)
		if !vres.Valid || vres.Bypassed {
			subject = "[ATTENTION] " + subject
		}
		body := notifier.FormatMonthlySummary(candidate, trend, vres, summary.Forecasts)
		if err := p.notifier.SendWithRetry(ctx, subject, body, 3); err != nil {
			log.Error().Err(err).Msg("email notification failed")
		} else {
			summary.EmailSent = true
		}
	}

	log.Info().Str("run_id", runID).Bool("accepted", summary.Accepted).
		Bool("email_sent", summary.EmailSent).Msg("monthly update finished")
	return summary, nil
}

func (p *Pipeline) recordForecast(runID string, res model.ForecastResult) {
	if err := p.store.RecordForecast(runID, &res); err != nil {
		log.Error().Err(err).Str("series", res.SeriesName).Msg("record forecast result")
	}
}
