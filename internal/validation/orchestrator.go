// Package validation decides whether newly collected price data can be
// trusted. All checks are pure functions over the candidate record, the
// historical series, and the configured thresholds; data-quality findings
// are values, never errors. The only error this package returns for a
// failing record is ErrHalted, and only when the halt policy demands it.
package validation

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"AlloySentinel/internal/config"
	"AlloySentinel/internal/model"
)

// ErrHalted signals that validation failed and the halt policy requires
// processing to stop.
var ErrHalted = errors.New("validation failed and halt_on_failure is set")

// Validator runs all checks against a candidate record.
type Validator struct {
	cfg config.ValidationConfig
}

// New returns a Validator for the given policy and thresholds.
func New(cfg config.ValidationConfig) *Validator {
	return &Validator{cfg: cfg}
}

// MultiSource carries per-source observations for cross-source
// reconciliation, keyed by material in canonical order inside Validate.
type MultiSource map[model.Material][]SourcePrice

// Validate runs range/trend, anomaly, and cross-source checks in that
// order, materials in canonical order within each check, so the issue list
// is deterministic. The three policy flags are applied afterwards:
// disabled validation short-circuits to valid, bypass converts a failure
// into a valid-but-audited result, and halt turns an unbypassed failure
// into ErrHalted.
func (v *Validator) Validate(candidate *model.PriceRecord, history model.HistoricalSeries, sources MultiSource) (*model.ValidationResult, error) {
	if !v.cfg.Enabled {
		log.Debug().Str("month", candidate.MonthKey()).Msg("validation disabled, skipping all checks")
		return &model.ValidationResult{Valid: true}, nil
	}
	if err := history.CheckOrdered(); err != nil {
		return nil, fmt.Errorf("malformed history: %w", err)
	}

	var issues []model.ValidationIssue
	issues = append(issues, CheckRanges(candidate, v.cfg.Ranges)...)
	issues = append(issues, CheckTrend(candidate, history.Last(), v.cfg.TrendChangePct)...)

	window := history.Window(v.cfg.AnomalyWindow)
	for _, m := range model.Materials {
		if is := CheckAnomaly(string(m), candidate.Prices[m], window.MaterialValues(m), v.cfg.ZScoreLimit, v.cfg.MinWindow); is != nil {
			issues = append(issues, *is)
		}
	}
	for _, m := range model.Materials {
		if is := CheckCrossSource(string(m), sources[m], v.cfg.CrossSourcePct); is != nil {
			issues = append(issues, *is)
		}
	}

	result := &model.ValidationResult{Issues: issues}
	result.Valid = result.ErrorCount() == 0
	for _, is := range issues {
		log.Warn().
			Str("check", is.Check).
			Str("field", is.Field).
			Str("severity", string(is.Severity)).
			Msg(is.Message)
	}

	if result.Valid {
		return result, nil
	}
	if v.cfg.Bypass {
		// Processing continues; the issues stay on the result for audit.
		result.Valid = true
		result.Bypassed = true
		log.Warn().Str("month", candidate.MonthKey()).Int("issues", len(result.Issues)).
			Msg("validation failed but bypass_validation is set, continuing")
		return result, nil
	}
	if v.cfg.HaltOnFailure {
		return result, fmt.Errorf("%s: %w", candidate.MonthKey(), ErrHalted)
	}
	return result, nil
}
