package validation

import (
	"fmt"

	"AlloySentinel/internal/calculator"
	"AlloySentinel/internal/config"
	"AlloySentinel/internal/model"
)

const (
	checkRange = "range"
	checkTrend = "trend"
)

// CheckRanges verifies each material price sits inside its configured
// bounds. Out-of-range prices are errors: they fail validation outright.
func CheckRanges(candidate *model.PriceRecord, ranges map[string]config.Bounds) []model.ValidationIssue {
	var issues []model.ValidationIssue
	for _, m := range model.Materials {
		b, ok := ranges[string(m)]
		if !ok {
			continue
		}
		price := candidate.Prices[m]
		if price < b.Min {
			issues = append(issues, model.ValidationIssue{
				Severity: model.SeverityError,
				Check:    checkRange,
				Field:    string(m),
				Message:  fmt.Sprintf("%s price ($%.2f) is below expected minimum ($%.2f)", m, price, b.Min),
			})
		} else if price > b.Max {
			issues = append(issues, model.ValidationIssue{
				Severity: model.SeverityError,
				Check:    checkRange,
				Field:    string(m),
				Message:  fmt.Sprintf("%s price ($%.2f) is above expected maximum ($%.2f)", m, price, b.Max),
			})
		}
	}
	return issues
}

// CheckTrend flags month-over-month moves beyond thresholdPct. With no
// prior record the check is skipped. A non-positive prior price means the
// stored history is corrupt, which is an error on the historical record,
// not a reason to divide by it.
func CheckTrend(candidate *model.PriceRecord, prior *model.PriceRecord, thresholdPct float64) []model.ValidationIssue {
	if prior == nil {
		return nil
	}
	var issues []model.ValidationIssue
	for _, m := range model.Materials {
		prev := prior.Prices[m]
		if prev <= 0 {
			issues = append(issues, model.ValidationIssue{
				Severity: model.SeverityError,
				Check:    checkTrend,
				Field:    string(m),
				Message:  fmt.Sprintf("historical %s price for %s is not positive ($%.2f); reject the historical record", m, prior.MonthKey(), prev),
			})
			continue
		}
		change := calculator.PercentChange(prev, candidate.Prices[m])
		if change > thresholdPct || change < -thresholdPct {
			issues = append(issues, model.ValidationIssue{
				Severity: model.SeverityWarning,
				Check:    checkTrend,
				Field:    string(m),
				Message:  fmt.Sprintf("%s price changed by %+.2f%% month-over-month, beyond the expected ±%.1f%%", m, change, thresholdPct),
			})
		}
	}
	return issues
}
