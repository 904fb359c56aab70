package notifier

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"AlloySentinel/internal/calculator"
	"AlloySentinel/internal/model"
)

// FormatMonthlySummary builds the plain-text body of the monthly email:
// the new record, validation findings, trend context, and forecast
// insights for every tracked series.
func FormatMonthlySummary(record *model.PriceRecord, trend *calculator.TrendAnalysis,
	vres *model.ValidationResult, forecasts map[string]model.ForecastResult) string {

	var b strings.Builder

	fmt.Fprintf(&b, "Stainless 444 Alloy Surcharge Update | %s\n\n", record.MonthKey())
	fmt.Fprintf(&b, "Total surcharge: $%s/MT\n\n", humanize.CommafWithDigits(record.TotalSurcharge, 2))

	b.WriteString("Raw material prices (USD/MT):\n")
	for _, m := range model.Materials {
		fmt.Fprintf(&b, "  %-12s $%-12s contribution $%s\n", m,
			humanize.CommafWithDigits(record.Prices[m], 2),
			humanize.CommafWithDigits(record.Contributions[m], 2))
	}

	if trend != nil {
		b.WriteString("\nTrend:\n")
		fmt.Fprintf(&b, "  Month-over-month: %+.2f%%\n", trend.MonthChangePct)
		if trend.HasYearChange {
			fmt.Fprintf(&b, "  Year-over-year:   %+.2f%%\n", trend.YearChangePct)
		}
		fmt.Fprintf(&b, "  3-month average:  $%s/MT\n", humanize.CommafWithDigits(trend.Surcharge3mAvg, 2))
	}

	if vres != nil {
		b.WriteString("\nData validation: ")
		switch {
		case vres.Bypassed:
			b.WriteString("FAILED (bypassed, processing continued)\n")
		case vres.Valid && len(vres.Issues) == 0:
			b.WriteString("passed\n")
		case vres.Valid:
			b.WriteString("passed with warnings\n")
		default:
			b.WriteString("FAILED\n")
		}
		for _, is := range vres.Issues {
			fmt.Fprintf(&b, "  [%s] %s\n", is.Severity, is.Message)
		}
	}

	if len(forecasts) > 0 {
		b.WriteString("\nForecast:\n")
		if sf, ok := forecasts[model.SurchargeSeries]; ok && sf.Available {
			fmt.Fprintf(&b, "  The alloy surcharge is expected to %s over the next %d months (%s, MAE %.2f).\n",
				sf.TrendDescription, len(sf.Points), sf.ModelUsed, sf.Metrics.MAE)
		}
		for _, name := range seriesOrder {
			f, ok := forecasts[name]
			if !ok {
				continue
			}
			if !f.Available {
				fmt.Fprintf(&b, "  %s: forecast unavailable (insufficient history or no converging model)\n", name)
				continue
			}
			for _, insight := range f.Insights {
				fmt.Fprintf(&b, "  - %s\n", insight.Message)
			}
		}
	}

	return b.String()
}

var seriesOrder = []string{
	string(model.Chromium),
	string(model.Molybdenum),
	string(model.Titanium),
	model.SurchargeSeries,
}
