// Package report renders the monthly markdown report, the executive
// summary, and a CSV export of the accepted history.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"AlloySentinel/internal/calculator"
	"AlloySentinel/internal/model"
)

// Generator writes report files into an output directory.
type Generator struct {
	OutputDir string
}

// NewGenerator creates a Generator rooted at dir.
func NewGenerator(dir string) *Generator {
	return &Generator{OutputDir: dir}
}

// GenerateAll writes every report and returns name -> path.
func (g *Generator) GenerateAll(history model.HistoricalSeries, trend *calculator.TrendAnalysis,
	forecasts map[string]model.ForecastResult) (map[string]string, error) {

	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	latest := history.Last()
	if latest == nil {
		return nil, fmt.Errorf("no history to report on")
	}

	paths := make(map[string]string, 3)

	monthly := filepath.Join(g.OutputDir, fmt.Sprintf("monthly_report_%s.md", latest.MonthKey()))
	if err := os.WriteFile(monthly, []byte(g.monthlyReport(history, trend, forecasts)), 0o644); err != nil {
		return nil, fmt.Errorf("write monthly report: %w", err)
	}
	paths["monthly_report"] = monthly

	summary := filepath.Join(g.OutputDir, fmt.Sprintf("executive_summary_%s.md", latest.MonthKey()))
	if err := os.WriteFile(summary, []byte(g.executiveSummary(history, trend, forecasts)), 0o644); err != nil {
		return nil, fmt.Errorf("write executive summary: %w", err)
	}
	paths["executive_summary"] = summary

	csvPath := filepath.Join(g.OutputDir, "surcharge_history.csv")
	if err := os.WriteFile(csvPath, []byte(exportCSV(history)), 0o644); err != nil {
		return nil, fmt.Errorf("write csv export: %w", err)
	}
	paths["csv_export"] = csvPath

	log.Info().Int("reports", len(paths)).Str("dir", g.OutputDir).Msg("reports generated")
	return paths, nil
}

func (g *Generator) monthlyReport(history model.HistoricalSeries, trend *calculator.TrendAnalysis,
	forecasts map[string]model.ForecastResult) string {

	latest := history.Last()
	var b strings.Builder

	fmt.Fprintf(&b, "# Stainless 444 Alloy Surcharge Report — %s\n\n", latest.MonthKey())
	fmt.Fprintf(&b, "**Total surcharge: $%s/MT**\n\n", humanize.CommafWithDigits(latest.TotalSurcharge, 2))

	b.WriteString("## Raw material prices\n\n")
	b.WriteString("| Material | Price (USD/MT) | Contribution (USD/MT) |\n")
	b.WriteString("|---|---:|---:|\n")
	for _, m := range model.Materials {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", m,
			humanize.CommafWithDigits(latest.Prices[m], 2),
			humanize.CommafWithDigits(latest.Contributions[m], 2))
	}

	if trend != nil {
		b.WriteString("\n## Trend\n\n")
		fmt.Fprintf(&b, "- Month-over-month change: %+.2f%%\n", trend.MonthChangePct)
		if trend.HasYearChange {
			fmt.Fprintf(&b, "- Year-over-year change: %+.2f%%\n", trend.YearChangePct)
		}
		fmt.Fprintf(&b, "- 3-month average: $%s/MT\n", humanize.CommafWithDigits(trend.Surcharge3mAvg, 2))
		fmt.Fprintf(&b, "- All-time average: $%s/MT\n", humanize.CommafWithDigits(trend.AvgSurcharge, 2))
		b.WriteString("- Cumulative contribution share: ")
		for i, m := range model.Materials {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s %.1f%%", m, trend.ContributionPcts[m])
		}
		b.WriteString("\n")
	}

	if sf, ok := forecasts[model.SurchargeSeries]; ok {
		b.WriteString("\n## Forecast\n\n")
		if !sf.Available {
			b.WriteString("Forecasting unavailable for this period.\n")
		} else {
			fmt.Fprintf(&b, "The surcharge is expected to %s over the next %d months "+
				"(model: %s, holdout MAE %.2f, RMSE %.2f, %.0f%% confidence bounds).\n\n",
				sf.TrendDescription, len(sf.Points), sf.ModelUsed,
				sf.Metrics.MAE, sf.Metrics.RMSE, sf.ConfidenceLevel*100)
			b.WriteString("| Month | Forecast | Lower | Upper |\n|---|---:|---:|---:|\n")
			for i, p := range sf.Points {
				fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", p.Month.Format("2006-01"),
					humanize.CommafWithDigits(p.Value, 2),
					humanize.CommafWithDigits(sf.Lower[i], 2),
					humanize.CommafWithDigits(sf.Upper[i], 2))
			}
			for _, name := range seriesOrder {
				for _, insight := range forecasts[name].Insights {
					fmt.Fprintf(&b, "\n> %s", insight.Message)
				}
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (g *Generator) executiveSummary(history model.HistoricalSeries, trend *calculator.TrendAnalysis,
	forecasts map[string]model.ForecastResult) string {

	latest := history.Last()
	var b strings.Builder
	fmt.Fprintf(&b, "# Executive Summary — %s\n\n", latest.MonthKey())
	fmt.Fprintf(&b, "The grade 444 alloy surcharge for %s is **$%s/MT**",
		latest.MonthKey(), humanize.CommafWithDigits(latest.TotalSurcharge, 2))
	if trend != nil && trend.MonthChangePct != 0 {
		direction := "up"
		if trend.MonthChangePct < 0 {
			direction = "down"
		}
		fmt.Fprintf(&b, ", %s %.2f%% from the prior month", direction, abs(trend.MonthChangePct))
	}
	b.WriteString(".\n")
	if sf, ok := forecasts[model.SurchargeSeries]; ok && sf.Available {
		fmt.Fprintf(&b, "\nOver the next %d months the surcharge is expected to %s.\n",
			len(sf.Points), sf.TrendDescription)
	}
	return b.String()
}

func exportCSV(history model.HistoricalSeries) string {
	var b strings.Builder
	b.WriteString("date,chromium_price,molybdenum_price,titanium_price," +
		"chromium_contribution,molybdenum_contribution,titanium_contribution,total_surcharge\n")
	for _, r := range history {
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f,%.4f,%.4f,%.4f,%.4f\n", r.MonthKey(),
			r.Prices[model.Chromium], r.Prices[model.Molybdenum], r.Prices[model.Titanium],
			r.Contributions[model.Chromium], r.Contributions[model.Molybdenum], r.Contributions[model.Titanium],
			r.TotalSurcharge)
	}
	return b.String()
}

var seriesOrder = []string{
	string(model.Chromium),
	string(model.Molybdenum),
	string(model.Titanium),
	model.SurchargeSeries,
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
