package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"AlloySentinel/internal/calculator"
	"AlloySentinel/internal/collector"
	"AlloySentinel/internal/config"
	"AlloySentinel/internal/forecast"
	"AlloySentinel/internal/model"
	"AlloySentinel/internal/notifier"
	"AlloySentinel/internal/pipeline"
	"AlloySentinel/internal/report"
	"AlloySentinel/internal/scheduler"
	"AlloySentinel/internal/store"
	"AlloySentinel/internal/validation"
)

// app bundles the wired collaborators every subcommand needs.
type app struct {
	cfg       *config.Config
	collector *collector.Collector
	store     store.Store
	mail      *notifier.EmailNotifier
}

func setup() (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	// Primary curve plus a second quoting venue so the cross-source check
	// has something to reconcile.
	col := collector.NewCollector(
		collector.NewReferenceSource("reference", 0),
		collector.NewReferenceSource("secondary", -0.015),
	)

	var st store.Store
	if cfg.Database.SQLitePath != "" {
		sq, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("sqlite store unavailable, using in-memory store")
			st = store.NewNoopStore(nil)
		} else {
			st = sq
		}
	} else {
		st = store.NewNoopStore(nil)
	}

	mail := notifier.NewEmailNotifier(cfg.SMTP.Server, cfg.SMTP.Port,
		cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender, cfg.SMTP.Recipient)
	if !mail.Enabled() {
		log.Info().Msg("email notifications disabled (no SMTP server or recipient configured)")
	}

	return &app{cfg: cfg, collector: col, store: st, mail: mail}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("close store")
	}
}

func runOnce(_ *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	p := pipeline.New(a.cfg, a.collector, a.store, a.mail)
	summary, err := p.Run(context.Background(), time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Run %s: month %s, surcharge $%.2f/MT, accepted=%v\n",
		summary.RunID, summary.Month, summary.Surcharge, summary.Accepted)
	return nil
}

func runServe(_ *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := pipeline.New(a.cfg, a.collector, a.store, a.mail)
	sched := scheduler.NewScheduler(ctx, p)
	if err := sched.Register(a.cfg.Schedule.MonthlyCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down")
	return nil
}

func runValidate(_ *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	history, err := a.store.LoadHistory()
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	candidate, multi, err := a.collector.Collect(context.Background(), time.Now())
	if err != nil {
		return err
	}
	if err := calculator.CheckConsistency(candidate); err != nil {
		return err
	}

	v := validation.New(a.cfg.Validation)
	res, err := v.Validate(candidate, history, multi)
	if err != nil {
		return err
	}
	if res.Valid && len(res.Issues) == 0 {
		fmt.Println("Prices validated successfully.")
		return nil
	}
	fmt.Printf("Validation result: valid=%v bypassed=%v\n", res.Valid, res.Bypassed)
	for _, is := range res.Issues {
		fmt.Printf("- [%s] %s\n", is.Severity, is.Message)
	}
	return nil
}

func runForecast(_ *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	history, err := a.store.LoadHistory()
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	last := history.Last()
	if last == nil {
		return fmt.Errorf("no stored history to forecast from")
	}

	engine := forecast.NewEngine(a.cfg.Forecast)
	series := map[string][]float64{
		string(model.Chromium):   history.MaterialValues(model.Chromium),
		string(model.Molybdenum): history.MaterialValues(model.Molybdenum),
		string(model.Titanium):   history.MaterialValues(model.Titanium),
		model.SurchargeSeries:    history.SurchargeValues(),
	}
	for _, name := range []string{string(model.Chromium), string(model.Molybdenum), string(model.Titanium), model.SurchargeSeries} {
		res := engine.Forecast(name, series[name], last.Month)
		if !res.Available {
			fmt.Printf("%s: forecast unavailable\n", name)
			continue
		}
		fmt.Printf("%s (%s, MAE %.2f): expected to %s\n", name, res.ModelUsed, res.Metrics.MAE, res.TrendDescription)
		for i, p := range res.Points {
			fmt.Printf("  %s  %.2f  [%.2f, %.2f]\n", p.Month.Format("2006-01"), p.Value, res.Lower[i], res.Upper[i])
		}
	}
	return nil
}

func runReport(_ *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	history, err := a.store.LoadHistory()
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(history) == 0 {
		return fmt.Errorf("no stored history to report on")
	}
	trend, err := calculator.AnalyzeTrend(history)
	if err != nil {
		return err
	}

	engine := forecast.NewEngine(a.cfg.Forecast)
	forecasts := make(map[string]model.ForecastResult, 4)
	last := history.Last()
	for _, m := range model.Materials {
		forecasts[string(m)] = engine.Forecast(string(m), history.MaterialValues(m), last.Month)
	}
	forecasts[model.SurchargeSeries] = engine.Forecast(model.SurchargeSeries, history.SurchargeValues(), last.Month)

	paths, err := report.NewGenerator(a.cfg.Report.OutputDir).GenerateAll(history, trend, forecasts)
	if err != nil {
		return err
	}
	for name, path := range paths {
		fmt.Printf("%s: %s\n", name, path)
	}
	return nil
}
