package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const version = "v1.2.0"

var cfgPath string

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "tracker",
		Short:   "Stainless 444 alloy surcharge tracker",
		Long:    "Tracks monthly chromium, molybdenum and titanium prices, validates new data, and forecasts the grade 444 alloy surcharge.",
		Version: version,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfigPath(), "path to config file")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Execute one monthly update cycle now",
			RunE:  runOnce,
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Run the cron scheduler until interrupted",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Collect and validate the current month without persisting",
			RunE:  runValidate,
		},
		&cobra.Command{
			Use:   "forecast",
			Short: "Forecast every tracked series from stored history",
			RunE:  runForecast,
		},
		&cobra.Command{
			Use:   "report",
			Short: "Regenerate reports from stored history",
			RunE:  runReport,
		},
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}
