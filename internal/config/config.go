package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Bounds is the accepted price range for one material, USD/MT.
type Bounds struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// ValidationConfig holds the data-quality policy flags and thresholds.
type ValidationConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Bypass         bool    `yaml:"bypass"`
	HaltOnFailure  bool    `yaml:"halt_on_failure"`
	ZScoreLimit    float64 `yaml:"zscore_threshold"`
	TrendChangePct float64 `yaml:"trend_change_pct"`
	CrossSourcePct float64 `yaml:"cross_source_pct"`
	AnomalyWindow  int     `yaml:"anomaly_window"`
	MinWindow      int     `yaml:"min_window"`

	Ranges map[string]Bounds `yaml:"ranges"`
}

// ForecastConfig holds the forecasting engine parameters.
type ForecastConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Horizon         int     `yaml:"horizon_months"`
	ConfidenceLevel float64 `yaml:"confidence_level"`
	MinHistory      int     `yaml:"min_history_months"`
	HoldoutMonths   int     `yaml:"holdout_months"`
	SeasonalPeriod  int     `yaml:"seasonal_period"`
}

// Config holds all application configuration.
type Config struct {
	Validation ValidationConfig `yaml:"validation"`
	Forecast   ForecastConfig   `yaml:"forecast"`
	SMTP       struct {
		Server    string `yaml:"server"`
		Port      int    `yaml:"port"`
		Username  string `yaml:"username"`
		Password  string `yaml:"password"`
		Sender    string `yaml:"sender"`
		Recipient string `yaml:"recipient"`
	} `yaml:"smtp"`
	Schedule struct {
		MonthlyCron string `yaml:"monthly_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Report struct {
		OutputDir string `yaml:"output_dir"`
	} `yaml:"report"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides, then fills defaults. A missing file is not an error: the
// defaults describe a fully working local setup.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Validation.Enabled = true
	cfg.Forecast.Enabled = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v, ok := lookupBool("ENABLE_VALIDATION"); ok {
		cfg.Validation.Enabled = v
	}
	if v, ok := lookupBool("BYPASS_VALIDATION"); ok {
		cfg.Validation.Bypass = v
	}
	if v, ok := lookupBool("HALT_ON_VALIDATION_FAILURE"); ok {
		cfg.Validation.HaltOnFailure = v
	}
	if v, ok := lookupBool("ENABLE_FORECASTING"); ok {
		cfg.Forecast.Enabled = v
	}
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		cfg.SMTP.Server = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.SMTP.Port = p
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}
	if v := os.Getenv("EMAIL_RECIPIENT"); v != "" {
		cfg.SMTP.Recipient = v
	}
	if v := os.Getenv("CRON_MONTHLY"); v != "" {
		cfg.Schedule.MonthlyCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	v := &cfg.Validation
	if v.ZScoreLimit == 0 {
		v.ZScoreLimit = 3.0
	}
	if v.TrendChangePct == 0 {
		v.TrendChangePct = 15.0
	}
	if v.CrossSourcePct == 0 {
		v.CrossSourcePct = 5.0
	}
	if v.AnomalyWindow == 0 {
		v.AnomalyWindow = 12
	}
	if v.MinWindow == 0 {
		v.MinWindow = 3
	}
	if v.Ranges == nil {
		v.Ranges = map[string]Bounds{
			"chromium":   {Min: 8000, Max: 20000},
			"molybdenum": {Min: 20000, Max: 60000},
			"titanium":   {Min: 5000, Max: 10000},
		}
	}

	f := &cfg.Forecast
	if f.Horizon == 0 {
		f.Horizon = 6
	}
	if f.ConfidenceLevel == 0 {
		f.ConfidenceLevel = 0.95
	}
	if f.MinHistory == 0 {
		f.MinHistory = 12
	}
	if f.HoldoutMonths == 0 {
		f.HoldoutMonths = 3
	}
	if f.SeasonalPeriod == 0 {
		f.SeasonalPeriod = 12
	}

	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.Schedule.MonthlyCron == "" {
		cfg.Schedule.MonthlyCron = "0 0 9 1 * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/surcharge.db"
	}
	if cfg.Report.OutputDir == "" {
		cfg.Report.OutputDir = "reports"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks that thresholds and bounds are usable. Misconfiguration
// is fatal at startup, never discovered mid-run.
func (c *Config) Validate() error {
	v := c.Validation
	if v.ZScoreLimit <= 0 {
		return fmt.Errorf("validation.zscore_threshold must be positive")
	}
	if v.TrendChangePct <= 0 {
		return fmt.Errorf("validation.trend_change_pct must be positive")
	}
	if v.CrossSourcePct <= 0 {
		return fmt.Errorf("validation.cross_source_pct must be positive")
	}
	if v.MinWindow < 2 {
		return fmt.Errorf("validation.min_window must be at least 2")
	}
	for name, b := range v.Ranges {
		if b.Min <= 0 || b.Max <= b.Min {
			return fmt.Errorf("validation.ranges.%s: need 0 < min < max", name)
		}
	}

	f := c.Forecast
	if f.Horizon <= 0 {
		return fmt.Errorf("forecast.horizon_months must be positive")
	}
	if f.ConfidenceLevel <= 0 || f.ConfidenceLevel >= 1 {
		return fmt.Errorf("forecast.confidence_level must be in (0,1)")
	}
	if f.MinHistory < f.HoldoutMonths+2 {
		return fmt.Errorf("forecast.min_history_months too small for holdout of %d", f.HoldoutMonths)
	}
	return nil
}

func lookupBool(key string) (bool, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return false, false
	}
	switch strings.ToLower(v) {
	case "true", "yes", "1":
		return true, true
	default:
		return false, true
	}
}
