package store

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"AlloySentinel/internal/model"
)

// SQLiteStore persists history and audit data to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so report tooling can read while the monthly run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_history (
			month                   TEXT PRIMARY KEY,
			chromium_price          REAL NOT NULL,
			molybdenum_price        REAL NOT NULL,
			titanium_price          REAL NOT NULL,
			chromium_contribution   REAL NOT NULL,
			molybdenum_contribution REAL NOT NULL,
			titanium_contribution   REAL NOT NULL,
			total_surcharge         REAL NOT NULL,
			data_sources            TEXT,
			notes                   TEXT,
			created_at              INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS validation_runs (
			run_id      TEXT NOT NULL,
			month       TEXT NOT NULL,
			is_valid    INTEGER NOT NULL,
			bypassed    INTEGER NOT NULL,
			issue_count INTEGER NOT NULL,
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_validation_runs_month ON validation_runs(month)`,

		`CREATE TABLE IF NOT EXISTS validation_issues (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL,
			severity   TEXT NOT NULL,
			check_name TEXT NOT NULL,
			field      TEXT,
			message    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_validation_issues_run ON validation_issues(run_id)`,

		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			series       TEXT NOT NULL,
			available    INTEGER NOT NULL,
			model        TEXT,
			mae          REAL,
			rmse         REAL,
			seasonal     INTEGER,
			trend        TEXT,
			points       TEXT,
			generated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_forecast_runs_series ON forecast_runs(series)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// LoadHistory reads all accepted records ordered by month.
func (s *SQLiteStore) LoadHistory() (model.HistoricalSeries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT month,
		chromium_price, molybdenum_price, titanium_price,
		chromium_contribution, molybdenum_contribution, titanium_contribution,
		total_surcharge, data_sources, notes
		FROM price_history ORDER BY month`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history model.HistoricalSeries
	for rows.Next() {
		var monthKey string
		var sources, notes sql.NullString
		r := model.PriceRecord{
			Prices:        make(model.Prices, 3),
			Contributions: make(model.Prices, 3),
		}
		var crP, moP, tiP, crC, moC, tiC float64
		if err := rows.Scan(&monthKey, &crP, &moP, &tiP, &crC, &moC, &tiC,
			&r.TotalSurcharge, &sources, &notes); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		month, err := time.Parse("2006-01", monthKey)
		if err != nil {
			return nil, fmt.Errorf("bad month key %q: %w", monthKey, err)
		}
		r.Month = month
		r.Prices[model.Chromium] = crP
		r.Prices[model.Molybdenum] = moP
		r.Prices[model.Titanium] = tiP
		r.Contributions[model.Chromium] = crC
		r.Contributions[model.Molybdenum] = moC
		r.Contributions[model.Titanium] = tiC
		if sources.Valid && sources.String != "" {
			r.DataSources = strings.Split(sources.String, ",")
		}
		r.Notes = notes.String
		history = append(history, r)
	}
	return history, rows.Err()
}

// AppendRecord inserts an accepted record. The month primary key rejects
// duplicates.
func (s *SQLiteStore) AppendRecord(r *model.PriceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO price_history
		(month, chromium_price, molybdenum_price, titanium_price,
		 chromium_contribution, molybdenum_contribution, titanium_contribution,
		 total_surcharge, data_sources, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.MonthKey(),
		r.Prices[model.Chromium], r.Prices[model.Molybdenum], r.Prices[model.Titanium],
		r.Contributions[model.Chromium], r.Contributions[model.Molybdenum], r.Contributions[model.Titanium],
		r.TotalSurcharge, strings.Join(r.DataSources, ","), r.Notes, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert record for %s: %w", r.MonthKey(), err)
	}
	return nil
}

// RecordValidation writes the run verdict and one row per issue.
func (s *SQLiteStore) RecordValidation(runID, month string, res *model.ValidationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO validation_runs
		(run_id, month, is_valid, bypassed, issue_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, month, boolInt(res.Valid), boolInt(res.Bypassed), len(res.Issues), time.Now().Unix()); err != nil {
		return fmt.Errorf("insert validation run: %w", err)
	}
	for _, is := range res.Issues {
		if _, err := tx.Exec(`INSERT INTO validation_issues
			(run_id, severity, check_name, field, message)
			VALUES (?, ?, ?, ?, ?)`,
			runID, string(is.Severity), is.Check, is.Field, is.Message); err != nil {
			return fmt.Errorf("insert validation issue: %w", err)
		}
	}
	return tx.Commit()
}

// RecordForecast writes one forecast run. Points are stored as a compact
// "month:value" list; the result is regenerated each run, so this is an
// audit record, not a read model.
func (s *SQLiteStore) RecordForecast(runID string, res *model.ForecastResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var points strings.Builder
	for i, p := range res.Points {
		if i > 0 {
			points.WriteByte(',')
		}
		fmt.Fprintf(&points, "%s:%.2f", p.Month.Format("2006-01"), p.Value)
	}
	_, err := s.db.Exec(`INSERT INTO forecast_runs
		(run_id, series, available, model, mae, rmse, seasonal, trend, points, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, res.SeriesName, boolInt(res.Available), string(res.ModelUsed),
		res.Metrics.MAE, res.Metrics.RMSE, boolInt(res.SeasonalDetected),
		string(res.TrendDirection), points.String(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert forecast run: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
