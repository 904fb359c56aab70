package store

import "AlloySentinel/internal/model"

// Store persists the accepted price history and the audit trail of
// validation and forecast runs.
type Store interface {
	// LoadHistory returns all accepted records ordered by month.
	LoadHistory() (model.HistoricalSeries, error)
	// AppendRecord inserts an accepted record; months are unique and a
	// duplicate is an error.
	AppendRecord(r *model.PriceRecord) error
	// RecordValidation writes the verdict and every issue of one run.
	RecordValidation(runID, month string, res *model.ValidationResult) error
	// RecordForecast writes the outcome of one forecast run.
	RecordForecast(runID string, res *model.ForecastResult) error
	Close() error
}

// NoopStore satisfies Store without persisting anything. Used when no
// database path is configured and by tests that only need the pipeline.
type NoopStore struct {
	History model.HistoricalSeries
}

// NewNoopStore returns a store seeded with an optional in-memory history.
func NewNoopStore(history model.HistoricalSeries) *NoopStore {
	return &NoopStore{History: history}
}

func (n *NoopStore) LoadHistory() (model.HistoricalSeries, error) { return n.History, nil }

func (n *NoopStore) AppendRecord(r *model.PriceRecord) error {
	n.History = append(n.History, *r)
	return nil
}

func (n *NoopStore) RecordValidation(string, string, *model.ValidationResult) error { return nil }

func (n *NoopStore) RecordForecast(string, *model.ForecastResult) error { return nil }

func (n *NoopStore) Close() error { return nil }
