// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/finbench/schema"
)

// HistoryStore defines the interface for tracking evaluation runs.
// A nil store disables tracking.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID.
	BeginRun(dataset, model string, seed uint64, startTime time.Time) (string, error)

	// EndRun stores the summary and per-series records of a finished run.
	EndRun(runID string, endTime time.Time, summary schema.RunSummary, records []schema.ErrorRecord) error

	// FailRun marks a run as failed with the error that ended it.
	FailRun(runID string, endTime time.Time, cause error) error

	// GetAllRuns returns every run, newest first.
	GetAllRuns() ([]schema.RunRecord, error)

	// GetSeriesErrors returns the per-series rows of one run.
	GetSeriesErrors(runID string) ([]schema.SeriesErrorRecord, error)

	// GetStatus returns status information about the store.
	GetStatus() (schema.HistoryStatus, error)

	// Clear removes every recorded run.
	Clear() error

	// Close releases the underlying connection.
	Close() error
}

// OutputWriter renders results for the terminal or an output file.
type OutputWriter interface {
	// WriteRun prints the outcome of one evaluation run.
	WriteRun(result *schema.EvaluationResult, cfg *Config) error

	// WriteLeaderboard prints the ranked report over all summaries.
	WriteLeaderboard(rows []schema.LeaderboardRow, cfg *Config, duration time.Duration) error
}
