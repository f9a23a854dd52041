// Package parquet reads evaluation panels and writes evaluation results and
// history exports using github.com/parquet-go/parquet-go.
package parquet

import (
	"math"
	"time"

	"github.com/huangsam/finbench/schema"
)

// EvaluationRun represents a single recorded evaluation run.
// This struct maps to the finbench_runs database table.
type EvaluationRun struct {
	// RunID is the unique identifier for this run
	RunID string `parquet:"run_id,snappy"`

	// Dataset and Model identify the evaluated pair
	Dataset string `parquet:"dataset,snappy,dict"`
	Model   string `parquet:"model,snappy,dict"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// Cutoff is the global cutoff of the run (nullable)
	Cutoff *time.Time `parquet:"cutoff,optional,snappy"`

	NSeriesIn     int32    `parquet:"n_series_in,snappy"`
	NSeriesScored int32    `parquet:"n_series_scored,snappy"`
	MeanMASE      *float64 `parquet:"mean_mase,optional,snappy"`
	MedianMASE    *float64 `parquet:"median_mase,optional,snappy"`
	Seed          int64    `parquet:"seed,snappy"`

	// Outcome is running, succeeded or failed
	Outcome string `parquet:"outcome,snappy,dict"`

	// ErrorMessage holds the fatal error of a failed run (nullable)
	ErrorMessage *string `parquet:"error_message,optional,snappy"`
}

// SeriesError represents the recorded outcome of one series in one run.
// This struct maps to the finbench_series_errors database table.
type SeriesError struct {
	RunID    string   `parquet:"run_id,snappy"`
	UniqueID string   `parquet:"unique_id,snappy"`
	MASE     *float64 `parquet:"mase,optional,snappy"`
	Status   string   `parquet:"status,snappy,dict"`
	Horizon  int32    `parquet:"horizon,snappy"`
}

// WriteEvaluationRunsParquet writes a slice of EvaluationRun structs to a Parquet file.
func WriteEvaluationRunsParquet(data []EvaluationRun, outputPath string) error {
	return WriteParquet(outputPath, data)
}

// WriteSeriesErrorsParquet writes a slice of SeriesError structs to a Parquet file.
func WriteSeriesErrorsParquet(data []SeriesError, outputPath string) error {
	return WriteParquet(outputPath, data)
}

// ConvertRunRecords converts schema.RunRecord to EvaluationRun for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []EvaluationRun {
	result := make([]EvaluationRun, len(records))
	for i, record := range records {
		result[i] = EvaluationRun{
			RunID:         record.RunID,
			Dataset:       record.Dataset,
			Model:         record.Model,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			Cutoff:        record.Cutoff,
			NSeriesIn:     record.NSeriesIn,
			NSeriesScored: record.NSeriesScored,
			MeanMASE:      record.MeanMASE,
			MedianMASE:    record.MedianMASE,
			Seed:          record.Seed,
			Outcome:       string(record.Outcome),
			ErrorMessage:  record.ErrorMessage,
		}
	}
	return result
}

// ConvertSeriesErrorRecords converts schema.SeriesErrorRecord to SeriesError for Parquet export.
func ConvertSeriesErrorRecords(records []schema.SeriesErrorRecord) []SeriesError {
	result := make([]SeriesError, len(records))
	for i, record := range records {
		result[i] = SeriesError{
			RunID:    record.RunID,
			UniqueID: record.UniqueID,
			MASE:     record.MASE,
			Status:   string(record.Status),
			Horizon:  record.Horizon,
		}
	}
	return result
}

// LeaderboardEntry is one row of a leaderboard export.
type LeaderboardEntry struct {
	Rank          int32    `parquet:"rank,snappy"`
	Model         string   `parquet:"model,snappy,dict"`
	Dataset       string   `parquet:"dataset,snappy,dict"`
	Runs          int32    `parquet:"runs,snappy"`
	NSeriesIn     int32    `parquet:"n_series_in,snappy"`
	NSeriesScored int32    `parquet:"n_series_scored,snappy"`
	MeanMASE      *float64 `parquet:"mean_mase,optional,snappy"`
	MedianMASE    *float64 `parquet:"median_mase,optional,snappy"`
	ScoredShare   *float64 `parquet:"scored_share,optional,snappy"`
}

// WriteLeaderboardParquet writes leaderboard entries to a Parquet file.
func WriteLeaderboardParquet(data []LeaderboardEntry, outputPath string) error {
	return WriteParquet(outputPath, data)
}

// ConvertLeaderboardRows converts schema.LeaderboardRow to LeaderboardEntry,
// storing undefined scores as nulls.
func ConvertLeaderboardRows(rows []schema.LeaderboardRow) []LeaderboardEntry {
	result := make([]LeaderboardEntry, len(rows))
	for i, r := range rows {
		result[i] = LeaderboardEntry{
			Rank:          int32(r.Rank),
			Model:         r.Model,
			Dataset:       r.Dataset,
			Runs:          int32(r.Runs),
			NSeriesIn:     int32(r.NSeriesIn),
			NSeriesScored: int32(r.NSeriesScored),
			MeanMASE:      finiteOrNil(r.MeanMASE),
			MedianMASE:    finiteOrNil(r.MedianMASE),
			ScoredShare:   finiteOrNil(r.ScoredShare),
		}
	}
	return result
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
