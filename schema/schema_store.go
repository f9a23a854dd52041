package schema

import "time"

// RunOutcome is the terminal state of a recorded run.
type RunOutcome string

// All run outcomes recorded in the history store.
const (
	RunRunning   RunOutcome = "running"
	RunSucceeded RunOutcome = "succeeded"
	RunFailed    RunOutcome = "failed"
)

// RunRecord represents a row from the finbench_runs table.
type RunRecord struct {
	RunID         string
	Dataset       string
	Model         string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	Cutoff        *time.Time
	NSeriesIn     int32
	NSeriesScored int32
	MeanMASE      *float64
	MedianMASE    *float64
	Seed          int64
	Outcome       RunOutcome
	ErrorMessage  *string
}

// SeriesErrorRecord represents a row from the finbench_series_errors table.
type SeriesErrorRecord struct {
	RunID    string
	UniqueID string
	MASE     *float64
	Status   SeriesStatus
	Horizon  int32
}
