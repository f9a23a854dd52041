package schema

import (
	"encoding/json"
	"math"
	"time"
)

// EvaluationResult is everything one (dataset, model) run produced.
type EvaluationResult struct {
	RunID        string               `json:"run_id,omitempty"`
	Summary      RunSummary           `json:"summary"`
	Records      []ErrorRecord        `json:"records"`
	StatusCounts map[SeriesStatus]int `json:"status_counts"`
	MetricsPath  string               `json:"error_metrics_path"`
	SummaryPath  string               `json:"summary_path"`
	Duration     time.Duration        `json:"duration_ns"`
}

// CountStatuses tallies records per status.
func CountStatuses(records []ErrorRecord) map[SeriesStatus]int {
	counts := make(map[SeriesStatus]int)
	for _, r := range records {
		counts[r.Status]++
	}
	return counts
}

// LeaderboardRow is one line of the report. Dataset is empty when rows are
// grouped by model.
type LeaderboardRow struct {
	Rank          int     `json:"rank"`
	Model         string  `json:"model"`
	Dataset       string  `json:"dataset,omitempty"`
	Runs          int     `json:"runs"`
	NSeriesIn     int     `json:"n_series_in"`
	NSeriesScored int     `json:"n_series_scored"`
	MeanMASE      float64 `json:"mean_mase"`
	MedianMASE    float64 `json:"median_mase"`
	ScoredShare   float64 `json:"scored_share"`
}

// finite maps NaN and infinities to nil so they encode as JSON null.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// MarshalJSON writes NaN MASE as null.
func (r ErrorRecord) MarshalJSON() ([]byte, error) {
	type plain ErrorRecord
	return json.Marshal(struct {
		plain
		MASE *float64 `json:"mase"`
	}{plain(r), finite(r.MASE)})
}

// MarshalJSON writes NaN aggregates as null and a zero cutoff as null.
func (s RunSummary) MarshalJSON() ([]byte, error) {
	type plain RunSummary
	var cutoff *time.Time
	if !s.Cutoff.IsZero() {
		cutoff = &s.Cutoff
	}
	return json.Marshal(struct {
		plain
		MeanMASE   *float64   `json:"mean_mase"`
		MedianMASE *float64   `json:"median_mase"`
		Cutoff     *time.Time `json:"cutoff"`
	}{plain(s), finite(s.MeanMASE), finite(s.MedianMASE), cutoff})
}

// MarshalJSON writes NaN aggregates as null.
func (r LeaderboardRow) MarshalJSON() ([]byte, error) {
	type plain LeaderboardRow
	return json.Marshal(struct {
		plain
		MeanMASE    *float64 `json:"mean_mase"`
		MedianMASE  *float64 `json:"median_mase"`
		ScoredShare *float64 `json:"scored_share"`
	}{plain(r), finite(r.MeanMASE), finite(r.MedianMASE), finite(r.ScoredShare)})
}
