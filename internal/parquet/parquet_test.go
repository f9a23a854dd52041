package parquet

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/finbench/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluationRunStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(EvaluationRun))
	require.NotNil(t, s)

	expectedColumns := []string{
		"run_id", "dataset", "model", "start_time", "end_time", "run_duration_ms",
		"cutoff", "n_series_in", "n_series_scored", "mean_mase", "median_mase",
		"seed", "outcome", "error_message",
	}
	for _, colName := range expectedColumns {
		col, ok := s.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

func TestErrorMetricRowStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(ErrorMetricRow))
	for _, colName := range []string{"unique_id", "mase", "status", "horizon"} {
		_, ok := s.Lookup(colName)
		assert.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestWriteEvaluationRunsParquet(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	duration := int32(90000)
	mean := 0.87
	msg := "model fit failed"
	records := []schema.RunRecord{
		{
			RunID: "r1", Dataset: "fx", Model: "theta", StartTime: start, EndTime: &end,
			RunDurationMs: &duration, NSeriesIn: 10, NSeriesScored: 9, MeanMASE: &mean,
			Seed: 42, Outcome: schema.RunSucceeded,
		},
		{
			RunID: "r2", Dataset: "fx", Model: "mlp", StartTime: start,
			Outcome: schema.RunFailed, ErrorMessage: &msg,
		},
	}

	path := filepath.Join(t.TempDir(), "runs.parquet")
	require.NoError(t, WriteEvaluationRunsParquet(ConvertRunRecords(records), path))

	got, err := ReadParquet[EvaluationRun](path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r1", got[0].RunID)
	require.NotNil(t, got[0].MeanMASE)
	assert.InDelta(t, 0.87, *got[0].MeanMASE, 1e-12)
	assert.Nil(t, got[0].MedianMASE)
	assert.Equal(t, "succeeded", got[0].Outcome)
	assert.Nil(t, got[1].EndTime)
	require.NotNil(t, got[1].ErrorMessage)
	assert.Equal(t, msg, *got[1].ErrorMessage)
}

func TestWriteSeriesErrorsParquet(t *testing.T) {
	records := []schema.SeriesErrorRecord{
		{RunID: "r1", UniqueID: "eur", MASE: ptr(0.5), Status: schema.StatusOK, Horizon: 5},
		{RunID: "r1", UniqueID: "try", MASE: nil, Status: schema.StatusForecastInvalid, Horizon: 5},
	}
	path := filepath.Join(t.TempDir(), "series.parquet")
	require.NoError(t, WriteSeriesErrorsParquet(ConvertSeriesErrorRecords(records), path))

	got, err := ReadParquet[SeriesError](path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[1].MASE)
	assert.Equal(t, "forecast-invalid", got[1].Status)
	assert.False(t, math.IsNaN(*got[0].MASE))
}

func TestWriteLeaderboardParquet(t *testing.T) {
	rows := []schema.LeaderboardRow{
		{Rank: 1, Model: "theta", Dataset: "fx", Runs: 1, NSeriesIn: 4, NSeriesScored: 4, MeanMASE: 0.7, MedianMASE: 0.6, ScoredShare: 1},
		{Rank: 2, Model: "mlp", Dataset: "fx", Runs: 1, NSeriesIn: 4, MeanMASE: math.NaN(), MedianMASE: math.NaN()},
	}
	path := filepath.Join(t.TempDir(), "board.parquet")
	require.NoError(t, WriteLeaderboardParquet(ConvertLeaderboardRows(rows), path))

	got, err := ReadParquet[LeaderboardEntry](path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "theta", got[0].Model)
	require.NotNil(t, got[0].MeanMASE)
	assert.InDelta(t, 0.7, *got[0].MeanMASE, 1e-12)
	assert.Nil(t, got[1].MeanMASE)
	require.NotNil(t, got[1].ScoredShare)
	assert.Zero(t, *got[1].ScoredShare)
}
