package history

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/finbench/internal/parquet"
	"github.com/huangsam/finbench/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_NoneBackend(t *testing.T) {
	store, err := NewStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun("fx", "naive", 1, time.Now())
	assert.NoError(t, err)
	assert.Empty(t, runID)
	assert.NoError(t, store.EndRun("x", time.Now(), schema.RunSummary{}, nil))
	assert.NoError(t, store.FailRun("x", time.Now(), errors.New("boom")))
	assert.NoError(t, store.Clear())

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Nil(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestStore_UnsupportedBackend(t *testing.T) {
	_, err := NewStore("oracle", "")
	assert.Error(t, err)
}

func TestStore_SQLiteInMemory(t *testing.T) {
	store, err := NewStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	runID, err := store.BeginRun("fx", "naive", 7, time.Now())
	require.NoError(t, err)
	assert.Len(t, runID, 36)
}

func TestStore_SQLiteRunLifecycle(t *testing.T) {
	store := newSQLiteStore(t)

	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	runID, err := store.BeginRun("fx_returns", "theta", math.MaxUint64, start)
	require.NoError(t, err)

	cutoff := time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC)
	summary := schema.RunSummary{
		Dataset: "fx_returns", Model: "theta", NSeriesIn: 3, NSeriesScored: 2,
		MeanMASE: 0.9, MedianMASE: 0.9, Cutoff: cutoff,
	}
	records := []schema.ErrorRecord{
		{UniqueID: "eur", MASE: 0.8, Status: schema.StatusOK, Horizon: 5},
		{UniqueID: "jpy", MASE: 1.0, Status: schema.StatusOK, Horizon: 5},
		{UniqueID: "try", MASE: math.NaN(), Status: schema.StatusForecastInvalid, Horizon: 5},
	}
	require.NoError(t, store.EndRun(runID, start.Add(1500*time.Millisecond), summary, records))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, runID, run.RunID)
	assert.Equal(t, schema.RunSucceeded, run.Outcome)
	assert.True(t, run.StartTime.Equal(start))
	require.NotNil(t, run.RunDurationMs)
	assert.Equal(t, int32(1500), *run.RunDurationMs)
	require.NotNil(t, run.Cutoff)
	assert.True(t, run.Cutoff.Equal(cutoff))
	require.NotNil(t, run.MeanMASE)
	assert.InDelta(t, 0.9, *run.MeanMASE, 1e-12)
	assert.Equal(t, int64(-1), run.Seed)
	assert.Equal(t, int32(3), run.NSeriesIn)
	assert.Nil(t, run.ErrorMessage)

	series, err := store.GetSeriesErrors(runID)
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, "eur", series[0].UniqueID)
	assert.Nil(t, series[2].MASE)
	assert.Equal(t, schema.StatusForecastInvalid, series[2].Status)
	assert.Equal(t, int32(5), series[2].Horizon)
}

func TestStore_SQLiteFailRun(t *testing.T) {
	store := newSQLiteStore(t)
	start := time.Now()
	runID, err := store.BeginRun("fx", "mlp", 1, start)
	require.NoError(t, err)
	require.NoError(t, store.FailRun(runID, start.Add(time.Second), schema.ErrModelFitFailed))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, schema.RunFailed, runs[0].Outcome)
	require.NotNil(t, runs[0].ErrorMessage)
	assert.Contains(t, *runs[0].ErrorMessage, "model fit failed")
	assert.Nil(t, runs[0].MeanMASE)
	assert.Nil(t, runs[0].Cutoff)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalRuns)
	assert.Equal(t, 1, status.FailedRuns)
}

func TestStore_SQLiteUnknownRun(t *testing.T) {
	store := newSQLiteStore(t)
	err := store.EndRun("00000000-0000-0000-0000-000000000000", time.Now(), schema.RunSummary{}, nil)
	assert.ErrorContains(t, err, "not found")
}

func TestStore_SQLiteStatusAndClear(t *testing.T) {
	store := newSQLiteStore(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var last string
	for i := range 3 {
		runID, err := store.BeginRun("d", "m", 1, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, store.EndRun(runID, base.Add(time.Duration(i)*time.Hour+time.Minute),
			schema.RunSummary{NSeriesIn: 4, MeanMASE: math.NaN(), MedianMASE: math.NaN()},
			[]schema.ErrorRecord{{UniqueID: "a", MASE: math.NaN(), Status: schema.StatusScaleDegenerate}}))
		last = runID
	}

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 3, status.TotalRuns)
	assert.Equal(t, last, status.LastRunID)
	assert.True(t, status.OldestRunTime.Equal(base))
	assert.True(t, status.LastRunTime.Equal(base.Add(2*time.Hour)))
	assert.Equal(t, 12, status.TotalSeries)
	assert.Equal(t, int64(3), status.TableSizes[SeriesErrorsTable])

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	assert.Equal(t, last, runs[0].RunID, "newest first")

	var buf bytes.Buffer
	PrintStatus(&buf, status)
	assert.Contains(t, buf.String(), "Total Runs: 3 (0 failed)")
	assert.Contains(t, buf.String(), SeriesErrorsTable+": 3 rows")

	require.NoError(t, store.Clear())
	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 0, status.TotalRuns)
}

func TestExport(t *testing.T) {
	store := newSQLiteStore(t)

	_, err := Export(store, "", &bytes.Buffer{})
	assert.ErrorContains(t, err, "--output-file")
	_, err = Export(store, filepath.Join(t.TempDir(), "out"), &bytes.Buffer{})
	assert.ErrorContains(t, err, "no run history")

	runID, err := store.BeginRun("fx", "naive", 3, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.EndRun(runID, time.Now(), schema.RunSummary{MeanMASE: 1, MedianMASE: 1},
		[]schema.ErrorRecord{{UniqueID: "a", MASE: 1, Status: schema.StatusOK, Horizon: 2}}))

	var buf bytes.Buffer
	files, err := Export(store, filepath.Join(t.TempDir(), "history"), &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Exported 1 runs")

	runs, err := parquet.ReadParquet[parquet.EvaluationRun](files.Runs)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].RunID)

	series, err := parquet.ReadParquet[parquet.SeriesError](files.SeriesErrors)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "ok", series[0].Status)
}

func TestRebind(t *testing.T) {
	q := "UPDATE t SET a = ?, b = ? WHERE c = ?"
	assert.Equal(t, q, rebind(q, schema.SQLiteBackend))
	assert.Equal(t, "UPDATE t SET a = $1, b = $2 WHERE c = $3", rebind(q, schema.PostgreSQLBackend))
}

func TestParseTime(t *testing.T) {
	want := time.Date(2025, 2, 3, 4, 5, 6, 7000, time.UTC)
	for _, raw := range []any{want, want.Format(sqliteTimeLayout), []byte("2025-02-03 04:05:06.000007")} {
		got, err := parseTime(raw)
		require.NoError(t, err)
		assert.True(t, got.Equal(want), "%v", raw)
	}
	_, err := parseTime(42)
	assert.Error(t, err)
}
