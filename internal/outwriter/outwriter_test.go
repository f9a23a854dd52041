package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/finbench/internal/contract"
	"github.com/huangsam/finbench/internal/parquet"
	"github.com/huangsam/finbench/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRun() *schema.EvaluationResult {
	records := []schema.ErrorRecord{
		{Dataset: "fx", Model: "naive", UniqueID: "a", MASE: 0.5, Status: schema.StatusOK, Horizon: 3},
		{Dataset: "fx", Model: "naive", UniqueID: "b", MASE: 1.5, Status: schema.StatusOK, Horizon: 3},
		{Dataset: "fx", Model: "naive", UniqueID: "c", MASE: math.NaN(), Status: schema.StatusInsufficientHistory},
	}
	return &schema.EvaluationResult{
		Summary: schema.RunSummary{
			Dataset: "fx", Model: "naive", NSeriesIn: 3, NSeriesScored: 2, MeanMASE: 1, MedianMASE: 1,
			Cutoff: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Seed: 99,
		},
		Records:      records,
		StatusCounts: schema.CountStatuses(records),
		Duration:     1500 * time.Millisecond,
	}
}

func sampleBoard() []schema.LeaderboardRow {
	return []schema.LeaderboardRow{
		{Rank: 1, Model: "theta", Dataset: "fx", Runs: 1, NSeriesIn: 3, NSeriesScored: 3, MeanMASE: 0.7, MedianMASE: 0.65, ScoredShare: 1},
		{Rank: 2, Model: "mlp_with_a_really_long_model_name_for_truncation", Dataset: "fx", Runs: 1, NSeriesIn: 3, MeanMASE: math.NaN(), MedianMASE: math.NaN()},
	}
}

func TestWriteRunTable(t *testing.T) {
	cfg := &contract.Config{Output: schema.TextOut, Precision: 2, Width: 120}
	var buf bytes.Buffer
	require.NoError(t, writeRunTable(&buf, sampleRun(), cfg))

	out := buf.String()
	assert.Contains(t, out, "Dataset: fx  Model: naive  Cutoff: 2024-05-01 00:00:00  Seed: 99")
	assert.Contains(t, out, "insufficient-history")
	assert.Contains(t, out, "66.7%")
	assert.Contains(t, out, "Scored 2/3 series. Mean MASE 1.00 (Weak), median 1.00.")
	assert.NotContains(t, out, "forecast-failed")
}

func TestWriteRunTableNoCutoff(t *testing.T) {
	result := &schema.EvaluationResult{
		Summary:      schema.RunSummary{Dataset: "fx", Model: "naive", MeanMASE: math.NaN(), MedianMASE: math.NaN()},
		StatusCounts: map[schema.SeriesStatus]int{},
	}
	var buf bytes.Buffer
	require.NoError(t, writeRunTable(&buf, result, &contract.Config{Precision: 3}))
	assert.Contains(t, buf.String(), "Cutoff: none")
	assert.Contains(t, buf.String(), "Mean MASE NaN (n/a)")
}

func TestWriteCSVRunRecords(t *testing.T) {
	_, fmtCSV := createFormatters(3)
	var buf bytes.Buffer
	require.NoError(t, writeCSVRunRecords(&buf, sampleRun().Records, fmtCSV))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"dataset", "model", "unique_id", "mase", "status", "horizon"}, rows[0])
	assert.Equal(t, []string{"fx", "naive", "a", "0.500", "ok", "3"}, rows[1])
	assert.Equal(t, "", rows[3][3])
}

func TestWriteRunResultJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: path, Precision: 3}
	require.NoError(t, WriteRunResult(sampleRun(), cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	records := got["records"].([]any)
	require.Len(t, records, 3)
	assert.Nil(t, records[2].(map[string]any)["mase"])
	assert.Equal(t, float64(2), got["status_counts"].(map[string]any)["ok"])
}

func TestWriteLeaderboardTable(t *testing.T) {
	cfg := &contract.Config{Output: schema.TextOut, Precision: 2, Width: 80, GroupBy: schema.GroupByRun}
	var buf bytes.Buffer
	require.NoError(t, writeLeaderboardTable(&buf, sampleBoard(), cfg, time.Second))

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "DATASET")
	assert.Contains(t, out, "0.70")
	assert.Contains(t, out, "Strong")
	assert.Contains(t, out, "mlp_wit...")
	assert.Contains(t, out, "Report over 2 rows")
}

func TestWriteLeaderboardTableByModel(t *testing.T) {
	cfg := &contract.Config{Precision: 2, Width: 200, GroupBy: schema.GroupByModel}
	var buf bytes.Buffer
	require.NoError(t, writeLeaderboardTable(&buf, sampleBoard(), cfg, time.Second))
	upper := strings.ToUpper(buf.String())
	assert.Contains(t, upper, "RUNS")
	assert.NotContains(t, upper, "DATASET")
}

func TestWriteCSVLeaderboard(t *testing.T) {
	_, fmtCSV := createFormatters(2)
	var buf bytes.Buffer
	require.NoError(t, writeCSVLeaderboard(&buf, sampleBoard(), fmtCSV))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(leaderboardHeader, ","), lines[0])
	assert.Equal(t, "1,theta,fx,1,3,3,0.70,0.65,1.00", lines[1])
	assert.True(t, strings.HasSuffix(lines[2], ",,,0.00"))
}

func TestWriteLeaderboardBinaryFormatsNeedFile(t *testing.T) {
	for _, mode := range []schema.OutputMode{schema.ParquetOut, schema.XLSXOut} {
		err := WriteLeaderboardResults(sampleBoard(), &contract.Config{Output: mode}, 0)
		assert.ErrorIs(t, err, errOutputFileRequired, mode)
	}
}

func TestWriteLeaderboardParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.parquet")
	require.NoError(t, WriteLeaderboardResults(sampleBoard(), &contract.Config{Output: schema.ParquetOut, OutputFile: path}, 0))

	got, err := parquet.ReadParquet[parquet.LeaderboardEntry](path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int32(2), got[1].Rank)
}

func TestWriteLeaderboardXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.xlsx")
	cfg := &contract.Config{Output: schema.XLSXOut, OutputFile: path, Precision: 1}
	require.NoError(t, WriteLeaderboardResults(sampleBoard(), cfg, 0))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(leaderboardSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "rank", rows[0][0])
	assert.Equal(t, "theta", rows[1][1])
	assert.Equal(t, "0.7", rows[1][6])
}

func TestGetMaxTableNameWidth(t *testing.T) {
	assert.Equal(t, 10, GetMaxTableNameWidth(&contract.Config{Width: 60}))
	assert.Equal(t, 25, GetMaxTableNameWidth(&contract.Config{Width: 120}))
	assert.Equal(t, 40, GetMaxTableNameWidth(&contract.Config{Width: 400}))
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "short", truncateName("short", 10))
	assert.Equal(t, "abcdefg...", truncateName("abcdefghijklmnop", 10))
}

func TestWriteDefinitions(t *testing.T) {
	var buf bytes.Buffer
	err := WriteDefinitions(&buf, map[schema.BackendFamily][]string{
		schema.LocalStatistical: {"naive", "theta"},
		schema.GlobalNeural:     {"linear"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "MASE = mean(|y - y_hat|) / scale")
	assert.Contains(t, out, "naive, theta")
	assert.Contains(t, out, "forecast-missing")
	assert.Contains(t, out, "scale-degenerate")
	assert.Contains(t, out, "Strong < 0.8")
}
