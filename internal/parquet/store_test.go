package parquet

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/finbench/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

type millisRecord struct {
	UniqueID int64     `parquet:"unique_id"`
	DS       time.Time `parquet:"ds,timestamp(millisecond)"`
	Y        float64   `parquet:"y"`
	Extra    string    `parquet:"extra"`
}

type dateRecord struct {
	UniqueID string    `parquet:"unique_id"`
	DS       time.Time `parquet:"ds,date"`
	Y        float32   `parquet:"y"`
}

type nullableRecord struct {
	UniqueID string     `parquet:"unique_id"`
	DS       *time.Time `parquet:"ds,optional"`
	Y        *float64   `parquet:"y,optional"`
}

type missingYRecord struct {
	UniqueID string    `parquet:"unique_id"`
	DS       time.Time `parquet:"ds"`
	Value    float64   `parquet:"value"`
}

type stringDSRecord struct {
	UniqueID string  `parquet:"unique_id"`
	DS       string  `parquet:"ds"`
	Y        float64 `parquet:"y"`
}

func ptr[T any](v T) *T { return &v }

func TestReadPanelSortsAndIndexes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.parquet")
	require.NoError(t, WriteParquet(path, []PanelRecord{
		{UniqueID: "b", DS: day(1), Y: 20},
		{UniqueID: "a", DS: day(1), Y: 2},
		{UniqueID: "b", DS: day(0), Y: 10},
		{UniqueID: "a", DS: day(0), Y: 1},
	}))

	res, err := ReadPanel(path)
	require.NoError(t, err)
	assert.Equal(t, 4, res.RowsRead)
	assert.Equal(t, 0, res.RowsDropped)
	assert.Empty(t, res.AllNaN)
	assert.Equal(t, 2, res.SeriesIn())

	p := res.Panel
	assert.Equal(t, []string{"a", "a", "b", "b"}, p.UniqueID)
	assert.Equal(t, []float64{1, 2, 10, 20}, p.Y)
	assert.True(t, p.DS[0].Equal(day(0)))
	assert.Equal(t, time.UTC, p.DS[0].Location())
}

func TestReadPanelDropsNaNAndReportsAllNaNSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.parquet")
	require.NoError(t, WriteParquet(path, []PanelRecord{
		{UniqueID: "ok", DS: day(0), Y: 1},
		{UniqueID: "ok", DS: day(1), Y: math.NaN()},
		{UniqueID: "ok", DS: day(2), Y: 3},
		{UniqueID: "dead", DS: day(0), Y: math.NaN()},
		{UniqueID: "dead", DS: day(1), Y: math.NaN()},
	}))

	res, err := ReadPanel(path)
	require.NoError(t, err)
	assert.Equal(t, 3, res.RowsDropped)
	assert.Equal(t, []string{"dead"}, res.AllNaN)
	assert.Equal(t, 2, res.SeriesIn())
	assert.Equal(t, []float64{1, 3}, res.Panel.Y)
}

func TestReadPanelNullValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.parquet")
	d0, d1 := day(0), day(1)
	require.NoError(t, WriteParquet(path, []nullableRecord{
		{UniqueID: "a", DS: &d0, Y: ptr(1.0)},
		{UniqueID: "a", DS: nil, Y: ptr(2.0)},
		{UniqueID: "a", DS: &d1, Y: nil},
	}))

	res, err := ReadPanel(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, res.Panel.Y)
	assert.Equal(t, 2, res.RowsDropped)
}

func TestReadPanelAlternateTypes(t *testing.T) {
	dir := t.TempDir()

	millis := filepath.Join(dir, "millis.parquet")
	require.NoError(t, WriteParquet(millis, []millisRecord{
		{UniqueID: 7, DS: day(3), Y: 1.5, Extra: "ignored"},
	}))
	res, err := ReadPanel(millis)
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, res.Panel.UniqueID)
	assert.True(t, res.Panel.DS[0].Equal(day(3)))

	dates := filepath.Join(dir, "dates.parquet")
	require.NoError(t, WriteParquet(dates, []dateRecord{
		{UniqueID: "x", DS: day(5), Y: 2.5},
	}))
	res, err = ReadPanel(dates)
	require.NoError(t, err)
	assert.True(t, res.Panel.DS[0].Equal(day(5)))
	assert.Equal(t, 2.5, res.Panel.Y[0])
}

func TestReadPanelErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadPanel(filepath.Join(dir, "absent.parquet"))
	assert.ErrorIs(t, err, schema.ErrDatasetMissing)

	noY := filepath.Join(dir, "no_y.parquet")
	require.NoError(t, WriteParquet(noY, []missingYRecord{{UniqueID: "a", DS: day(0), Value: 1}}))
	_, err = ReadPanel(noY)
	assert.ErrorIs(t, err, schema.ErrDatasetSchema)

	stringDS := filepath.Join(dir, "string_ds.parquet")
	require.NoError(t, WriteParquet(stringDS, []stringDSRecord{{UniqueID: "a", DS: "2024-01-01", Y: 1}}))
	_, err = ReadPanel(stringDS)
	assert.ErrorIs(t, err, schema.ErrDatasetSchema)

	garbage := filepath.Join(dir, "garbage.parquet")
	require.NoError(t, os.WriteFile(garbage, []byte("not parquet at all"), 0o644))
	_, err = ReadPanel(garbage)
	assert.ErrorIs(t, err, schema.ErrDatasetSchema)

	allNaN := filepath.Join(dir, "all_nan.parquet")
	require.NoError(t, WriteParquet(allNaN, []PanelRecord{{UniqueID: "a", DS: day(0), Y: math.NaN()}}))
	_, err = ReadPanel(allNaN)
	assert.ErrorIs(t, err, schema.ErrDatasetEmpty)

	empty := filepath.Join(dir, "empty.parquet")
	require.NoError(t, WriteParquet(empty, []PanelRecord{}))
	_, err = ReadPanel(empty)
	assert.ErrorIs(t, err, schema.ErrDatasetEmpty)
}

func TestOpenPanelWrapsDatasetName(t *testing.T) {
	_, err := OpenPanel(schema.DatasetDescriptor{Name: "fx", Path: filepath.Join(t.TempDir(), "fx.parquet")})
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrDatasetMissing)
	assert.Contains(t, err.Error(), `dataset "fx"`)
}

func TestWritePanelRoundTrip(t *testing.T) {
	p := schema.NewPanel([]schema.Row{
		{UniqueID: "s1", DS: day(0), Y: 1},
		{UniqueID: "s1", DS: day(1), Y: 2},
		{UniqueID: "s2", DS: day(0), Y: 3},
	})
	path := filepath.Join(t.TempDir(), "nested", "panel.parquet")
	require.NoError(t, WritePanel(path, p))

	res, err := ReadPanel(path)
	require.NoError(t, err)
	assert.Equal(t, p.UniqueID, res.Panel.UniqueID)
	assert.Equal(t, p.Y, res.Panel.Y)
	assert.Equal(t, p.Index, res.Panel.Index)
}
