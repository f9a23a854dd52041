package parquet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/huangsam/finbench/schema"
	"golang.org/x/sync/errgroup"
)

// Output layout below the output root.
const (
	ErrorMetricsDir = "error_metrics"
	SummariesDir    = "summaries"
	CutoffsFile     = "cutoffs.parquet"
	pairSeparator   = "__"
)

// ErrorMetricRow is one per-series row of an error metrics file.
type ErrorMetricRow struct {
	// UniqueID identifies the series
	UniqueID string `parquet:"unique_id,snappy"`

	// MASE is NaN whenever Status is not ok
	MASE float64 `parquet:"mase,snappy"`

	// Status is the per-series outcome
	Status string `parquet:"status,snappy"`

	// Horizon is the number of test observations of the series
	Horizon int32 `parquet:"horizon,snappy"`
}

// SummaryRow is the single row of a summary file.
type SummaryRow struct {
	Dataset       string     `parquet:"dataset,snappy"`
	Model         string     `parquet:"model,snappy"`
	NSeriesIn     int32      `parquet:"n_series_in,snappy"`
	NSeriesScored int32      `parquet:"n_series_scored,snappy"`
	MeanMASE      float64    `parquet:"mean_mase,snappy"`
	MedianMASE    float64    `parquet:"median_mase,snappy"`
	Cutoff        *time.Time `parquet:"cutoff,optional,snappy"` // nil when no series survived partitioning
	Seed          int64      `parquet:"seed,snappy"`
}

// CutoffRow is one entry of the cutoff log.
type CutoffRow struct {
	Dataset string    `parquet:"dataset,snappy"`
	Cutoff  time.Time `parquet:"cutoff,snappy"`
}

// ErrorMetricsPath returns <out>/error_metrics/<model>/<dataset>.parquet.
func ErrorMetricsPath(outDir, model, dataset string) string {
	return filepath.Join(outDir, ErrorMetricsDir, model, dataset+".parquet")
}

// SummaryPath returns <out>/summaries/<model>__<dataset>.parquet.
func SummaryPath(outDir, model, dataset string) string {
	return filepath.Join(outDir, SummariesDir, model+pairSeparator+dataset+".parquet")
}

// CutoffsPath returns <out>/cutoffs.parquet.
func CutoffsPath(outDir string) string {
	return filepath.Join(outDir, CutoffsFile)
}

// WriteErrorMetrics writes the per-series records sorted by unique_id.
func WriteErrorMetrics(outDir, model, dataset string, records []schema.ErrorRecord) (string, error) {
	rows := make([]ErrorMetricRow, len(records))
	for i, r := range records {
		rows[i] = ErrorMetricRow{
			UniqueID: r.UniqueID,
			MASE:     r.MASE,
			Status:   string(r.Status),
			Horizon:  int32(r.Horizon),
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].UniqueID < rows[j].UniqueID })

	path := ErrorMetricsPath(outDir, model, dataset)
	if err := WriteParquet(path, rows); err != nil {
		return "", fmt.Errorf("failed to write error metrics: %w", err)
	}
	return path, nil
}

// WriteSummary writes the single summary row of a run.
func WriteSummary(outDir string, s schema.RunSummary) (string, error) {
	row := SummaryRow{
		Dataset:       s.Dataset,
		Model:         s.Model,
		NSeriesIn:     int32(s.NSeriesIn),
		NSeriesScored: int32(s.NSeriesScored),
		MeanMASE:      s.MeanMASE,
		MedianMASE:    s.MedianMASE,
		Seed:          int64(s.Seed),
	}
	if !s.Cutoff.IsZero() {
		cutoff := s.Cutoff
		row.Cutoff = &cutoff
	}

	path := SummaryPath(outDir, s.Model, s.Dataset)
	if err := WriteParquet(path, []SummaryRow{row}); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}

// AppendCutoff adds (dataset, cutoff) to the shared cutoff log.
func AppendCutoff(outDir string, rec schema.CutoffRecord) error {
	path := CutoffsPath(outDir)
	return withFileLock(path, func() error {
		existing, err := ReadParquet[CutoffRow](path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read cutoff log: %w", err)
		}
		existing = append(existing, CutoffRow{Dataset: rec.Dataset, Cutoff: rec.Cutoff.UTC()})
		return WriteParquet(path, existing)
	})
}

// ReadCutoffs returns the cutoff log in append order.
func ReadCutoffs(outDir string) ([]schema.CutoffRecord, error) {
	rows, err := ReadParquet[CutoffRow](CutoffsPath(outDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]schema.CutoffRecord, len(rows))
	for i, r := range rows {
		out[i] = schema.CutoffRecord{Dataset: r.Dataset, Cutoff: r.Cutoff.UTC()}
	}
	return out, nil
}

// ReadErrorMetrics loads the per-series rows of one (model, dataset) pair.
func ReadErrorMetrics(outDir, model, dataset string) ([]schema.ErrorRecord, error) {
	rows, err := ReadParquet[ErrorMetricRow](ErrorMetricsPath(outDir, model, dataset))
	if err != nil {
		return nil, err
	}
	out := make([]schema.ErrorRecord, len(rows))
	for i, r := range rows {
		out[i] = schema.ErrorRecord{
			Dataset:  dataset,
			Model:    model,
			UniqueID: r.UniqueID,
			MASE:     r.MASE,
			Status:   schema.SeriesStatus(r.Status),
			Horizon:  int(r.Horizon),
		}
	}
	return out, nil
}

// ReadSummary loads one summary file.
func ReadSummary(path string) (schema.RunSummary, error) {
	rows, err := ReadParquet[SummaryRow](path)
	if err != nil {
		return schema.RunSummary{}, err
	}
	if len(rows) != 1 {
		return schema.RunSummary{}, fmt.Errorf("summary %s has %d rows, want 1", path, len(rows))
	}
	r := rows[0]
	s := schema.RunSummary{
		Dataset:       r.Dataset,
		Model:         r.Model,
		NSeriesIn:     int(r.NSeriesIn),
		NSeriesScored: int(r.NSeriesScored),
		MeanMASE:      r.MeanMASE,
		MedianMASE:    r.MedianMASE,
		Seed:          uint64(r.Seed),
	}
	if r.Cutoff != nil {
		s.Cutoff = r.Cutoff.UTC()
	}
	return s, nil
}

// ReadSummaries loads every summary under the output root concurrently and
// returns them sorted by (model, dataset).
func ReadSummaries(ctx context.Context, outDir string) ([]schema.RunSummary, error) {
	paths, err := filepath.Glob(filepath.Join(outDir, SummariesDir, "*"+pairSeparator+"*.parquet"))
	if err != nil {
		return nil, err
	}
	paths = slices.DeleteFunc(paths, func(p string) bool {
		return strings.HasPrefix(filepath.Base(p), ".")
	})

	out := make([]schema.RunSummary, len(paths))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			s, err := ReadSummary(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Model != out[j].Model {
			return out[i].Model < out[j].Model
		}
		return out[i].Dataset < out[j].Dataset
	})
	return out, nil
}
