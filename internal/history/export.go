package history

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/finbench/internal/contract"
	"github.com/huangsam/finbench/internal/parquet"
)

// ExportFiles are the parquet files written by Export.
type ExportFiles struct {
	Runs         string
	SeriesErrors string
}

// Export writes every recorded run and series row to parquet files named
// after outputFile.
func Export(store contract.HistoryStore, outputFile string, w io.Writer) (ExportFiles, error) {
	if outputFile == "" {
		return ExportFiles{}, errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus()
	if err != nil {
		return ExportFiles{}, fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return ExportFiles{}, errors.New("no run history found to export")
	}
	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)

	runs, err := store.GetAllRuns()
	if err != nil {
		return ExportFiles{}, fmt.Errorf("failed to retrieve runs: %w", err)
	}
	series, err := store.GetSeriesErrors("")
	if err != nil {
		return ExportFiles{}, fmt.Errorf("failed to retrieve series errors: %w", err)
	}

	files := ExportFiles{
		Runs:         outputFile + ".runs.parquet",
		SeriesErrors: outputFile + ".series_errors.parquet",
	}
	if err := parquet.WriteEvaluationRunsParquet(parquet.ConvertRunRecords(runs), files.Runs); err != nil {
		return ExportFiles{}, fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), files.Runs)

	if err := parquet.WriteSeriesErrorsParquet(parquet.ConvertSeriesErrorRecords(series), files.SeriesErrors); err != nil {
		return ExportFiles{}, fmt.Errorf("failed to write series errors: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d series rows to: %s\n", len(series), files.SeriesErrors)
	return files, nil
}
