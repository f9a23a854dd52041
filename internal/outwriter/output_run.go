package outwriter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/finbench/internal/contract"
	"github.com/huangsam/finbench/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// statusOrder is the display order of series statuses.
var statusOrder = []schema.SeriesStatus{
	schema.StatusOK,
	schema.StatusInsufficientHistory,
	schema.StatusAllNaN,
	schema.StatusForecastFailed,
	schema.StatusForecastMissing,
	schema.StatusForecastInvalid,
	schema.StatusScaleDegenerate,
}

// WriteRunResult outputs one run result, dispatching on the configured format.
// Binary formats fall back to the text summary since the run already wrote
// its parquet outputs.
func WriteRunResult(result *schema.EvaluationResult, cfg *contract.Config) error {
	_, fmtCSV := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVRunRecords(w, result.Records, fmtCSV)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunTable(w, result, cfg)
		}, "Wrote table")
	}
	return nil
}

// writeRunTable prints the status breakdown and the aggregate line.
func writeRunTable(w io.Writer, result *schema.EvaluationResult, cfg *contract.Config) error {
	s := result.Summary
	fmtMASE, _ := createFormatters(cfg.Precision)

	cutoff := "none"
	if !s.Cutoff.IsZero() {
		cutoff = s.Cutoff.Format("2006-01-02 15:04:05")
	}
	if _, err := fmt.Fprintf(w, "Dataset: %s  Model: %s  Cutoff: %s  Seed: %d\n", s.Dataset, s.Model, cutoff, s.Seed); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Status", "Series", "Share"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, status := range statusOrder {
		n := result.StatusCounts[status]
		if n == 0 {
			continue
		}
		share := float64(n) / float64(max(s.NSeriesIn, 1))
		data = append(data, []string{string(status), strconv.Itoa(n), fmt.Sprintf("%.1f%%", 100*share)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	label := contract.GetPlainLabel(s.MeanMASE)
	if cfg.UseColors {
		label = contract.GetColorLabel(s.MeanMASE)
	}
	_, err := fmt.Fprintf(w, "Scored %d/%d series. Mean MASE %s (%s), median %s. Completed in %v\n",
		s.NSeriesScored, s.NSeriesIn, fmtMASE(s.MeanMASE), label, fmtMASE(s.MedianMASE), result.Duration)
	return err
}
