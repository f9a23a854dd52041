package outwriter

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/huangsam/finbench/internal/contract"
	"github.com/huangsam/finbench/internal/parquet"
	"github.com/huangsam/finbench/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteLeaderboardResults outputs the leaderboard, dispatching on the
// configured format.
func WriteLeaderboardResults(rows []schema.LeaderboardRow, cfg *contract.Config, duration time.Duration) error {
	_, fmtCSV := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rows)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVLeaderboard(w, rows, fmtCSV)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errOutputFileRequired
		}
		if err := parquet.WriteLeaderboardParquet(parquet.ConvertLeaderboardRows(rows), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote parquet to %s\n", cfg.OutputFile)
	case schema.XLSXOut:
		if cfg.OutputFile == "" {
			return errOutputFileRequired
		}
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeXLSXLeaderboard(w, rows, cfg.Precision)
		}, "Wrote workbook"); err != nil {
			return fmt.Errorf("error writing xlsx output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeLeaderboardTable(w, rows, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

// writeLeaderboardTable generates and writes the human-readable table.
func writeLeaderboardTable(w io.Writer, rows []schema.LeaderboardRow, cfg *contract.Config, duration time.Duration) error {
	fmtMASE, _ := createFormatters(cfg.Precision)
	byModel := cfg.GroupBy == schema.GroupByModel
	width := GetMaxTableNameWidth(cfg)

	table := tablewriter.NewWriter(w)
	headers := []string{"Rank", "Model"}
	if byModel {
		headers = append(headers, "Runs")
	} else {
		headers = append(headers, "Dataset")
	}
	headers = append(headers, "Series", "Scored", "Mean MASE", "Median MASE", "Label")
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range rows {
		row := []string{strconv.Itoa(r.Rank), truncateName(r.Model, width)}
		if byModel {
			row = append(row, strconv.Itoa(r.Runs))
		} else {
			row = append(row, truncateName(r.Dataset, width))
		}
		label := contract.GetPlainLabel(r.MeanMASE)
		if cfg.UseColors {
			label = contract.GetColorLabel(r.MeanMASE)
		}
		row = append(row,
			strconv.Itoa(r.NSeriesIn),
			strconv.Itoa(r.NSeriesScored),
			fmtMASE(r.MeanMASE),
			fmtMASE(r.MedianMASE),
			label,
		)
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Report over %d rows completed in %v\n", len(rows), duration)
	return err
}
