package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/huangsam/finbench/schema"
	"github.com/xuri/excelize/v2"
)

// leaderboardSheet is the worksheet name of the xlsx export.
const leaderboardSheet = "Leaderboard"

var leaderboardHeader = []string{
	"rank", "model", "dataset", "runs", "n_series_in", "n_series_scored", "mean_mase", "median_mase", "scored_share",
}

// writeCSVLeaderboard writes leaderboard rows as CSV.
func writeCSVLeaderboard(w io.Writer, rows []schema.LeaderboardRow, fmtCSV func(float64) string) error {
	return writeCSVWithHeader(w, leaderboardHeader, func(cw *csv.Writer) error {
		for _, r := range rows {
			record := []string{
				strconv.Itoa(r.Rank),
				r.Model,
				r.Dataset,
				strconv.Itoa(r.Runs),
				strconv.Itoa(r.NSeriesIn),
				strconv.Itoa(r.NSeriesScored),
				fmtCSV(r.MeanMASE),
				fmtCSV(r.MedianMASE),
				fmtCSV(r.ScoredShare),
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeXLSXLeaderboard writes leaderboard rows to a single-sheet workbook.
// Undefined MASE values are left as empty cells.
func writeXLSXLeaderboard(w io.Writer, rows []schema.LeaderboardRow, precision int) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), leaderboardSheet); err != nil {
		return err
	}
	header := make([]any, len(leaderboardHeader))
	for i, h := range leaderboardHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(leaderboardSheet, "A1", &header); err != nil {
		return err
	}

	round := func(v float64) any {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		scale := math.Pow(10, float64(precision))
		return math.Round(v*scale) / scale
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			r.Rank, r.Model, r.Dataset, r.Runs, r.NSeriesIn, r.NSeriesScored,
			round(r.MeanMASE), round(r.MedianMASE), round(r.ScoredShare),
		}
		if err := f.SetSheetRow(leaderboardSheet, cell, &values); err != nil {
			return err
		}
	}
	if err := f.SetPanes(leaderboardSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	return f.Write(w)
}
