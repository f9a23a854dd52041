package cmd

import (
	"github.com/huangsam/finbench/core"
	"github.com/spf13/cobra"
)

// reportCmd ranks every evaluated pair.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Rank every evaluated (model, dataset) pair by mean MASE",
	Long: `Build a leaderboard from all summary files below the output directory.

Summaries are loaded concurrently and ranked by mean MASE, lowest first.
Runs that scored no series rank last.

Groupings:
  run   - one row per (model, dataset) summary (default)
  model - one row per model: mean and median of its mean MASE values
          plus the share of series scored across its runs

Examples:
  # Leaderboard of all runs
  finbench report

  # Per-model leaderboard as a spreadsheet
  finbench report --by model --output xlsx --output-file leaderboard.xlsx`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteReport(rootCtx, cfg)
	},
}
