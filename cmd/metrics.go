package cmd

import (
	"github.com/huangsam/finbench/core"
	"github.com/spf13/cobra"
)

// metricsCmd displays the formal definitions of the evaluation metric.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display the MASE definition, series statuses and available estimators",
	Long: `Show how runs are scored, without reading any data.

Includes:
- The MASE formula and its scale fallback
- The label thresholds used in tables
- Every per-series status and what causes it
- The estimators available per backend family

Examples:
  finbench metrics`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteMetrics(rootCtx, cfg)
	},
}
