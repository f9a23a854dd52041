// Package cmd defines the command-line interface for finbench.
package cmd

import (
	"github.com/huangsam/finbench/internal/contract"
	"github.com/huangsam/finbench/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// The evaluated pair is a plain flag of the root command, not a setting
	rootCmd.Flags().String("dataset", "", "Dataset name from the catalog")
	rootCmd.Flags().String("model", "", "Model name from the registry")

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("catalog", contract.DefaultCatalogPath, "Path to the dataset catalog YAML")
	rootCmd.PersistentFlags().String("registry", contract.DefaultRegistryPath, "Path to the model registry YAML")
	rootCmd.PersistentFlags().String("output-dir", contract.DefaultOutputDir, "Root directory for parquet results (OUTPUT_DIR overrides the default)")
	rootCmd.PersistentFlags().Bool("strict-catalog", false, "Fail on datasets missing from the catalog instead of using defaults")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet or xlsx")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for MASE columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("history-backend", string(schema.NoneBackend), "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().Bool("trace", false, "Print OpenTelemetry spans of each pipeline stage to stderr")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus textfile metrics of the run to this path")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of reportCmd to Viper
	reportCmd.Flags().String("by", string(schema.GroupByRun), "Leaderboard grouping: run or model")
	if err := viper.BindPFlags(reportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding report flags", err)
	}

	// Bind all flags of jobsCmd to Viper
	jobsCmd.Flags().String("invoke", "", "Command prefix of each job line (defaults to the model script, then finbench)")
	if err := viper.BindPFlags(jobsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding jobs flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
