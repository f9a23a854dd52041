package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/huangsam/finbench/core"
	"github.com/huangsam/finbench/internal/contract"
	"github.com/huangsam/finbench/internal/telemetry"
	"github.com/huangsam/finbench/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations. Execute replaces it with
// one that is canceled on SIGINT or SIGTERM.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// shutdownTracing flushes the span exporter when --trace is set.
var shutdownTracing func(context.Context) error

// rootCmd evaluates one (dataset, model) pair and is the entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "finbench --dataset <name> --model <name>",
	Short: "Evaluate forecasting models on financial time-series panels.",
	Long: `finbench fits one model on one dataset of a catalog, forecasts every series
past a single panel-wide cutoff and scores each series with MASE.

Per-series errors, the run summary and the cutoff log are written as parquet
files below the output directory. Per-series problems never fail the run;
they are recorded as statuses instead.

Environment overrides (unprefixed, for batch schedulers):
  DATASET_PATH, FREQUENCY, SEASONALITY, TEST_SPLIT, OUTPUT_DIR

Examples:
  # Evaluate seasonal naive on the US treasury yields panel
  finbench --dataset us_treasury_yields --model seasonal_naive

  # Same run with a one-season holdout instead of the catalog split
  TEST_SPLIT=seasonal finbench --dataset us_treasury_yields --model seasonal_naive`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("dataset") && !cmd.Flags().Changed("model") {
			return nil
		}
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		dataset, _ := cmd.Flags().GetString("dataset")
		model, _ := cmd.Flags().GetString("model")
		if dataset == "" && model == "" {
			return cmd.Help()
		}
		if dataset == "" || model == "" {
			return errors.New("--dataset and --model are both required")
		}
		return core.ExecuteEvaluate(rootCtx, cfg, core.JobRequest{Dataset: dataset, Model: model})
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".finbench")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("FINBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("catalog", contract.DefaultCatalogPath)
	viper.SetDefault("registry", contract.DefaultRegistryPath)
	viper.SetDefault("output-dir", contract.DefaultOutputDir)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("history-backend", schema.NoneBackend)
	viper.SetDefault("history-db-connect", "")
	viper.SetDefault("by", schema.GroupByRun)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", "text")
	viper.SetDefault("color", "yes")
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(_ context.Context, cmd *cobra.Command, _ []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	cfg.OutputDirChanged = cmd.Flags().Changed("output-dir")

	// 4. Logging goes to stderr so stdout only carries results (or MCP frames).
	contract.InitLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	// 5. Optional span export.
	if cfg.Trace && shutdownTracing == nil {
		shutdown, err := telemetry.InitTracing(os.Stderr, version)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		shutdownTracing = shutdown
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// Execute runs the root command with a context canceled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCtx = ctx
	return rootCmd.ExecuteContext(ctx)
}

// Shutdown flushes telemetry exporters that were started during setup.
func Shutdown() error {
	if shutdownTracing == nil {
		return nil
	}
	return shutdownTracing(context.Background())
}
