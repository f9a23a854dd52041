package contract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/huangsam/finbench/schema"
)

// Default values for configuration.
const (
	DefaultCatalogPath  = "conf/datasets.yaml"
	DefaultRegistryPath = "conf/models.yaml"
	DefaultOutputDir    = "results"
	DefaultPrecision    = 3
	DefaultInvoke       = "finbench"
)

// Config holds the runtime configuration of the tool.
// This struct remains the "final, validated" config.
type Config struct {
	CatalogPath   string
	RegistryPath  string
	OutputDir     string
	StrictCatalog bool

	// OutputDirChanged is true when --output-dir was given explicitly, which
	// takes precedence over OUTPUT_DIR.
	OutputDirChanged bool

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	GroupBy    schema.ReportGrouping
	Invoke     string

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	Trace       bool
	MetricsFile string
	LogLevel    slog.Level
	LogFormat   string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Catalog          string `mapstructure:"catalog" validate:"required"`
	Registry         string `mapstructure:"registry" validate:"required"`
	OutputDir        string `mapstructure:"output-dir" validate:"required"`
	StrictCatalog    bool   `mapstructure:"strict-catalog"`
	HistoryBackend   string `mapstructure:"history-backend" validate:"omitempty,oneof=sqlite mysql postgresql none"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	Trace            bool   `mapstructure:"trace"`
	MetricsFile      string `mapstructure:"metrics-file"`
	LogLevel         string `mapstructure:"log-level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat        string `mapstructure:"log-format" validate:"omitempty,oneof=text json"`
	Color            string `mapstructure:"color"`

	// --- Fields from reportCmd and jobsCmd flags ---
	Output     string `mapstructure:"output" validate:"omitempty,oneof=text csv json parquet xlsx"`
	OutputFile string `mapstructure:"output-file"`
	Precision  int    `mapstructure:"precision" validate:"gte=0,lte=12"`
	Width      int    `mapstructure:"width" validate:"gte=0"`
	GroupBy    string `mapstructure:"by" validate:"omitempty,oneof=run model"`
	Invoke     string `mapstructure:"invoke"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ProcessAndValidate reads from input and populates cfg.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validate.Struct(input); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// validateSimpleInputs copies and normalizes the scalar settings.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.CatalogPath = input.Catalog
	cfg.RegistryPath = input.Registry
	cfg.OutputDir = input.OutputDir
	cfg.StrictCatalog = input.StrictCatalog
	cfg.OutputFile = input.OutputFile
	cfg.Precision = input.Precision
	cfg.Width = input.Width
	cfg.Trace = input.Trace
	cfg.MetricsFile = input.MetricsFile
	cfg.Invoke = input.Invoke

	cfg.Output = schema.TextOut
	if input.Output != "" {
		cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'", input.Output)
	}

	cfg.GroupBy = schema.GroupByRun
	if input.GroupBy != "" {
		cfg.GroupBy = schema.ReportGrouping(input.GroupBy)
	}

	cfg.UseColors = true
	if input.Color != "" {
		useColors, err := ParseBoolString(input.Color)
		if err != nil {
			return fmt.Errorf("invalid color value: %w", err)
		}
		cfg.UseColors = useColors
	}

	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level
	cfg.LogFormat = input.LogFormat
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	return nil
}

// validateBackendConfigs resolves the history backend and its connection string.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.HistoryBackend = schema.NoneBackend
	if input.HistoryBackend != "" {
		cfg.HistoryBackend = schema.DatabaseBackend(input.HistoryBackend)
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'", input.HistoryBackend)
	}
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, input.HistoryDBConnect); err != nil {
		return err
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if cfg.HistoryBackend == schema.SQLiteBackend && cfg.HistoryDBConnect == "" {
		cfg.HistoryDBConnect = GetHistoryDBFilePath()
	}
	return nil
}

// ValidateDatabaseConnectionString performs basic shape checks on connection strings.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseLogLevel maps a level name onto slog levels. Empty means info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s'", s)
	}
}
