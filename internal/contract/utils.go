package contract

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Color variables for console output.
var (
	GoodColor    = color.New(color.FgGreen, color.Bold) // GoodColor marks a scored series or a beaten baseline.
	WarnColor    = color.New(color.FgYellow)            // WarnColor marks per-series drops.
	BadColor     = color.New(color.FgRed, color.Bold)   // BadColor marks failures.
	NeutralColor = color.New(color.FgCyan)              // NeutralColor is informational.
)

// Label thresholds for MASE. Below one beats the in-sample naive benchmark.
const (
	StrongMASE = 0.8
	WeakMASE   = 1.0
)

// GetPlainLabel returns a plain text label for a MASE value.
func GetPlainLabel(mase float64) string {
	switch {
	case math.IsNaN(mase):
		return "n/a"
	case mase < StrongMASE:
		return "Strong"
	case mase < WeakMASE:
		return "Fair"
	default:
		return "Weak"
	}
}

// GetColorLabel returns a colored label for console output (table).
func GetColorLabel(mase float64) string {
	text := GetPlainLabel(mase)
	switch text {
	case "Strong":
		return GoodColor.Sprint(text)
	case "Fair":
		return NeutralColor.Sprint(text)
	case "Weak":
		return BadColor.Sprint(text)
	default:
		return WarnColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the
// provided file path. Empty means stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// InitLogger installs the process-wide slog logger.
func InitLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// LogFatal logs a fatal error and exits.
func LogFatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

// LogWarn logs a warning without stopping execution.
func LogWarn(msg string, err error) {
	slog.Warn(msg, "error", err)
}

// GetHistoryDBFilePath returns the default sqlite path for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".finbench_history.db"
	}
	return filepath.Join(homeDir, ".finbench_history.db")
}

// ParseBoolString parses yes/no style strings.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// FormatMASE renders a MASE value with the given precision, "NaN" when undefined.
func FormatMASE(v float64, precision int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NaN"
	}
	return fmt.Sprintf("%.*f", precision, v)
}

// NullableFloat turns NaN into nil so values survive JSON and SQL.
func NullableFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
