// Package main provides a performance benchmarking tool for the finbench CLI.
// It generates synthetic panels of increasing size, evaluates one model of each
// backend family against them several times, and writes a CSV of the timings.
// Each pair runs once without run history and then with SQLite history, where
// the first run is reported as cold and the rest are averaged as warm.
//
// Prerequisites:
// - finbench binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where panels, catalog, registry and results are written
package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/finbench/internal/parquet"
	"github.com/huangsam/finbench/schema"
)

// BenchmarkResult holds the result of a benchmark run (no-history average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset       string
	Model         string
	NoHistoryTime string
	ColdTime      string
	WarmTime      string
}

// PanelSize describes one synthetic dataset.
type PanelSize struct {
	Name   string
	Series int
	Length int
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir       string
	Timeout       time.Duration
	NoHistoryRuns int
	HistoryRuns   int
	Panels        []PanelSize
	Models        []string
	catalogPath   string
	registryPath  string
	outputDir     string
	historyDBPath string
}

const benchmarkRegistry = `models:
  seasonal_naive:
    backend_family: local-statistical
  theta:
    backend_family: local-statistical
    requires_interpolation: true
  nlinear:
    backend_family: global-neural
    estimator: linear
    requires_scaling: true
    requires_f32: true
    context_multiplier: 4
  sf_ets:
    backend_family: panel-statistical
    estimator: panel_ets
`

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}
	workDir := os.Args[1]

	config := BenchmarkConfig{
		WorkDir:       workDir,
		Timeout:       5 * time.Minute,
		NoHistoryRuns: 3,
		HistoryRuns:   4,
		Panels: []PanelSize{
			{Name: "small", Series: 10, Length: 200},
			{Name: "medium", Series: 100, Length: 500},
			{Name: "large", Series: 1000, Length: 1000},
		},
		Models: []string{"seasonal_naive", "theta", "nlinear", "sf_ets"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generating panels in %s...\n", workDir)
	if err := prepareWorkspace(&config); err != nil {
		fmt.Printf("Failed to prepare workspace: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the finbench binary exists
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("finbench"); err != nil {
		return fmt.Errorf("finbench binary not found in PATH")
	}
	if config.WorkDir == "" {
		return fmt.Errorf("work dir must not be empty")
	}
	return nil
}

// prepareWorkspace writes one panel per size plus the catalog and registry that reference them
func prepareWorkspace(config *BenchmarkConfig) error {
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return err
	}

	var catalog strings.Builder
	catalog.WriteString("data_root: .\ndatasets:\n  synthetic:\n")
	for _, p := range config.Panels {
		path := filepath.Join(config.WorkDir, p.Name+".parquet")
		if err := parquet.WritePanel(path, syntheticPanel(p)); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(&catalog, "    %s:\n      path: %s.parquet\n      frequency: D\n      seasonality: 7\n      test_split: 0.1\n", p.Name, p.Name)
	}

	config.catalogPath = filepath.Join(config.WorkDir, "datasets.yaml")
	config.registryPath = filepath.Join(config.WorkDir, "models.yaml")
	config.outputDir = filepath.Join(config.WorkDir, "results")
	config.historyDBPath = filepath.Join(config.WorkDir, "history.db")

	if err := os.WriteFile(config.catalogPath, []byte(catalog.String()), 0o644); err != nil {
		return err
	}
	return os.WriteFile(config.registryPath, []byte(benchmarkRegistry), 0o644)
}

// syntheticPanel builds a weekly-seasonal random walk per series with a fixed seed
func syntheticPanel(p PanelSize) *schema.Panel {
	rng := rand.New(rand.NewPCG(uint64(p.Series), uint64(p.Length)))
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make([]schema.Series, p.Series)
	for s := range series {
		ds := schema.Day.Range(start, p.Length)
		y := make([]float64, p.Length)
		level := 0.0
		for i := range y {
			level += rng.NormFloat64() * 0.1
			y[i] = level + math.Sin(2*math.Pi*float64(i)/7)
		}
		series[s] = schema.Series{ID: fmt.Sprintf("s%05d", s), DS: ds, Y: y}
	}
	return schema.NewPanelFromSeries(series)
}

// runBenchmarks executes every (dataset, model) pair
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d panels, %d models, %v timeout, no-history: %d runs, history: %d runs\n",
		len(config.Panels), len(config.Models), config.Timeout, config.NoHistoryRuns, config.HistoryRuns)

	for _, p := range config.Panels {
		fmt.Printf("Benchmarking %s (%d series x %d points)\n", p.Name, p.Series, p.Length)
		for _, model := range config.Models {
			results = append(results, runBenchmarkSuite(config, p.Name, model))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-history and history benchmarks for a pair
func runBenchmarkSuite(config BenchmarkConfig, dataset, model string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", model, dataset)

	runPhase := func(backend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, dataset, model, backend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	_, noHistoryAvg := runPhase("none", config.NoHistoryRuns, "No-history")
	coldTime, warmAvg := runPhase("sqlite", config.HistoryRuns, "History")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-history average: %s, Cold time: %s, Warm average: %s\n", noHistoryAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:       dataset,
		Model:         model,
		NoHistoryTime: noHistoryAvg,
		ColdTime:      coldTimeStr,
		WarmTime:      warmAvg,
	}
}

// runBenchmark evaluates one pair several times and returns the cold time and warm times
func runBenchmark(config BenchmarkConfig, dataset, model, backend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		"--dataset", dataset,
		"--model", model,
		"--catalog", config.catalogPath,
		"--registry", config.registryPath,
		"--output-dir", config.outputDir,
		"--history-backend", backend,
		"--color", "no",
	}
	if backend == "sqlite" {
		args = append(args, "--history-db-connect", config.historyDBPath)
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("finbench", args...)
		cmd.Dir = config.WorkDir

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates a completed evaluation
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Scored") && strings.Contains(outputStr, "Completed in")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("finbench_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "model", "no_history_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Model, result.NoHistoryTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results grouped by panel
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, p := range config.Panels {
		fmt.Printf("%s:\n", p.Name)
		for _, result := range results {
			if result.Dataset == p.Name {
				fmt.Printf("  %-16s: No-history: %s, Cold: %s, Warm: %s\n", result.Model, result.NoHistoryTime, result.ColdTime, result.WarmTime)
			}
		}
	}
	fmt.Printf("Benchmark script completed successfully\n")
}
