// Package core has the evaluation pipeline and the entry points of every
// command.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/finbench/core/model/estimators"
	"github.com/huangsam/finbench/internal/catalog"
	"github.com/huangsam/finbench/internal/contract"
	"github.com/huangsam/finbench/internal/history"
	"github.com/huangsam/finbench/internal/outwriter"
	"github.com/huangsam/finbench/internal/parquet"
	"github.com/huangsam/finbench/internal/telemetry"
	"github.com/huangsam/finbench/schema"
)

// ExecutorFunc defines the function signature for executing the batch commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config) error

// Workspace holds the catalog and registry every command resolves against.
type Workspace struct {
	Catalog  *catalog.Catalog
	Registry *catalog.Registry
}

// LoadWorkspace reads the dataset catalog and the model registry.
func LoadWorkspace(cfg *contract.Config) (*Workspace, error) {
	cat, err := catalog.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	reg, err := catalog.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		return nil, err
	}
	return &Workspace{Catalog: cat, Registry: reg}, nil
}

// ExecuteEvaluate runs one (dataset, model) evaluation and prints its summary.
// It serves as the main entry point of the root command.
func ExecuteEvaluate(ctx context.Context, cfg *contract.Config, req JobRequest) error {
	ws, err := LoadWorkspace(cfg)
	if err != nil {
		return err
	}
	env, err := contract.LoadEnvOverrides()
	if err != nil {
		return err
	}
	job, err := BuildJob(cfg, ws.Catalog, ws.Registry, env, req)
	if err != nil {
		return err
	}

	store, err := history.NewStore(cfg.HistoryBackend, cfg.HistoryDBConnect)
	if err != nil {
		contract.LogWarn("Run history disabled", err)
		store = nil
	}
	runner := &Runner{}
	if store != nil {
		defer func() { _ = store.Close() }()
		runner.History = store
	}
	if cfg.MetricsFile != "" {
		runner.Recorder = telemetry.NewRecorder()
	}

	result, runErr := runner.Evaluate(ctx, job)
	if runner.Recorder != nil {
		if err := runner.Recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			contract.LogWarn("Failed to write metrics textfile", err)
		}
	}
	if runErr != nil {
		return runErr
	}
	return outwriter.NewOutWriter().WriteRun(result, cfg)
}

// ExecuteReport ranks every summary under the output root and prints the
// leaderboard.
func ExecuteReport(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()
	rows, err := LoadLeaderboard(ctx, cfg.OutputDir, cfg.GroupBy)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteLeaderboard(rows, cfg, time.Since(start))
}

// LoadLeaderboard reads the summaries under outDir and ranks them.
func LoadLeaderboard(ctx context.Context, outDir string, by schema.ReportGrouping) ([]schema.LeaderboardRow, error) {
	summaries, err := parquet.ReadSummaries(ctx, outDir)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("no run summaries found under %s", outDir)
	}
	return BuildLeaderboard(summaries, by), nil
}

// ExecuteJobs writes the batch job list over every dataset and model.
func ExecuteJobs(_ context.Context, cfg *contract.Config) error {
	ws, err := LoadWorkspace(cfg)
	if err != nil {
		return err
	}
	if ws.Catalog.Len() == 0 {
		return errors.New("catalog lists no datasets")
	}

	path := cfg.OutputFile
	if path == "" {
		env, err := contract.LoadEnvOverrides()
		if err != nil {
			return err
		}
		path = DefaultJobsPath(env.ResolveOutputDir(cfg.OutputDir, cfg.OutputDirChanged))
	}
	lines := JobsFromCatalog(ws.Catalog, ws.Registry, cfg.Invoke)
	if err := WriteJobs(path, lines); err != nil {
		return fmt.Errorf("failed to write job list: %w", err)
	}
	_, err = fmt.Fprintf(os.Stderr, "📋 Wrote %d jobs to %s\n", len(lines), path)
	return err
}

// ExecuteMetrics prints the metric definitions and the estimators of every
// backend family.
func ExecuteMetrics(_ context.Context, _ *contract.Config) error {
	byFamily := make(map[schema.BackendFamily][]string)
	for _, name := range estimators.Names() {
		def, _ := estimators.Lookup(name)
		byFamily[def.Family] = append(byFamily[def.Family], name)
	}
	return outwriter.WriteDefinitions(os.Stdout, byFamily)
}
