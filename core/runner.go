package core

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/huangsam/finbench/core/cutoff"
	"github.com/huangsam/finbench/core/metrics"
	"github.com/huangsam/finbench/core/model"
	"github.com/huangsam/finbench/core/model/estimators"
	"github.com/huangsam/finbench/core/prep"
	"github.com/huangsam/finbench/internal/contract"
	"github.com/huangsam/finbench/internal/parquet"
	"github.com/huangsam/finbench/internal/telemetry"
	"github.com/huangsam/finbench/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AdapterFactory builds the model adapter of a run.
type AdapterFactory func(def estimators.Definition, params estimators.Params) (model.Adapter, error)

// Runner evaluates one (dataset, model) pair end to end. History and
// Recorder are optional.
type Runner struct {
	History    contract.HistoryStore
	Recorder   *telemetry.Recorder
	NewAdapter AdapterFactory
}

func (r *Runner) adapterFactory() AdapterFactory {
	if r.NewAdapter != nil {
		return r.NewAdapter
	}
	return model.New
}

// Evaluate runs the pipeline for job and writes its parquet outputs. The
// returned error is fatal for the run; per-series problems are recorded as
// statuses in the result instead.
func (r *Runner) Evaluate(ctx context.Context, job *contract.Job) (*schema.EvaluationResult, error) {
	start := time.Now()
	ctx, span := telemetry.Tracer().Start(ctx, "evaluate", trace.WithAttributes(
		attribute.String("dataset", job.Dataset.Name),
		attribute.String("model", job.Model.Name),
	))
	defer span.End()

	runID := r.beginRun(job, start)
	result, err := r.evaluate(ctx, job)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.failRun(runID, err)
		if r.Recorder != nil {
			r.Recorder.ObserveFailure(job.Dataset.Name, job.Model.Name, time.Since(start))
		}
		return nil, err
	}

	result.RunID = runID
	result.Duration = time.Since(start)
	r.endRun(runID, result)
	if r.Recorder != nil {
		r.Recorder.ObserveResult(result)
	}
	slog.Info("Evaluation finished",
		"dataset", job.Dataset.Name,
		"model", job.Model.Name,
		"n_series_in", result.Summary.NSeriesIn,
		"n_series_scored", result.Summary.NSeriesScored,
		"mean_mase", result.Summary.MeanMASE,
		"duration", result.Duration)
	return result, nil
}

func (r *Runner) evaluate(ctx context.Context, job *contract.Job) (*schema.EvaluationResult, error) {
	def, ok := estimators.Lookup(job.Model.Estimator)
	if !ok {
		return nil, fmt.Errorf("%w: unknown estimator %q", schema.ErrCatalogMalformed, job.Model.Estimator)
	}

	_, span := telemetry.Tracer().Start(ctx, "load-panel")
	load, err := parquet.OpenPanel(job.Dataset)
	span.End()
	if err != nil {
		return nil, err
	}
	slog.Debug("Loaded panel",
		"dataset", job.Dataset.Name,
		"rows_read", load.RowsRead,
		"rows_dropped", load.RowsDropped,
		"series", load.SeriesIn())

	m := job.Dataset.Seasonality
	_, span = telemetry.Tracer().Start(ctx, "plan-cutoff")
	plan, err := cutoff.Compute(load.Panel, job.Dataset.TestSplit, m, def.MinTrain(m))
	span.End()
	if err != nil {
		return nil, fmt.Errorf("failed to plan cutoff: %w", err)
	}
	if !plan.Empty() {
		rec := schema.CutoffRecord{Dataset: job.Dataset.Name, Cutoff: plan.Cutoff}
		if err := parquet.AppendCutoff(job.OutputDir, rec); err != nil {
			return nil, err
		}
	}

	records, err := r.forecastAndScore(ctx, job, def, load, plan)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agg := metrics.Summarize(records)
	summary := schema.RunSummary{
		Dataset:       job.Dataset.Name,
		Model:         job.Model.Name,
		NSeriesIn:     agg.NSeriesIn,
		NSeriesScored: agg.NSeriesScored,
		MeanMASE:      agg.MeanMASE,
		MedianMASE:    agg.MedianMASE,
		Cutoff:        plan.Cutoff,
		Seed:          job.Seed,
	}

	_, span = telemetry.Tracer().Start(ctx, "write-results")
	defer span.End()
	metricsPath, err := parquet.WriteErrorMetrics(job.OutputDir, job.Model.Name, job.Dataset.Name, records)
	if err != nil {
		return nil, err
	}
	summaryPath, err := parquet.WriteSummary(job.OutputDir, summary)
	if err != nil {
		return nil, err
	}

	return &schema.EvaluationResult{
		Summary:      summary,
		Records:      records,
		StatusCounts: schema.CountStatuses(records),
		MetricsPath:  metricsPath,
		SummaryPath:  summaryPath,
	}, nil
}

// forecastAndScore returns one record per series that entered the run,
// sorted by unique_id.
func (r *Runner) forecastAndScore(ctx context.Context, job *contract.Job, def estimators.Definition, load *parquet.LoadResult, plan *cutoff.Plan) ([]schema.ErrorRecord, error) {
	records := make([]schema.ErrorRecord, 0, load.SeriesIn())
	add := func(id string, mase float64, status schema.SeriesStatus, h int) {
		records = append(records, schema.ErrorRecord{
			Dataset:  job.Dataset.Name,
			Model:    job.Model.Name,
			UniqueID: id,
			MASE:     mase,
			Status:   status,
			Horizon:  h,
		})
	}
	nan := math.NaN()

	for _, id := range load.AllNaN {
		add(id, nan, schema.StatusAllNaN, 0)
	}
	for _, d := range plan.Dropped {
		add(d.UniqueID, nan, d.Status, 0)
	}
	if len(plan.Dropped) > 0 {
		slog.Warn("Series dropped before training",
			"dataset", job.Dataset.Name,
			"count", len(plan.Dropped),
			"min_train", plan.MinTrain)
	}

	if !plan.Empty() {
		if err := r.fitAndPredict(ctx, job, def, load.Panel, plan, add); err != nil {
			return nil, err
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].UniqueID < records[j].UniqueID })
	return records, nil
}

func (r *Runner) fitAndPredict(ctx context.Context, job *contract.Job, def estimators.Definition, panel *schema.Panel, plan *cutoff.Plan,
	add func(id string, mase float64, status schema.SeriesStatus, h int),
) error {
	m := job.Dataset.Seasonality
	nan := math.NaN()
	part := cutoff.Partition(panel, plan)

	contextLength := job.Model.ContextLength(m)
	minHistory := def.MinTrain(m)
	if def.Family == schema.GlobalNeural {
		minHistory = contextLength + 1
	}

	_, span := telemetry.Tracer().Start(ctx, "preprocess")
	prepared, drops := prep.Prepare(part.Train, def.Family, prep.OptionsFor(job.Model, job.Dataset, minHistory))
	span.End()
	for _, d := range drops {
		add(d.UniqueID, nan, d.Status, part.Horizon[d.UniqueID])
	}
	if len(prepared.Series) == 0 {
		return nil
	}

	adapter, err := r.adapterFactory()(def, estimators.Params{
		Name:          job.Model.Name,
		Seasonality:   m,
		ContextLength: contextLength,
		Epochs:        job.Model.Epochs,
		Seed:          job.Seed,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", schema.ErrCatalogMalformed, err)
	}

	fitCtx, span := telemetry.Tracer().Start(ctx, "fit")
	fitted, err := adapter.Fit(fitCtx, prepared)
	span.End()
	if err != nil {
		return err
	}

	predictCtx, span := telemetry.Tracer().Start(ctx, "predict")
	forecasts, failures, err := fitted.Predict(predictCtx, model.HorizonFor(part))
	span.End()
	if err != nil {
		return err
	}

	failed := make(map[string]bool, len(failures))
	for _, f := range failures {
		failed[f.UniqueID] = true
		slog.Debug("Series forecast failed", "unique_id", f.UniqueID, "error", f.Err)
	}

	_, span = telemetry.Tracer().Start(ctx, "score")
	defer span.End()
	for _, s := range prepared.Series {
		h := part.Horizon[s.ID]
		if failed[s.ID] {
			add(s.ID, nan, schema.StatusForecastFailed, h)
			continue
		}
		test, _ := part.Test.Lookup(s.ID)
		fc, _ := forecasts.Lookup(s.ID)
		yhat, ok := align(test.DS, fc)
		if !ok {
			add(s.ID, nan, schema.StatusForecastMissing, h)
			continue
		}
		mase, status := metrics.MASE(prepared.Insample[s.ID], test.Y, yhat, m)
		add(s.ID, mase, status, h)
	}
	return nil
}

// align inner-joins forecasts onto the test timestamps. It fails when any
// test timestamp has no forecast row.
func align(ds []time.Time, fc schema.ForecastSeries) ([]float64, bool) {
	byTime := make(map[int64]float64, len(fc.DS))
	for i, t := range fc.DS {
		byTime[t.UnixNano()] = fc.YHat[i]
	}
	out := make([]float64, len(ds))
	for i, t := range ds {
		v, ok := byTime[t.UnixNano()]
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func (r *Runner) beginRun(job *contract.Job, start time.Time) string {
	if r.History == nil {
		return ""
	}
	runID, err := r.History.BeginRun(job.Dataset.Name, job.Model.Name, job.Seed, start)
	if err != nil {
		contract.LogWarn("Run history initialization failed", err)
		return ""
	}
	return runID
}

func (r *Runner) endRun(runID string, result *schema.EvaluationResult) {
	if r.History == nil || runID == "" {
		return
	}
	if err := r.History.EndRun(runID, time.Now(), result.Summary, result.Records); err != nil {
		contract.LogWarn("Failed to finalize run history", err)
	}
}

func (r *Runner) failRun(runID string, cause error) {
	if r.History == nil || runID == "" {
		return
	}
	if err := r.History.FailRun(runID, time.Now(), cause); err != nil {
		contract.LogWarn("Failed to record failed run", err)
	}
}
