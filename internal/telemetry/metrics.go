package telemetry

import (
	"fmt"
	"time"

	"github.com/huangsam/finbench/schema"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects run metrics in a private registry and writes them in the
// node_exporter textfile format.
type Recorder struct {
	registry *prometheus.Registry
	series   *prometheus.CounterVec
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	scored   *prometheus.GaugeVec
	meanMASE *prometheus.GaugeVec
}

// NewRecorder creates a recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		series: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName,
			Name:      "series_total",
			Help:      "Series evaluated, by outcome status",
		}, []string{"dataset", "model", "status"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName,
			Name:      "runs_total",
			Help:      "Evaluation runs, by outcome",
		}, []string{"dataset", "model", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ServiceName,
			Name:      "run_duration_seconds",
			Help:      "Wall time of an evaluation run",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		}, []string{"dataset", "model"}),
		scored: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ServiceName,
			Name:      "series_scored",
			Help:      "Series with a finite MASE in the last run",
		}, []string{"dataset", "model"}),
		meanMASE: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ServiceName,
			Name:      "mean_mase",
			Help:      "Mean MASE of the last run",
		}, []string{"dataset", "model"}),
	}
	r.registry.MustRegister(r.series, r.runs, r.duration, r.scored, r.meanMASE)
	return r
}

// ObserveResult records a finished run.
func (r *Recorder) ObserveResult(result *schema.EvaluationResult) {
	s := result.Summary
	for status, n := range result.StatusCounts {
		r.series.WithLabelValues(s.Dataset, s.Model, string(status)).Add(float64(n))
	}
	r.runs.WithLabelValues(s.Dataset, s.Model, string(schema.RunSucceeded)).Inc()
	r.duration.WithLabelValues(s.Dataset, s.Model).Observe(result.Duration.Seconds())
	r.scored.WithLabelValues(s.Dataset, s.Model).Set(float64(s.NSeriesScored))
	r.meanMASE.WithLabelValues(s.Dataset, s.Model).Set(s.MeanMASE)
}

// ObserveFailure records a run that ended with a fatal error.
func (r *Recorder) ObserveFailure(dataset, model string, elapsed time.Duration) {
	r.runs.WithLabelValues(dataset, model, string(schema.RunFailed)).Inc()
	r.duration.WithLabelValues(dataset, model).Observe(elapsed.Seconds())
}

// Registry exposes the collectors, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteTextfile atomically writes every metric to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
