package telemetry

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/finbench/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func sampleResult() *schema.EvaluationResult {
	return &schema.EvaluationResult{
		Summary: schema.RunSummary{Dataset: "fx", Model: "naive", NSeriesIn: 3, NSeriesScored: 2, MeanMASE: 0.75},
		StatusCounts: map[schema.SeriesStatus]int{
			schema.StatusOK:             2,
			schema.StatusForecastFailed: 1,
		},
		Duration: 2 * time.Second,
	}
}

func TestRecorderObserveResult(t *testing.T) {
	r := NewRecorder()
	r.ObserveResult(sampleResult())
	r.ObserveFailure("fx", "mlp", time.Second)

	families, err := r.Registry().Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, l := range m.GetLabel() {
				key += "," + l.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				values[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[key] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				values[key] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	assert.Equal(t, 2.0, values["finbench_series_total,fx,naive,ok"])
	assert.Equal(t, 1.0, values["finbench_series_total,fx,naive,forecast-failed"])
	assert.Equal(t, 2.0, values["finbench_series_scored,fx,naive"])
	assert.Equal(t, 1.0, values["finbench_runs_total,fx,mlp,failed"])
	assert.Equal(t, 1.0, values["finbench_run_duration_seconds,fx,naive"])
}

func TestRecorderWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveResult(sampleResult())

	path := filepath.Join(t.TempDir(), "finbench.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `finbench_series_total{dataset="fx",model="naive",status="ok"} 2`)
	assert.Contains(t, string(data), "finbench_run_duration_seconds_bucket")
}

func TestInitTracing(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := InitTracing(&buf, "test")
	require.NoError(t, err)

	_, span := Tracer().Start(context.Background(), "plan-cutoff")
	span.End()
	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "plan-cutoff")
	assert.Contains(t, buf.String(), ServiceName)
}
