package model

import (
	"context"
	"fmt"

	"github.com/huangsam/finbench/core/model/estimators"
	"github.com/huangsam/finbench/core/prep"
	"github.com/huangsam/finbench/schema"
)

// LocalAdapter fits one estimator per series. A failing series never fails
// the run; it is reported as a Failure.
type LocalAdapter struct {
	factory func() estimators.Local
}

// NewLocalAdapter creates a local adapter producing a fresh estimator per series.
func NewLocalAdapter(factory func() estimators.Local) *LocalAdapter {
	return &LocalAdapter{factory: factory}
}

// Family implements Adapter.
func (a *LocalAdapter) Family() schema.BackendFamily { return schema.LocalStatistical }

type localFitted struct {
	ids      []string
	models   map[string]estimators.Local
	failures []Failure
}

// Fit implements Adapter.
func (a *LocalAdapter) Fit(ctx context.Context, train *prep.Prepared) (Fitted, error) {
	f := &localFitted{models: make(map[string]estimators.Local, len(train.Series))}
	for _, s := range train.Series {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		est := a.factory()
		if err := guard(func() error { return est.Fit(s.Y) }); err != nil {
			f.failures = append(f.failures, Failure{UniqueID: s.ID, Err: fmt.Errorf("fit: %w", err)})
			continue
		}
		f.ids = append(f.ids, s.ID)
		f.models[s.ID] = est
	}
	return f, nil
}

// Predict implements Fitted.
func (f *localFitted) Predict(ctx context.Context, h Horizon) (*schema.ForecastPanel, []Failure, error) {
	failures := append([]Failure(nil), f.failures...)
	series := make([]schema.ForecastSeries, 0, len(f.ids))
	for _, id := range f.ids {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		steps := h.Steps[id]
		var yhat []float64
		err := guard(func() error {
			var err error
			yhat, err = f.models[id].Forecast(steps)
			return err
		})
		if err == nil && len(yhat) != steps {
			err = fmt.Errorf("estimator returned %d steps, want %d", len(yhat), steps)
		}
		if err != nil {
			failures = append(failures, Failure{UniqueID: id, Err: fmt.Errorf("predict: %w", err)})
			continue
		}
		series = append(series, schema.ForecastSeries{ID: id, DS: h.Targets[id], YHat: yhat})
	}
	return schema.NewForecastPanel(series), failures, nil
}
