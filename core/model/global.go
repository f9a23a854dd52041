package model

import (
	"context"
	"fmt"
	"slices"

	"github.com/huangsam/finbench/core/model/estimators"
	"github.com/huangsam/finbench/core/prep"
	"github.com/huangsam/finbench/schema"
)

// GlobalAdapter fits one estimator jointly across all series and forecasts
// each series autoregressively from its trailing context window.
type GlobalAdapter struct {
	factory       func() estimators.Global
	contextLength int
}

// NewGlobalAdapter creates a global adapter with the given context length.
func NewGlobalAdapter(factory func() estimators.Global, contextLength int) *GlobalAdapter {
	return &GlobalAdapter{factory: factory, contextLength: contextLength}
}

// Family implements Adapter.
func (a *GlobalAdapter) Family() schema.BackendFamily { return schema.GlobalNeural }

type globalFitted struct {
	est   estimators.Global
	l     int
	train *prep.Prepared
}

// Fit implements Adapter. Fit errors are fatal for the run.
func (a *GlobalAdapter) Fit(ctx context.Context, train *prep.Prepared) (Fitted, error) {
	seqs := make([][]float64, len(train.Series))
	for i, s := range train.Series {
		seqs[i] = s.Y
	}
	est := a.factory()
	if err := guard(func() error { return est.Fit(ctx, seqs) }); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", schema.ErrModelFitFailed, err)
	}
	return &globalFitted{est: est, l: a.contextLength, train: train}, nil
}

// Predict implements Fitted. Forecasts are mapped back through the series
// scaler when one exists.
func (f *globalFitted) Predict(ctx context.Context, h Horizon) (*schema.ForecastPanel, []Failure, error) {
	var failures []Failure
	series := make([]schema.ForecastSeries, 0, len(f.train.Series))
	for _, s := range f.train.Series {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		steps := h.Steps[s.ID]
		if len(s.Y) < f.l {
			failures = append(failures, Failure{UniqueID: s.ID, Err: fmt.Errorf("%w: %d points for context %d", estimators.ErrTooShort, len(s.Y), f.l)})
			continue
		}

		window := slices.Clone(s.Y[len(s.Y)-f.l:])
		yhat := make([]float64, 0, steps)
		err := guard(func() error {
			for range steps {
				next, err := f.est.PredictNext(window)
				if err != nil {
					return err
				}
				yhat = append(yhat, next)
				window = append(window[1:], next)
			}
			return nil
		})
		if err != nil {
			failures = append(failures, Failure{UniqueID: s.ID, Err: fmt.Errorf("predict: %w", err)})
			continue
		}
		f.train.Unscale(s.ID, yhat)
		series = append(series, schema.ForecastSeries{ID: s.ID, DS: h.Targets[s.ID], YHat: yhat})
	}
	return schema.NewForecastPanel(series), failures, nil
}
