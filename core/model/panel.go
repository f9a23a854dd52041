package model

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/huangsam/finbench/core/model/estimators"
	"github.com/huangsam/finbench/core/prep"
	"github.com/huangsam/finbench/schema"
)

// PanelAdapter hands the flat training table to a panel backend and renames
// the backend's prediction column to y_hat.
type PanelAdapter struct {
	backend estimators.Panel
	column  string
}

// NewPanelAdapter creates a panel adapter whose backend labels its output
// column with column.
func NewPanelAdapter(backend estimators.Panel, column string) *PanelAdapter {
	return &PanelAdapter{backend: backend, column: column}
}

// Family implements Adapter.
func (a *PanelAdapter) Family() schema.BackendFamily { return schema.PanelStatistical }

type panelFitted struct {
	a     *PanelAdapter
	train *prep.Prepared
}

// Fit implements Adapter. Panel backends fit and forecast in one call, so
// the work happens in Predict.
func (a *PanelAdapter) Fit(_ context.Context, train *prep.Prepared) (Fitted, error) {
	if train.Table == nil {
		train.Table = schema.NewPanelFromSeries(train.Series)
	}
	return &panelFitted{a: a, train: train}, nil
}

// Predict implements Fitted. The backend forecasts H steps for every series
// on the frequency calendar; each series keeps its first h_i rows, mapped
// back to the raw space when the table was scaled.
func (f *panelFitted) Predict(ctx context.Context, h Horizon) (*schema.ForecastPanel, []Failure, error) {
	if f.train.Table.NumSeries() == 0 {
		return schema.NewForecastPanel(nil), nil, nil
	}

	var out *estimators.Table
	err := guard(func() error {
		var err error
		out, err = f.a.backend.Forecast(ctx, f.train.Table, f.train.Frequency, h.Max())
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, fmt.Errorf("%w: %v", schema.ErrModelFitFailed, err)
	}

	yhat, err := f.a.predictionColumn(out)
	if err != nil {
		return nil, nil, err
	}

	type point struct {
		ds time.Time
		v  float64
	}
	byID := make(map[string][]point)
	for i, id := range out.UniqueID {
		byID[id] = append(byID[id], point{ds: out.DS[i], v: yhat[i]})
	}

	series := make([]schema.ForecastSeries, 0, len(byID))
	for id, pts := range byID {
		steps, ok := h.Steps[id]
		if !ok {
			continue
		}
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].ds.Before(pts[j].ds) })
		pts = pts[:min(steps, len(pts))]
		fs := schema.ForecastSeries{ID: id, DS: make([]time.Time, len(pts)), YHat: make([]float64, len(pts))}
		for i, p := range pts {
			fs.DS[i], fs.YHat[i] = p.ds, p.v
		}
		f.train.Unscale(id, fs.YHat)
		series = append(series, fs)
	}
	return schema.NewForecastPanel(series), nil, nil
}

// predictionColumn checks the backend produced exactly one prediction column
// and returns it as y_hat.
func (a *PanelAdapter) predictionColumn(out *estimators.Table) ([]float64, error) {
	if out == nil || len(out.Columns) != 1 {
		n := 0
		if out != nil {
			n = len(out.Columns)
		}
		return nil, fmt.Errorf("%w: panel backend returned %d prediction columns, want 1", schema.ErrModelFitFailed, n)
	}
	yhat, ok := out.Columns[a.column]
	if !ok {
		return nil, fmt.Errorf("%w: panel backend did not return column %q", schema.ErrModelFitFailed, a.column)
	}
	if len(yhat) != len(out.UniqueID) || len(out.DS) != len(out.UniqueID) {
		return nil, fmt.Errorf("%w: panel backend returned ragged columns", schema.ErrModelFitFailed)
	}
	return yhat, nil
}
