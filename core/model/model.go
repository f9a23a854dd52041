// Package model adapts the three backend families to one fit/predict
// interface. Local adapters fit one estimator per series, global adapters fit
// a single estimator across series, and panel adapters hand the whole
// training table to a backend.
package model

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/huangsam/finbench/core/model/estimators"
	"github.com/huangsam/finbench/core/prep"
	"github.com/huangsam/finbench/schema"
)

// Horizon carries the per-series step counts and the test timestamps that
// local and global forecasts are labeled with.
type Horizon struct {
	Steps   map[string]int
	Targets map[string][]time.Time
}

// HorizonFor builds the horizon of a partitioned panel.
func HorizonFor(part *schema.PartitionedPanel) Horizon {
	h := Horizon{
		Steps:   make(map[string]int, len(part.Horizon)),
		Targets: make(map[string][]time.Time, len(part.Horizon)),
	}
	for _, s := range part.Test.AllSeries() {
		h.Steps[s.ID] = s.Len()
		h.Targets[s.ID] = s.DS
	}
	return h
}

// Max is the panel-wide horizon H.
func (h Horizon) Max() int {
	out := 0
	for _, v := range h.Steps {
		out = max(out, v)
	}
	return out
}

// Failure is a per-series forecasting error that did not abort the run.
type Failure struct {
	UniqueID string
	Err      error
}

// Adapter fits a backend on prepared training data.
type Adapter interface {
	Family() schema.BackendFamily
	Fit(ctx context.Context, train *prep.Prepared) (Fitted, error)
}

// Fitted predicts each series' test horizon.
type Fitted interface {
	Predict(ctx context.Context, h Horizon) (*schema.ForecastPanel, []Failure, error)
}

// New builds the adapter for an estimator definition.
func New(def estimators.Definition, params estimators.Params) (Adapter, error) {
	switch def.Family {
	case schema.LocalStatistical:
		return NewLocalAdapter(func() estimators.Local { return def.NewLocal(params) }), nil
	case schema.GlobalNeural:
		return NewGlobalAdapter(func() estimators.Global { return def.NewGlobal(params) }, params.ContextLength), nil
	case schema.PanelStatistical:
		return NewPanelAdapter(def.NewPanel(params), params.Name), nil
	default:
		return nil, fmt.Errorf("estimator %q has unknown family %q", def.Name, def.Family)
	}
}

// guard turns a panic inside a backend call into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn()
}
