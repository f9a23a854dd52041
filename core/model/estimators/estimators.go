// Package estimators holds the forecasting backends the engine can evaluate.
// Each backend is registered under an estimator name referenced from the
// model registry.
package estimators

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/huangsam/finbench/core/cutoff"
	"github.com/huangsam/finbench/schema"
)

// Backend errors.
var (
	ErrTooShort    = errors.New("series too short")
	ErrNonFinite   = errors.New("non-finite input")
	ErrNotFitted   = errors.New("estimator not fitted")
	ErrNoTrainData = errors.New("no training windows")
)

// Params binds an estimator instance to one run.
type Params struct {
	// Name is the model name; panel backends label their output column with it.
	Name          string
	Seasonality   int
	ContextLength int
	Epochs        int
	Seed          uint64
}

// Local fits and forecasts a single series.
type Local interface {
	Fit(y []float64) error
	Forecast(h int) ([]float64, error)
}

// Global is trained jointly on many series and predicts one step ahead from
// a trailing window.
type Global interface {
	Fit(ctx context.Context, series [][]float64) error
	PredictNext(window []float64) (float64, error)
}

// Panel forecasts every series of a long table at once.
type Panel interface {
	Forecast(ctx context.Context, table *schema.Panel, freq schema.Frequency, h int) (*Table, error)
}

// Table is the long output of a panel backend: keys plus named value columns.
type Table struct {
	UniqueID []string
	DS       []time.Time
	Columns  map[string][]float64
}

// Definition describes one registered estimator.
type Definition struct {
	Name   string
	Family schema.BackendFamily

	// Floor overrides the default training floor used for cutoff planning.
	Floor func(m int) int

	NewLocal  func(Params) Local
	NewGlobal func(Params) Global
	NewPanel  func(Params) Panel
}

// MinTrain is the training floor of the estimator for seasonality m.
func (d Definition) MinTrain(m int) int {
	if d.Floor != nil {
		return max(1, d.Floor(m))
	}
	return cutoff.MinTrain(m)
}

var registry = map[string]Definition{}

func register(d Definition) {
	if _, dup := registry[d.Name]; dup {
		panic("estimators: duplicate registration of " + d.Name)
	}
	registry[d.Name] = d
}

func oneSeason(m int) int { return m }

func init() {
	register(Definition{Name: "naive", Family: schema.LocalStatistical, NewLocal: func(Params) Local { return &naive{} }})
	register(Definition{Name: "seasonal_naive", Family: schema.LocalStatistical, Floor: oneSeason,
		NewLocal: func(p Params) Local { return &seasonalNaive{m: p.Seasonality} }})
	register(Definition{Name: "mean", Family: schema.LocalStatistical, NewLocal: func(Params) Local { return &historicMean{} }})
	register(Definition{Name: "drift", Family: schema.LocalStatistical, NewLocal: func(Params) Local { return &drift{} }})
	register(Definition{Name: "ar", Family: schema.LocalStatistical, NewLocal: func(p Params) Local { return &autoregressive{m: p.Seasonality} }})
	register(Definition{Name: "ses", Family: schema.LocalStatistical, NewLocal: func(Params) Local { return &ses{} }})
	register(Definition{Name: "holt_winters", Family: schema.LocalStatistical,
		NewLocal: func(p Params) Local { return &holtWinters{m: p.Seasonality} }})
	register(Definition{Name: "theta", Family: schema.LocalStatistical, NewLocal: func(Params) Local { return &theta{} }})

	register(Definition{Name: "linear", Family: schema.GlobalNeural,
		NewGlobal: func(p Params) Global { return newRidge(p) }})
	register(Definition{Name: "mlp", Family: schema.GlobalNeural,
		NewGlobal: func(p Params) Global { return newMLP(p) }})

	register(Definition{Name: "panel_seasonal_naive", Family: schema.PanelStatistical, Floor: oneSeason,
		NewPanel: func(p Params) Panel { return &panelSeasonalNaive{name: p.Name, m: p.Seasonality} }})
	register(Definition{Name: "panel_ets", Family: schema.PanelStatistical,
		NewPanel: func(p Params) Panel { return &panelETS{name: p.Name} }})
	register(Definition{Name: "panel_window_average", Family: schema.PanelStatistical,
		NewPanel: func(p Params) Panel { return &panelWindowAverage{name: p.Name, m: p.Seasonality} }})
}

// Lookup returns the definition registered under name.
func Lookup(name string) (Definition, bool) {
	d, ok := registry[name]
	return d, ok
}

// Names lists the registered estimators in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
