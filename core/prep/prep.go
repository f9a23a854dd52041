// Package prep turns a training partition into the shape a model backend
// consumes: interpolated, optionally downcast and scaled.
package prep

import (
	"math"
	"slices"
	"time"

	"github.com/huangsam/finbench/schema"
	"gonum.org/v1/gonum/stat"
)

// minStd keeps the scaler invertible on flat series.
const minStd = 1e-8

// Scaler standardizes one series with its training mean and population std.
type Scaler struct {
	Mean float64
	Std  float64
}

// FitScaler computes the scaler of y. NaN values are ignored.
func FitScaler(y []float64) Scaler {
	finite := make([]float64, 0, len(y))
	for _, v := range y {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return Scaler{Std: 1}
	}
	mean, std := stat.PopMeanStdDev(finite, nil)
	return Scaler{Mean: mean, Std: max(std, minStd)}
}

// Transform maps a raw value to the scaled space.
func (s Scaler) Transform(v float64) float64 { return (v - s.Mean) / s.Std }

// Inverse maps a scaled value back to the raw space.
func (s Scaler) Inverse(v float64) float64 { return v*s.Std + s.Mean }

// Options gates the preprocessing steps.
type Options struct {
	Frequency   schema.Frequency
	Seasonality int

	Interpolate bool
	Downcast    bool
	Scale       bool

	// MinHistory is the shortest training series the backend accepts.
	MinHistory int
}

// OptionsFor derives the preprocessing options from a model descriptor.
func OptionsFor(model schema.ModelDescriptor, ds schema.DatasetDescriptor, minHistory int) Options {
	return Options{
		Frequency:   ds.Frequency,
		Seasonality: ds.Seasonality,
		Interpolate: model.RequiresInterpolation,
		Downcast:    model.RequiresF32,
		Scale:       model.RequiresScaling && model.BackendFamily != schema.LocalStatistical,
		MinHistory:  minHistory,
	}
}

// Prepared is the training data handed to a model adapter.
type Prepared struct {
	Family      schema.BackendFamily
	Frequency   schema.Frequency
	Seasonality int

	// Series are the transformed training series in unique_id order.
	Series []schema.Series

	// Insample holds the unscaled training values per series.
	Insample map[string][]float64

	// Scalers is populated only when scaling was requested.
	Scalers map[string]Scaler

	// Table is the flat training table, built for panel backends.
	Table *schema.Panel
}

// IDs returns the prepared series ids in order.
func (p *Prepared) IDs() []string {
	ids := make([]string, len(p.Series))
	for i, s := range p.Series {
		ids[i] = s.ID
	}
	return ids
}

// Unscale maps a forecast of series id back to the raw space.
func (p *Prepared) Unscale(id string, yhat []float64) {
	s, ok := p.Scalers[id]
	if !ok {
		return
	}
	for i, v := range yhat {
		yhat[i] = s.Inverse(v)
	}
}

// Prepare runs interpolation, downcast, scaling and the minimum-length
// filter over the training partition. It never mutates the partition.
// Local-statistical series are never scaled.
func Prepare(train *schema.Panel, family schema.BackendFamily, opts Options) (*Prepared, []schema.SeriesDrop) {
	if family == schema.LocalStatistical {
		opts.Scale = false
	}
	out := &Prepared{
		Family:      family,
		Frequency:   opts.Frequency,
		Seasonality: opts.Seasonality,
		Insample:    make(map[string][]float64, train.NumSeries()),
	}
	if opts.Scale {
		out.Scalers = make(map[string]Scaler, train.NumSeries())
	}

	var drops []schema.SeriesDrop
	for _, s := range train.AllSeries() {
		y := slices.Clone(s.Y)

		if opts.Interpolate {
			var ok bool
			if y, ok = Interpolate(s.DS, y); !ok {
				drops = append(drops, schema.SeriesDrop{UniqueID: s.ID, Status: schema.StatusAllNaN})
				continue
			}
		}
		if opts.Downcast {
			for i, v := range y {
				y[i] = float64(float32(v))
			}
		}
		if len(y) < opts.MinHistory {
			drops = append(drops, schema.SeriesDrop{UniqueID: s.ID, Status: schema.StatusInsufficientHistory})
			continue
		}

		out.Insample[s.ID] = slices.Clone(y)
		if opts.Scale {
			sc := FitScaler(y)
			for i, v := range y {
				y[i] = sc.Transform(v)
			}
			out.Scalers[s.ID] = sc
		}
		out.Series = append(out.Series, schema.Series{ID: s.ID, DS: s.DS, Y: y})
	}

	if family == schema.PanelStatistical {
		out.Table = schema.NewPanelFromSeries(out.Series)
	}
	return out, drops
}

// Interpolate fills NaN values linearly with ds as the x-axis. Leading and
// trailing gaps take the nearest valid value. The input is modified in place
// and returned; ok is false when every value is NaN.
func Interpolate(ds []time.Time, y []float64) ([]float64, bool) {
	prev := -1
	for i, v := range y {
		if math.IsNaN(v) {
			continue
		}
		switch {
		case prev < 0:
			for j := range i {
				y[j] = v
			}
		case i-prev > 1:
			x0 := float64(ds[prev].UnixNano())
			x1 := float64(ds[i].UnixNano())
			y0 := y[prev]
			for j := prev + 1; j < i; j++ {
				w := (float64(ds[j].UnixNano()) - x0) / (x1 - x0)
				y[j] = y0 + w*(v-y0)
			}
		}
		prev = i
	}
	if prev < 0 {
		return y, false
	}
	for j := prev + 1; j < len(y); j++ {
		y[j] = y[prev]
	}
	return y, true
}
