package estimators

import (
	"context"

	"github.com/huangsam/finbench/schema"
	"gonum.org/v1/gonum/stat"
)

// forecastTable applies a per-series forecaster over a long table and labels
// the output with calendar dates after each series' last observation.
func forecastTable(ctx context.Context, name string, table *schema.Panel, freq schema.Frequency, h int,
	f func(y []float64, h int) []float64,
) (*Table, error) {
	out := &Table{Columns: map[string][]float64{}}
	var values []float64
	for _, s := range table.AllSeries() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := checkFinite(s.Y); err != nil {
			return nil, err
		}
		for _, ds := range freq.Range(s.DS[len(s.DS)-1], h) {
			out.UniqueID = append(out.UniqueID, s.ID)
			out.DS = append(out.DS, ds)
		}
		values = append(values, f(s.Y, h)...)
	}
	out.Columns[name] = values
	return out, nil
}

type panelSeasonalNaive struct {
	name string
	m    int
}

func (p *panelSeasonalNaive) Forecast(ctx context.Context, table *schema.Panel, freq schema.Frequency, h int) (*Table, error) {
	return forecastTable(ctx, p.name, table, freq, h, func(y []float64, h int) []float64 {
		m := min(max(1, p.m), len(y))
		season := y[len(y)-m:]
		out := make([]float64, h)
		for j := range out {
			out[j] = season[j%m]
		}
		return out
	})
}

type panelETS struct{ name string }

func (p *panelETS) Forecast(ctx context.Context, table *schema.Panel, freq schema.Frequency, h int) (*Table, error) {
	return forecastTable(ctx, p.name, table, freq, h, func(y []float64, h int) []float64 {
		level, _ := sesFit(y)
		return repeat(level, h)
	})
}

type panelWindowAverage struct {
	name string
	m    int
}

func (p *panelWindowAverage) Forecast(ctx context.Context, table *schema.Panel, freq schema.Frequency, h int) (*Table, error) {
	return forecastTable(ctx, p.name, table, freq, h, func(y []float64, h int) []float64 {
		m := min(max(1, p.m), len(y))
		return repeat(stat.Mean(y[len(y)-m:], nil), h)
	})
}
