package prep

import (
	"math"
	"testing"
	"time"

	"github.com/huangsam/finbench/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func days(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
	}
	return out
}

func trainPanel(series ...schema.Series) *schema.Panel {
	return schema.NewPanelFromSeries(series)
}

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name string
		y    []float64
		want []float64
	}{
		{"interior gap", []float64{1, nan, nan, 4}, []float64{1, 2, 3, 4}},
		{"leading gap", []float64{nan, nan, 3, 5}, []float64{3, 3, 3, 5}},
		{"trailing gap", []float64{2, 4, nan}, []float64{2, 4, 4}},
		{"no gaps", []float64{1, 2}, []float64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Interpolate(days(len(tt.y)), tt.y)
			require.True(t, ok)
			assert.InDeltaSlice(t, tt.want, got, 1e-9)
		})
	}
}

func TestInterpolateUsesTimeAxis(t *testing.T) {
	ds := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	got, ok := Interpolate(ds, []float64{0, nan, 8})
	require.True(t, ok)
	assert.InDelta(t, 2.0, got[1], 1e-9)
}

func TestInterpolateAllNaN(t *testing.T) {
	_, ok := Interpolate(days(3), []float64{nan, nan, nan})
	assert.False(t, ok)
}

func TestScaler(t *testing.T) {
	s := FitScaler([]float64{1, 2, 3, 4})
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.Std, 1e-12)
	assert.InDelta(t, 3.0, s.Inverse(s.Transform(3)), 1e-12)

	flat := FitScaler([]float64{5, 5, 5})
	assert.Equal(t, minStd, flat.Std)
	assert.InDelta(t, 5.0, flat.Inverse(flat.Transform(5)), 1e-9)
}

func TestPrepareLocalPassThrough(t *testing.T) {
	y := []float64{1, 2, 3, 4}
	train := trainPanel(schema.Series{ID: "a", DS: days(4), Y: y})
	p, drops := Prepare(train, schema.LocalStatistical, Options{Seasonality: 1, MinHistory: 1})

	assert.Empty(t, drops)
	require.Len(t, p.Series, 1)
	assert.Equal(t, []float64{1, 2, 3, 4}, p.Series[0].Y)
	assert.Nil(t, p.Scalers)
	assert.Nil(t, p.Table)
	assert.Equal(t, []string{"a"}, p.IDs())
}

func TestPrepareNeverScalesLocal(t *testing.T) {
	train := trainPanel(schema.Series{ID: "a", DS: days(3), Y: []float64{1000, 1010, 1020}})
	p, _ := Prepare(train, schema.LocalStatistical, Options{Scale: true, MinHistory: 1})

	require.Len(t, p.Series, 1)
	assert.Equal(t, []float64{1000, 1010, 1020}, p.Series[0].Y)
	assert.Nil(t, p.Scalers)
}

func TestPrepareDoesNotMutateTrain(t *testing.T) {
	train := trainPanel(schema.Series{ID: "a", DS: days(3), Y: []float64{1, nan, 3}})
	p, _ := Prepare(train, schema.GlobalNeural, Options{Interpolate: true, Scale: true, MinHistory: 1})
	require.Len(t, p.Series, 1)
	assert.True(t, math.IsNaN(train.Y[1]))
	assert.Equal(t, []float64{1, 2, 3}, p.Insample["a"])
}

func TestPrepareGlobalScalesAndDrops(t *testing.T) {
	train := trainPanel(
		schema.Series{ID: "dead", DS: days(6), Y: []float64{nan, nan, nan, nan, nan, nan}},
		schema.Series{ID: "long", DS: days(6), Y: []float64{2, 4, 6, 8, 10, 12}},
		schema.Series{ID: "short", DS: days(3), Y: []float64{1, 2, 3}},
	)
	p, drops := Prepare(train, schema.GlobalNeural, Options{Interpolate: true, Scale: true, Downcast: true, MinHistory: 5})

	assert.Equal(t, []schema.SeriesDrop{
		{UniqueID: "dead", Status: schema.StatusAllNaN},
		{UniqueID: "short", Status: schema.StatusInsufficientHistory},
	}, drops)
	require.Len(t, p.Series, 1)

	sc := p.Scalers["long"]
	assert.InDelta(t, 7.0, sc.Mean, 1e-9)
	assert.InDelta(t, 0.0, p.Series[0].Y[0]+p.Series[0].Y[5], 1e-6)
	assert.Equal(t, []float64{2, 4, 6, 8, 10, 12}, p.Insample["long"])

	yhat := []float64{p.Series[0].Y[5]}
	p.Unscale("long", yhat)
	assert.InDelta(t, 12.0, yhat[0], 1e-5)
}

func TestPrepareDowncast(t *testing.T) {
	train := trainPanel(schema.Series{ID: "a", DS: days(2), Y: []float64{0.1, 1.0 / 3}})
	p, _ := Prepare(train, schema.LocalStatistical, Options{Downcast: true, MinHistory: 1})
	assert.Equal(t, float64(float32(0.1)), p.Series[0].Y[0])
	assert.NotEqual(t, 0.1, p.Series[0].Y[0])
}

func TestPreparePanelTable(t *testing.T) {
	train := trainPanel(
		schema.Series{ID: "b", DS: days(3), Y: []float64{4, 5, 6}},
		schema.Series{ID: "a", DS: days(2), Y: []float64{1, 2}},
	)
	p, drops := Prepare(train, schema.PanelStatistical, Options{Frequency: schema.Day, MinHistory: 1})
	assert.Empty(t, drops)
	require.NotNil(t, p.Table)
	assert.Equal(t, 5, p.Table.Len())
	assert.Equal(t, []string{"a", "b"}, p.Table.IDs())
	assert.Equal(t, schema.Day, p.Frequency)
}

func TestOptionsFor(t *testing.T) {
	m := schema.ModelDescriptor{RequiresScaling: true, RequiresInterpolation: true, RequiresF32: true}
	d := schema.DatasetDescriptor{Frequency: schema.MonthStart, Seasonality: 12}
	opts := OptionsFor(m, d, 49)
	assert.Equal(t, Options{
		Frequency: schema.MonthStart, Seasonality: 12,
		Interpolate: true, Downcast: true, Scale: true, MinHistory: 49,
	}, opts)
}

func TestOptionsForLocalSkipsScaling(t *testing.T) {
	m := schema.ModelDescriptor{BackendFamily: schema.LocalStatistical, RequiresScaling: true}
	assert.False(t, OptionsFor(m, schema.DatasetDescriptor{}, 1).Scale)

	m.BackendFamily = schema.PanelStatistical
	assert.True(t, OptionsFor(m, schema.DatasetDescriptor{}, 1).Scale)
}
