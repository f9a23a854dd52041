package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestNewPanelSortsAndIndexes(t *testing.T) {
	p := NewPanel([]Row{
		{UniqueID: "b", DS: day(1), Y: 4},
		{UniqueID: "a", DS: day(2), Y: 2},
		{UniqueID: "b", DS: day(0), Y: 3},
		{UniqueID: "a", DS: day(0), Y: 1},
	})

	assert.Equal(t, []string{"a", "a", "b", "b"}, p.UniqueID)
	assert.Equal(t, []float64{1, 2, 3, 4}, p.Y)
	require.Len(t, p.Index, 2)
	assert.Equal(t, SeriesRange{ID: "a", Start: 0, End: 2}, p.Index[0])
	assert.Equal(t, SeriesRange{ID: "b", Start: 2, End: 4}, p.Index[1])
	assert.Equal(t, []string{"a", "b"}, p.IDs())
}

func TestNewPanelKeepsLastDuplicate(t *testing.T) {
	p := NewPanel([]Row{
		{UniqueID: "a", DS: day(0), Y: 1},
		{UniqueID: "a", DS: day(0), Y: 9},
		{UniqueID: "a", DS: day(1), Y: 2},
	})
	assert.Equal(t, []float64{9, 2}, p.Y)
	assert.Equal(t, 1, p.NumSeries())
}

func TestPanelLookup(t *testing.T) {
	p := NewPanelFromSeries([]Series{
		{ID: "z", DS: []time.Time{day(0)}, Y: []float64{5}},
		{ID: "m", DS: []time.Time{day(0), day(1)}, Y: []float64{1, 2}},
	})

	s, ok := p.Lookup("m")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, s.Y)
	assert.Equal(t, 2, s.Len())

	_, ok = p.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, "m", p.Series(0).ID)
}

func TestParseSplitPolicy(t *testing.T) {
	tests := []struct {
		in       string
		want     SplitPolicy
		hasError bool
	}{
		{"0.2", SplitPolicy{Fraction: 0.2}, false},
		{"1", SplitPolicy{Fraction: 1}, false},
		{" seasonal ", SplitPolicy{Seasonal: true}, false},
		{"SEASONAL", SplitPolicy{}, true},
		{"Seasonal", SplitPolicy{}, true},
		{"0", SplitPolicy{}, true},
		{"1.5", SplitPolicy{}, true},
		{"-0.1", SplitPolicy{}, true},
		{"abc", SplitPolicy{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSplitPolicy(tt.in)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "seasonal", SplitPolicy{Seasonal: true}.String())
	assert.Equal(t, "0.25", FractionSplit(0.25).String())
}

func TestContextLengthDefaultsMultiplier(t *testing.T) {
	assert.Equal(t, 48, ModelDescriptor{}.ContextLength(12))
	assert.Equal(t, 14, ModelDescriptor{ContextMultiplier: 2}.ContextLength(7))
}

func TestForecastPanelLookup(t *testing.T) {
	fp := NewForecastPanel([]ForecastSeries{
		{ID: "b", DS: []time.Time{day(3)}, YHat: []float64{7}},
		{ID: "a", DS: []time.Time{day(1), day(2)}, YHat: []float64{1, 2}},
	})
	assert.Equal(t, 3, fp.Len())
	assert.Equal(t, []string{"a", "a", "b"}, fp.UniqueID)

	s, ok := fp.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, []float64{7}, s.YHat)
}

func TestPartitionedPanelMaxHorizon(t *testing.T) {
	pp := &PartitionedPanel{Horizon: map[string]int{"a": 3, "b": 7}}
	assert.Equal(t, 7, pp.MaxHorizon())
}
