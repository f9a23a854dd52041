// Package metrics scores point forecasts with the mean absolute scaled error.
package metrics

import (
	"math"
	"slices"

	"github.com/huangsam/finbench/schema"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Scale is the in-sample naive error used as the MASE denominator.
//
// It is the mean absolute lag-m difference when the series is longer than m,
// and the lag-1 difference otherwise. A strictly periodic series has zero
// seasonal differences, so a zero seasonal scale also falls back to lag-1.
// The result is NaN when fewer than two observations exist.
func Scale(train []float64, m int) float64 {
	n := len(train)
	if m >= 1 && n > m {
		s := meanAbsDiff(train, m)
		// Deliberately not NaN: periodic history must still be scorable.
		if s == 0 && m > 1 {
			return meanAbsDiff(train, 1)
		}
		return s
	}
	if n > 1 {
		return meanAbsDiff(train, 1)
	}
	return math.NaN()
}

func meanAbsDiff(x []float64, lag int) float64 {
	d := slices.Clone(x[lag:])
	floats.Sub(d, x[:len(x)-lag])
	for i, v := range d {
		d[i] = math.Abs(v)
	}
	return stat.Mean(d, nil)
}

// MASE returns the mean absolute scaled error of yhat against test and the
// status that goes with it. Any degenerate input yields NaN.
func MASE(train, test, yhat []float64, m int) (float64, schema.SeriesStatus) {
	h := len(test)
	if h == 0 || len(yhat) != h {
		return math.NaN(), schema.StatusScaleDegenerate
	}
	for _, v := range yhat {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.NaN(), schema.StatusForecastInvalid
		}
	}

	scale := Scale(train, m)
	if math.IsNaN(scale) || scale == 0 || math.IsInf(scale, 0) {
		return math.NaN(), schema.StatusScaleDegenerate
	}

	errs := make([]float64, h)
	for i := range test {
		errs[i] = math.Abs(test[i] - yhat[i])
	}
	v := stat.Mean(errs, nil) / scale
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), schema.StatusScaleDegenerate
	}
	return v, schema.StatusOK
}

// Aggregate holds the summary statistics of a run.
type Aggregate struct {
	NSeriesIn     int
	NSeriesScored int
	MeanMASE      float64
	MedianMASE    float64
}

// Summarize aggregates per-series scores. NaN scores are skipped; both
// aggregates are NaN when nothing was scored.
func Summarize(records []schema.ErrorRecord) Aggregate {
	agg := Aggregate{NSeriesIn: len(records), MeanMASE: math.NaN(), MedianMASE: math.NaN()}

	scored := make([]float64, 0, len(records))
	for _, r := range records {
		if !math.IsNaN(r.MASE) && !math.IsInf(r.MASE, 0) {
			scored = append(scored, r.MASE)
		}
	}
	agg.NSeriesScored = len(scored)
	if len(scored) == 0 {
		return agg
	}

	agg.MeanMASE = stat.Mean(scored, nil)
	agg.MedianMASE = Median(scored)
	return agg
}

// Median returns the middle value, averaging the two middle values for an
// even count. The input is not modified.
func Median(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	s := slices.Clone(x)
	slices.Sort(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
