package estimators

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// smoothingGrid is the set of smoothing weights searched by SSE.
var smoothingGrid = []float64{0.05, 0.1, 0.15, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95}

func checkFinite(y []float64) error {
	if len(y) == 0 {
		return ErrTooShort
	}
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFinite
		}
	}
	return nil
}

func repeat(v float64, h int) []float64 {
	out := make([]float64, h)
	for i := range out {
		out[i] = v
	}
	return out
}

type naive struct{ last float64 }

func (e *naive) Fit(y []float64) error {
	if err := checkFinite(y); err != nil {
		return err
	}
	e.last = y[len(y)-1]
	return nil
}

func (e *naive) Forecast(h int) ([]float64, error) { return repeat(e.last, h), nil }

// seasonalNaive repeats the last observed season.
type seasonalNaive struct {
	m      int
	season []float64
}

func (e *seasonalNaive) Fit(y []float64) error {
	if err := checkFinite(y); err != nil {
		return err
	}
	if len(y) < e.m {
		return fmt.Errorf("%w: seasonal naive needs %d points, got %d", ErrTooShort, e.m, len(y))
	}
	e.season = y[len(y)-e.m:]
	return nil
}

func (e *seasonalNaive) Forecast(h int) ([]float64, error) {
	if e.season == nil {
		return nil, ErrNotFitted
	}
	out := make([]float64, h)
	for j := range out {
		out[j] = e.season[j%e.m]
	}
	return out, nil
}

type historicMean struct{ mean float64 }

func (e *historicMean) Fit(y []float64) error {
	if err := checkFinite(y); err != nil {
		return err
	}
	e.mean = stat.Mean(y, nil)
	return nil
}

func (e *historicMean) Forecast(h int) ([]float64, error) { return repeat(e.mean, h), nil }

// drift extrapolates the line through the first and last observations.
type drift struct{ last, slope float64 }

func (e *drift) Fit(y []float64) error {
	if err := checkFinite(y); err != nil {
		return err
	}
	n := len(y)
	e.last = y[n-1]
	if n > 1 {
		e.slope = (y[n-1] - y[0]) / float64(n-1)
	}
	return nil
}

func (e *drift) Forecast(h int) ([]float64, error) {
	out := make([]float64, h)
	for j := range out {
		out[j] = e.last + float64(j+1)*e.slope
	}
	return out, nil
}

// autoregressive is a demeaned AR(p) fitted from the Yule-Walker equations,
// with p = min(m, n/4).
type autoregressive struct {
	m    int
	mean float64
	phi  []float64
	tail []float64
}

func (e *autoregressive) Fit(y []float64) error {
	if err := checkFinite(y); err != nil {
		return err
	}
	n := len(y)
	p := max(1, min(e.m, n/4))
	if n <= p {
		return fmt.Errorf("%w: AR(%d) needs more than %d points", ErrTooShort, p, p)
	}

	e.mean = stat.Mean(y, nil)
	centered := make([]float64, n)
	copy(centered, y)
	floats.AddConst(-e.mean, centered)

	r := make([]float64, p+1)
	for lag := range r {
		r[lag] = floats.Dot(centered[lag:], centered[:n-lag]) / float64(n)
	}
	e.tail = centered[n-p:]
	if r[0] == 0 {
		e.phi = make([]float64, p)
		return nil
	}

	toeplitz := mat.NewSymDense(p, nil)
	for i := range p {
		for j := i; j < p; j++ {
			toeplitz.SetSym(i, j, r[j-i])
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(toeplitz); !ok {
		return fmt.Errorf("autocovariance matrix of AR(%d) is not positive definite", p)
	}
	phi := mat.NewVecDense(p, nil)
	if err := chol.SolveVecTo(phi, mat.NewVecDense(p, r[1:])); err != nil {
		return fmt.Errorf("failed to solve Yule-Walker equations: %w", err)
	}
	e.phi = phi.RawVector().Data
	return nil
}

func (e *autoregressive) Forecast(h int) ([]float64, error) {
	if e.tail == nil {
		return nil, ErrNotFitted
	}
	p := len(e.phi)
	hist := append(make([]float64, 0, p+h), e.tail...)
	out := make([]float64, h)
	for j := range out {
		var next float64
		for k := range p {
			next += e.phi[k] * hist[len(hist)-1-k]
		}
		hist = append(hist, next)
		out[j] = next + e.mean
	}
	return out, nil
}

// sesFit returns the final level and the SSE-minimizing weight.
func sesFit(y []float64) (level, alpha float64) {
	bestSSE := math.Inf(1)
	for _, a := range smoothingGrid {
		l, sse := y[0], 0.0
		for _, v := range y[1:] {
			err := v - l
			sse += err * err
			l += a * err
		}
		if sse < bestSSE {
			bestSSE, level, alpha = sse, l, a
		}
	}
	return level, alpha
}

// ses is simple exponential smoothing with a grid-searched weight.
type ses struct{ level float64 }

func (e *ses) Fit(y []float64) error {
	if err := checkFinite(y); err != nil {
		return err
	}
	e.level, _ = sesFit(y)
	return nil
}

func (e *ses) Forecast(h int) ([]float64, error) { return repeat(e.level, h), nil }

// holtWinters is additive level, trend and season smoothing.
type holtWinters struct {
	m      int
	level  float64
	trend  float64
	season []float64
	n      int
}

var (
	hwAlpha = []float64{0.1, 0.3, 0.5, 0.7}
	hwBeta  = []float64{0.01, 0.1, 0.2}
	hwGamma = []float64{0.05, 0.1, 0.3}
)

func (e *holtWinters) Fit(y []float64) error {
	if err := checkFinite(y); err != nil {
		return err
	}
	m := max(1, e.m)
	if len(y) < 2*m {
		return fmt.Errorf("%w: holt-winters needs two seasons (%d points), got %d", ErrTooShort, 2*m, len(y))
	}

	first := stat.Mean(y[:m], nil)
	second := stat.Mean(y[m:2*m], nil)
	init0 := make([]float64, m)
	for i := range m {
		init0[i] = y[i] - first
	}

	best := math.Inf(1)
	for _, a := range hwAlpha {
		for _, b := range hwBeta {
			for _, g := range hwGamma {
				level, trend := first, (second-first)/float64(m)
				season := append([]float64(nil), init0...)
				sse := 0.0
				for t := m; t < len(y); t++ {
					s := season[t%m]
					err := y[t] - (level + trend + s)
					sse += err * err
					prev := level
					level = a*(y[t]-s) + (1-a)*(level+trend)
					trend = b*(level-prev) + (1-b)*trend
					season[t%m] = g*(y[t]-level) + (1-g)*s
				}
				if sse < best {
					best = sse
					e.level, e.trend, e.season = level, trend, season
				}
			}
		}
	}
	e.m, e.n = m, len(y)
	return nil
}

func (e *holtWinters) Forecast(h int) ([]float64, error) {
	if e.season == nil {
		return nil, ErrNotFitted
	}
	out := make([]float64, h)
	for j := range out {
		out[j] = e.level + float64(j+1)*e.trend + e.season[(e.n+j)%e.m]
	}
	return out, nil
}

// theta is the standard Theta method: SES plus half the slope of the
// linear trend, with the drift damped by the smoothing weight.
type theta struct {
	level, alpha, slope float64
	n                   int
}

func (e *theta) Fit(y []float64) error {
	if err := checkFinite(y); err != nil {
		return err
	}
	n := len(y)
	if n < 2 {
		return fmt.Errorf("%w: theta needs at least 2 points", ErrTooShort)
	}
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i)
	}
	_, e.slope = stat.LinearRegression(t, y, nil, false)
	e.level, e.alpha = sesFit(y)
	e.n = n
	return nil
}

func (e *theta) Forecast(h int) ([]float64, error) {
	if e.alpha == 0 {
		return nil, ErrNotFitted
	}
	damp := math.Pow(1-e.alpha, float64(e.n)) / e.alpha
	out := make([]float64, h)
	for j := range out {
		step := float64(j) + 1/e.alpha - damp
		out[j] = e.level + 0.5*e.slope*step
	}
	return out, nil
}
