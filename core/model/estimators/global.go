package estimators

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Global training constants.
const (
	ridgeLambda  = 1e-3
	hiddenUnits  = 16
	learningRate = 0.01
	gradClip     = 5.0
)

// window addresses the training example series[s][off : off+L] -> series[s][off+L].
type window struct{ s, off int }

func windows(series [][]float64, l int) []window {
	var out []window
	for s, y := range series {
		for off := 0; off+l < len(y); off++ {
			out = append(out, window{s: s, off: off})
		}
	}
	return out
}

func checkSeries(series [][]float64) error {
	for _, y := range series {
		if err := checkFinite(y); err != nil {
			return err
		}
	}
	return nil
}

// ridge is a pooled linear autoregression over context windows solved in
// closed form from the normal equations.
type ridge struct {
	l int
	w *mat.VecDense // l weights followed by the intercept
}

func newRidge(p Params) *ridge { return &ridge{l: max(1, p.ContextLength)} }

func (r *ridge) Fit(ctx context.Context, series [][]float64) error {
	if err := checkSeries(series); err != nil {
		return err
	}
	k := r.l + 1
	ata := mat.NewSymDense(k, nil)
	atb := mat.NewVecDense(k, nil)
	x := mat.NewVecDense(k, nil)

	count := 0
	for _, win := range windows(series, r.l) {
		if count%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		y := series[win.s]
		for i := range r.l {
			x.SetVec(i, y[win.off+i])
		}
		x.SetVec(r.l, 1)
		ata.SymRankOne(ata, 1, x)
		atb.AddScaledVec(atb, y[win.off+r.l], x)
		count++
	}
	if count == 0 {
		return fmt.Errorf("%w: context length %d exceeds every series", ErrNoTrainData, r.l)
	}
	for i := range r.l {
		ata.SetSym(i, i, ata.At(i, i)+ridgeLambda*float64(count))
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(ata); !ok {
		return fmt.Errorf("ridge normal equations are not positive definite")
	}
	r.w = mat.NewVecDense(k, nil)
	if err := chol.SolveVecTo(r.w, atb); err != nil {
		return fmt.Errorf("failed to solve ridge system: %w", err)
	}
	return nil
}

func (r *ridge) PredictNext(w []float64) (float64, error) {
	if r.w == nil {
		return 0, ErrNotFitted
	}
	if len(w) != r.l {
		return 0, fmt.Errorf("%w: window of %d, want %d", ErrTooShort, len(w), r.l)
	}
	raw := r.w.RawVector().Data
	return floats.Dot(raw[:r.l], w) + raw[r.l], nil
}

// mlp is a one-hidden-layer tanh network trained with seeded SGD.
type mlp struct {
	l      int
	epochs int
	rng    *rand.Rand

	w1 [][]float64 // hidden x input
	b1 []float64
	w2 []float64
	b2 float64
}

func newMLP(p Params) *mlp {
	return &mlp{
		l:      max(1, p.ContextLength),
		epochs: max(1, p.Epochs),
		rng:    rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15)),
	}
}

func (n *mlp) init() {
	scale := 1 / math.Sqrt(float64(n.l))
	n.w1 = make([][]float64, hiddenUnits)
	for i := range n.w1 {
		n.w1[i] = make([]float64, n.l)
		for j := range n.w1[i] {
			n.w1[i][j] = (n.rng.Float64()*2 - 1) * scale
		}
	}
	n.b1 = make([]float64, hiddenUnits)
	n.w2 = make([]float64, hiddenUnits)
	for i := range n.w2 {
		n.w2[i] = (n.rng.Float64()*2 - 1) / math.Sqrt(hiddenUnits)
	}
}

func (n *mlp) forward(x []float64, hidden []float64) float64 {
	out := n.b2
	for i := range hidden {
		hidden[i] = math.Tanh(floats.Dot(n.w1[i], x) + n.b1[i])
		out += n.w2[i] * hidden[i]
	}
	return out
}

func clip(v float64) float64 { return math.Max(-gradClip, math.Min(gradClip, v)) }

func (n *mlp) Fit(ctx context.Context, series [][]float64) error {
	if err := checkSeries(series); err != nil {
		return err
	}
	wins := windows(series, n.l)
	if len(wins) == 0 {
		return fmt.Errorf("%w: context length %d exceeds every series", ErrNoTrainData, n.l)
	}
	n.init()

	hidden := make([]float64, hiddenUnits)
	for range n.epochs {
		if err := ctx.Err(); err != nil {
			return err
		}
		n.rng.Shuffle(len(wins), func(i, j int) { wins[i], wins[j] = wins[j], wins[i] })
		for _, win := range wins {
			y := series[win.s]
			x := y[win.off : win.off+n.l]
			g := clip(n.forward(x, hidden) - y[win.off+n.l])

			for i, h := range hidden {
				gh := g * n.w2[i] * (1 - h*h)
				n.w2[i] -= learningRate * g * h
				n.b1[i] -= learningRate * gh
				floats.AddScaled(n.w1[i], -learningRate*gh, x)
			}
			n.b2 -= learningRate * g
		}
	}
	return nil
}

func (n *mlp) PredictNext(w []float64) (float64, error) {
	if n.w1 == nil {
		return 0, ErrNotFitted
	}
	if len(w) != n.l {
		return 0, fmt.Errorf("%w: window of %d, want %d", ErrTooShort, len(w), n.l)
	}
	return n.forward(w, make([]float64, hiddenUnits)), nil
}
