// Package cutoff chooses the single global cutoff of a panel and splits every
// series into train and test around it.
package cutoff

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/huangsam/finbench/schema"
)

// ErrInvalidPlan is returned for seasonality or floor values below one.
var ErrInvalidPlan = errors.New("invalid cutoff parameters")

// MinTrain is the default training floor for seasonality m.
func MinTrain(m int) int { return 2*m + 2 }

// Plan is the outcome of cutoff planning for one panel.
type Plan struct {
	// Cutoff is T*; zero when no series was retained.
	Cutoff time.Time

	// Retained lists the surviving series in unique_id order.
	Retained []string

	// TrainLen and Horizon give per-series counts of ds < T* and ds >= T*.
	TrainLen map[string]int
	Horizon  map[string]int

	// Dropped lists series removed for insufficient history, sorted by id.
	Dropped []schema.SeriesDrop

	MinTrain int
}

// Empty reports whether no series survived planning.
func (p *Plan) Empty() bool { return len(p.Retained) == 0 }

// MaxHorizon is the panel-wide horizon H.
func (p *Plan) MaxHorizon() int {
	h := 0
	for _, v := range p.Horizon {
		h = max(h, v)
	}
	return h
}

type candidate struct {
	series schema.Series
	at     time.Time
}

// Compute plans the cutoff of a panel.
//
// Each series proposes a candidate: ds[n-k] with k = max(1, round(n*f)) for a
// fraction policy, or ds[n-m] for the seasonal policy. Series whose candidate
// leaves fewer than minTrain training points are dropped. T* is the earliest
// remaining candidate; series with fewer than minTrain points before T* are
// then dropped and T* recomputed until nothing changes. Dropping only moves
// T* later, so the loop terminates.
func Compute(panel *schema.Panel, policy schema.SplitPolicy, m, minTrain int) (*Plan, error) {
	if m < 1 || minTrain < 1 {
		return nil, fmt.Errorf("%w: seasonality %d, min train %d", ErrInvalidPlan, m, minTrain)
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	plan := &Plan{
		TrainLen: make(map[string]int),
		Horizon:  make(map[string]int),
		MinTrain: minTrain,
	}

	var cands []candidate
	for _, s := range panel.AllSeries() {
		idx, ok := candidateIndex(s.Len(), policy, m)
		if !ok || idx < minTrain {
			plan.drop(s.ID)
			continue
		}
		cands = append(cands, candidate{series: s, at: s.DS[idx]})
	}

	for len(cands) > 0 {
		tStar := cands[0].at
		for _, c := range cands[1:] {
			if c.at.Before(tStar) {
				tStar = c.at
			}
		}

		kept := cands[:0]
		for _, c := range cands {
			if trainCount(c.series, tStar) < minTrain {
				plan.drop(c.series.ID)
				continue
			}
			kept = append(kept, c)
		}
		if len(kept) == len(cands) {
			plan.Cutoff = tStar
			break
		}
		cands = kept
	}

	for _, c := range cands {
		n := trainCount(c.series, plan.Cutoff)
		plan.Retained = append(plan.Retained, c.series.ID)
		plan.TrainLen[c.series.ID] = n
		plan.Horizon[c.series.ID] = c.series.Len() - n
	}
	sort.Slice(plan.Dropped, func(i, j int) bool { return plan.Dropped[i].UniqueID < plan.Dropped[j].UniqueID })
	return plan, nil
}

func (p *Plan) drop(id string) {
	p.Dropped = append(p.Dropped, schema.SeriesDrop{UniqueID: id, Status: schema.StatusInsufficientHistory})
}

// candidateIndex returns the index of the first test point a series proposes.
func candidateIndex(n int, policy schema.SplitPolicy, m int) (int, bool) {
	if policy.Seasonal {
		if n <= m {
			return 0, false
		}
		return n - m, true
	}
	// math.Round rounds half away from zero.
	k := max(1, int(math.Round(float64(n)*policy.Fraction)))
	if k > n {
		return 0, false
	}
	return n - k, true
}

// trainCount is the number of observations strictly before t.
func trainCount(s schema.Series, t time.Time) int {
	return sort.Search(len(s.DS), func(i int) bool { return !s.DS[i].Before(t) })
}

// Partition splits the retained series of a panel at the planned cutoff.
func Partition(panel *schema.Panel, plan *Plan) *schema.PartitionedPanel {
	train := make([]schema.Series, 0, len(plan.Retained))
	test := make([]schema.Series, 0, len(plan.Retained))
	horizon := make(map[string]int, len(plan.Retained))
	for _, id := range plan.Retained {
		s, ok := panel.Lookup(id)
		if !ok {
			continue
		}
		n := plan.TrainLen[id]
		train = append(train, schema.Series{ID: id, DS: s.DS[:n], Y: s.Y[:n]})
		test = append(test, schema.Series{ID: id, DS: s.DS[n:], Y: s.Y[n:]})
		horizon[id] = s.Len() - n
	}
	return &schema.PartitionedPanel{
		Cutoff:  plan.Cutoff,
		Train:   schema.NewPanelFromSeries(train),
		Test:    schema.NewPanelFromSeries(test),
		Horizon: horizon,
	}
}
