// Package schema has the data model, configs and shared constants for all parts of finbench.
package schema

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Row is one (unique_id, ds, y) triple of a long-format panel.
type Row struct {
	UniqueID string
	DS       time.Time
	Y        float64
}

// SeriesRange marks the rows [Start, End) that belong to one unique_id.
type SeriesRange struct {
	ID    string
	Start int
	End   int
}

// Len returns the number of rows in the range.
func (r SeriesRange) Len() int { return r.End - r.Start }

// Panel is a long table of many series stacked by unique_id, sorted by
// (unique_id, ds), with an index of per-series row ranges. Series may have
// different lengths and timestamps.
type Panel struct {
	UniqueID []string
	DS       []time.Time
	Y        []float64
	Index    []SeriesRange
}

// Series is one unique_id's ordered (ds, y) sequence. The slices may alias
// the parent panel's storage.
type Series struct {
	ID string
	DS []time.Time
	Y  []float64
}

// Len returns the number of observations in the series.
func (s Series) Len() int { return len(s.Y) }

// NewPanel sorts rows by (unique_id, ds) and builds the series index.
// Rows repeating a (unique_id, ds) pair keep the last occurrence.
func NewPanel(rows []Row) *Panel {
	sorted := slices.Clone(rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].UniqueID != sorted[j].UniqueID {
			return sorted[i].UniqueID < sorted[j].UniqueID
		}
		return sorted[i].DS.Before(sorted[j].DS)
	})

	p := &Panel{
		UniqueID: make([]string, 0, len(sorted)),
		DS:       make([]time.Time, 0, len(sorted)),
		Y:        make([]float64, 0, len(sorted)),
	}
	for _, r := range sorted {
		n := len(p.Y)
		if n > 0 && p.UniqueID[n-1] == r.UniqueID && p.DS[n-1].Equal(r.DS) {
			p.Y[n-1] = r.Y
			continue
		}
		p.UniqueID = append(p.UniqueID, r.UniqueID)
		p.DS = append(p.DS, r.DS)
		p.Y = append(p.Y, r.Y)
	}
	p.reindex()
	return p
}

// NewPanelFromSeries concatenates series into a panel. Series are sorted by id
// and are expected to carry strictly increasing timestamps already.
func NewPanelFromSeries(series []Series) *Panel {
	ordered := slices.Clone(series)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	total := 0
	for _, s := range ordered {
		total += s.Len()
	}
	p := &Panel{
		UniqueID: make([]string, 0, total),
		DS:       make([]time.Time, 0, total),
		Y:        make([]float64, 0, total),
		Index:    make([]SeriesRange, 0, len(ordered)),
	}
	for _, s := range ordered {
		start := len(p.Y)
		for i := range s.Y {
			p.UniqueID = append(p.UniqueID, s.ID)
			p.DS = append(p.DS, s.DS[i])
			p.Y = append(p.Y, s.Y[i])
		}
		p.Index = append(p.Index, SeriesRange{ID: s.ID, Start: start, End: len(p.Y)})
	}
	return p
}

func (p *Panel) reindex() {
	p.Index = p.Index[:0]
	for i := 0; i < len(p.UniqueID); {
		j := i
		for j < len(p.UniqueID) && p.UniqueID[j] == p.UniqueID[i] {
			j++
		}
		p.Index = append(p.Index, SeriesRange{ID: p.UniqueID[i], Start: i, End: j})
		i = j
	}
}

// Len returns the number of rows in the panel.
func (p *Panel) Len() int { return len(p.Y) }

// NumSeries returns the number of distinct unique_id values.
func (p *Panel) NumSeries() int { return len(p.Index) }

// Series returns the i-th series in unique_id order.
func (p *Panel) Series(i int) Series {
	r := p.Index[i]
	return Series{ID: r.ID, DS: p.DS[r.Start:r.End], Y: p.Y[r.Start:r.End]}
}

// AllSeries returns every series in unique_id order.
func (p *Panel) AllSeries() []Series {
	out := make([]Series, len(p.Index))
	for i := range p.Index {
		out[i] = p.Series(i)
	}
	return out
}

// Lookup finds a series by unique_id.
func (p *Panel) Lookup(id string) (Series, bool) {
	i := sort.Search(len(p.Index), func(i int) bool { return p.Index[i].ID >= id })
	if i < len(p.Index) && p.Index[i].ID == id {
		return p.Series(i), true
	}
	return Series{}, false
}

// IDs returns the unique_id values in order.
func (p *Panel) IDs() []string {
	ids := make([]string, len(p.Index))
	for i, r := range p.Index {
		ids[i] = r.ID
	}
	return ids
}

// SplitPolicy is either a holdout fraction in (0, 1] or the seasonal sentinel.
type SplitPolicy struct {
	Fraction float64
	Seasonal bool
}

// FractionSplit builds a fraction policy.
func FractionSplit(f float64) SplitPolicy { return SplitPolicy{Fraction: f} }

// ParseSplitPolicy parses a float in (0, 1] or the literal "seasonal".
// The literal is case-sensitive.
func ParseSplitPolicy(s string) (SplitPolicy, error) {
	s = strings.TrimSpace(s)
	if s == SeasonalSplit {
		return SplitPolicy{Seasonal: true}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return SplitPolicy{}, fmt.Errorf("test split %q is neither a fraction nor %q", s, SeasonalSplit)
	}
	p := SplitPolicy{Fraction: f}
	if err := p.Validate(); err != nil {
		return SplitPolicy{}, err
	}
	return p, nil
}

// Validate checks that a fraction policy lies in (0, 1].
func (p SplitPolicy) Validate() error {
	if p.Seasonal {
		return nil
	}
	if !(p.Fraction > 0 && p.Fraction <= 1) {
		return fmt.Errorf("test split %v must be in (0, 1]", p.Fraction)
	}
	return nil
}

// String renders the policy the way it is written in the catalog.
func (p SplitPolicy) String() string {
	if p.Seasonal {
		return SeasonalSplit
	}
	return strconv.FormatFloat(p.Fraction, 'g', -1, 64)
}

// DatasetDescriptor is the resolved metadata of one dataset.
type DatasetDescriptor struct {
	Name        string
	Path        string
	Frequency   Frequency
	Seasonality int
	TestSplit   SplitPolicy
	Description string
	Group       string
	Defaulted   bool // true when no catalog entry existed
}

// ModelDescriptor is the pure configuration of one model.
type ModelDescriptor struct {
	Name                  string
	Script                string
	DisplayName           string
	BackendFamily         BackendFamily
	Estimator             string
	RequiresScaling       bool
	RequiresInterpolation bool
	RequiresF32           bool
	ContextMultiplier     int
	Epochs                int
}

// ContextLength is the trailing window a global model consumes.
func (m ModelDescriptor) ContextLength(seasonality int) int {
	mult := m.ContextMultiplier
	if mult <= 0 {
		mult = DefaultContextMultiplier
	}
	return mult * seasonality
}

// SeriesDrop records a series removed before scoring and why.
type SeriesDrop struct {
	UniqueID string
	Status   SeriesStatus
}

// PartitionedPanel is a panel split at a single cutoff.
type PartitionedPanel struct {
	Cutoff  time.Time
	Train   *Panel
	Test    *Panel
	Horizon map[string]int
}

// MaxHorizon returns the largest per-series horizon.
func (pp *PartitionedPanel) MaxHorizon() int {
	maxH := 0
	for _, h := range pp.Horizon {
		maxH = max(maxH, h)
	}
	return maxH
}

// ForecastSeries is the forecast of one series over its test timestamps.
type ForecastSeries struct {
	ID   string
	DS   []time.Time
	YHat []float64
}

// ForecastPanel is the long table of forecasts keyed by (unique_id, ds).
type ForecastPanel struct {
	UniqueID []string
	DS       []time.Time
	YHat     []float64
	Index    []SeriesRange
}

// NewForecastPanel concatenates per-series forecasts sorted by unique_id.
func NewForecastPanel(series []ForecastSeries) *ForecastPanel {
	ordered := slices.Clone(series)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	fp := &ForecastPanel{}
	for _, s := range ordered {
		start := len(fp.YHat)
		for i := range s.YHat {
			fp.UniqueID = append(fp.UniqueID, s.ID)
			fp.DS = append(fp.DS, s.DS[i])
			fp.YHat = append(fp.YHat, s.YHat[i])
		}
		fp.Index = append(fp.Index, SeriesRange{ID: s.ID, Start: start, End: len(fp.YHat)})
	}
	return fp
}

// Lookup returns the forecast rows of one series.
func (fp *ForecastPanel) Lookup(id string) (ForecastSeries, bool) {
	i := sort.Search(len(fp.Index), func(i int) bool { return fp.Index[i].ID >= id })
	if i < len(fp.Index) && fp.Index[i].ID == id {
		r := fp.Index[i]
		return ForecastSeries{ID: id, DS: fp.DS[r.Start:r.End], YHat: fp.YHat[r.Start:r.End]}, true
	}
	return ForecastSeries{}, false
}

// Len returns the number of forecast rows.
func (fp *ForecastPanel) Len() int { return len(fp.YHat) }

// ErrorRecord is the per-series outcome of one run.
type ErrorRecord struct {
	Dataset  string       `json:"dataset"`
	Model    string       `json:"model"`
	UniqueID string       `json:"unique_id"`
	MASE     float64      `json:"mase"`
	Status   SeriesStatus `json:"status"`
	Horizon  int          `json:"horizon"`
}

// RunSummary is the single summary row of one run.
type RunSummary struct {
	Dataset       string    `json:"dataset"`
	Model         string    `json:"model"`
	NSeriesIn     int       `json:"n_series_in"`
	NSeriesScored int       `json:"n_series_scored"`
	MeanMASE      float64   `json:"mean_mase"`
	MedianMASE    float64   `json:"median_mase"`
	Cutoff        time.Time `json:"cutoff"`
	Seed          uint64    `json:"seed"`
}

// CutoffRecord is one line of the cutoff log.
type CutoffRecord struct {
	Dataset string
	Cutoff  time.Time
}
