package core

import (
	"math"
	"sort"

	"github.com/huangsam/finbench/core/metrics"
	"github.com/huangsam/finbench/schema"
)

// BuildLeaderboard ranks run summaries by mean MASE, lowest first. With
// GroupByModel the summaries of each model are pooled across datasets
// before ranking. Undefined scores always rank last.
func BuildLeaderboard(summaries []schema.RunSummary, by schema.ReportGrouping) []schema.LeaderboardRow {
	var rows []schema.LeaderboardRow
	if by == schema.GroupByModel {
		rows = groupByModel(summaries)
	} else {
		rows = make([]schema.LeaderboardRow, len(summaries))
		for i, s := range summaries {
			rows[i] = schema.LeaderboardRow{
				Model:         s.Model,
				Dataset:       s.Dataset,
				Runs:          1,
				NSeriesIn:     s.NSeriesIn,
				NSeriesScored: s.NSeriesScored,
				MeanMASE:      s.MeanMASE,
				MedianMASE:    s.MedianMASE,
				ScoredShare:   share(s.NSeriesScored, s.NSeriesIn),
			}
		}
	}
	RankLeaderboard(rows)
	return rows
}

// RankLeaderboard sorts rows in place and assigns 1-based ranks.
func RankLeaderboard(rows []schema.LeaderboardRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		aNaN, bNaN := math.IsNaN(a.MeanMASE), math.IsNaN(b.MeanMASE)
		if aNaN != bNaN {
			return bNaN
		}
		if !aNaN && a.MeanMASE != b.MeanMASE {
			return a.MeanMASE < b.MeanMASE
		}
		if a.Model != b.Model {
			return a.Model < b.Model
		}
		return a.Dataset < b.Dataset
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
}

func groupByModel(summaries []schema.RunSummary) []schema.LeaderboardRow {
	type acc struct {
		row   schema.LeaderboardRow
		means []float64
	}
	byModel := make(map[string]*acc)
	var order []string
	for _, s := range summaries {
		a, ok := byModel[s.Model]
		if !ok {
			a = &acc{row: schema.LeaderboardRow{Model: s.Model}}
			byModel[s.Model] = a
			order = append(order, s.Model)
		}
		a.row.Runs++
		a.row.NSeriesIn += s.NSeriesIn
		a.row.NSeriesScored += s.NSeriesScored
		if !math.IsNaN(s.MeanMASE) && !math.IsInf(s.MeanMASE, 0) {
			a.means = append(a.means, s.MeanMASE)
		}
	}

	rows := make([]schema.LeaderboardRow, 0, len(order))
	for _, model := range order {
		a := byModel[model]
		a.row.MeanMASE, a.row.MedianMASE = math.NaN(), math.NaN()
		if len(a.means) > 0 {
			sum := 0.0
			for _, v := range a.means {
				sum += v
			}
			a.row.MeanMASE = sum / float64(len(a.means))
			a.row.MedianMASE = metrics.Median(a.means)
		}
		a.row.ScoredShare = share(a.row.NSeriesScored, a.row.NSeriesIn)
		rows = append(rows, a.row)
	}
	return rows
}

func share(scored, in int) float64 {
	if in == 0 {
		return math.NaN()
	}
	return float64(scored) / float64(in)
}
