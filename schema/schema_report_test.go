package schema

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorRecordJSONNullsNaN(t *testing.T) {
	data, err := json.Marshal([]ErrorRecord{
		{Dataset: "d", Model: "m", UniqueID: "a", MASE: 0.5, Status: StatusOK, Horizon: 3},
		{Dataset: "d", Model: "m", UniqueID: "b", MASE: math.NaN(), Status: StatusAllNaN},
	})
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 0.5, got[0]["mase"])
	assert.Nil(t, got[1]["mase"])
	assert.Equal(t, "all-nan", got[1]["status"])
	assert.Equal(t, float64(3), got[0]["horizon"])
}

func TestRunSummaryJSON(t *testing.T) {
	s := RunSummary{Dataset: "d", Model: "m", MeanMASE: math.NaN(), MedianMASE: 1.25, Seed: 42}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Nil(t, got["mean_mase"])
	assert.Equal(t, 1.25, got["median_mase"])
	assert.Nil(t, got["cutoff"])
	assert.Equal(t, float64(42), got["seed"])

	s.Cutoff = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	data, err = json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cutoff":"2024-03-01T00:00:00Z"`)
}

func TestLeaderboardRowJSON(t *testing.T) {
	data, err := json.Marshal(LeaderboardRow{Rank: 1, Model: "naive", MeanMASE: math.Inf(1), ScoredShare: 1})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mean_mase":null`)
	assert.Contains(t, string(data), `"scored_share":1`)
	assert.NotContains(t, string(data), `"dataset"`)
}

func TestCountStatuses(t *testing.T) {
	counts := CountStatuses([]ErrorRecord{
		{Status: StatusOK}, {Status: StatusOK}, {Status: StatusForecastFailed},
	})
	assert.Equal(t, 2, counts[StatusOK])
	assert.Equal(t, 1, counts[StatusForecastFailed])
	assert.Zero(t, counts[StatusAllNaN])
}
