// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/finbench/internal/contract"
	"github.com/huangsam/finbench/schema"
)

// OutWriter renders run results and leaderboards in the configured format.
type OutWriter struct{}

var _ contract.OutputWriter = &OutWriter{} // Compile-time check

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRun prints the outcome of one evaluation run.
func (ow *OutWriter) WriteRun(result *schema.EvaluationResult, cfg *contract.Config) error {
	return WriteRunResult(result, cfg)
}

// WriteLeaderboard prints the report over all summaries.
func (ow *OutWriter) WriteLeaderboard(rows []schema.LeaderboardRow, cfg *contract.Config, duration time.Duration) error {
	return WriteLeaderboardResults(rows, cfg, duration)
}
