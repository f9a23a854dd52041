package cmd

import (
	"github.com/huangsam/finbench/core"
	"github.com/huangsam/finbench/internal/contract"
	"github.com/huangsam/finbench/internal/history"
	"github.com/huangsam/finbench/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the finbench MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents list datasets and models,
run evaluations and query the leaderboard and per-series errors.

Logs go to stderr since stdout carries the protocol.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ws, err := core.LoadWorkspace(cfg)
		if err != nil {
			return err
		}
		runner := &core.Runner{}
		store, err := history.NewStore(cfg.HistoryBackend, cfg.HistoryDBConnect)
		if err != nil {
			contract.LogWarn("Run history disabled", err)
		} else {
			defer func() { _ = store.Close() }()
			runner.History = store
		}
		return mcp.StartMCPServer(rootCtx, cfg, ws, runner)
	},
}
