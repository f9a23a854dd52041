// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/finbench/core"
	"github.com/huangsam/finbench/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the finbench MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, ws *core.Workspace, runner *core.Runner) *server.MCPServer {
	s := server.NewMCPServer(
		"finbench Evaluation Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		ws:      ws,
		runner:  runner,
	}

	// --- 1. Tool: list_datasets ---
	s.AddTool(mcp.NewTool("list_datasets",
		mcp.WithDescription("List the datasets of the catalog with their frequency, seasonality and test split."),
		mcp.WithString("group", mcp.Description("Only list datasets of this catalog group.")),
	), h.handleListDatasets)

	// --- 2. Tool: list_models ---
	s.AddTool(mcp.NewTool("list_models",
		mcp.WithDescription("List the registered models and the backend family of each."),
		mcp.WithString("family", mcp.Description("Only list models of this backend family."),
			mcp.Enum("local-statistical", "global-neural", "panel-statistical")),
	), h.handleListModels)

	// --- 3. Tool: evaluate ---
	s.AddTool(mcp.NewTool("evaluate",
		mcp.WithDescription("Evaluate one model on one dataset and return its MASE summary."),
		mcp.WithString("dataset", mcp.Description("Dataset name from the catalog."), mcp.Required()),
		mcp.WithString("model", mcp.Description("Model name from the registry."), mcp.Required()),
		mcp.WithBoolean("include_records", mcp.Description("Include the per-series records in the response.")),
	), h.handleEvaluate)

	// --- 4. Tool: leaderboard ---
	s.AddTool(mcp.NewTool("leaderboard",
		mcp.WithDescription("Rank every evaluated (model, dataset) pair by mean MASE."),
		mcp.WithString("by", mcp.Description("Group rows per run or per model. Defaults to 'run'."), mcp.Enum("run", "model")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of rows returned.")),
	), h.handleLeaderboard)

	// --- 5. Tool: series_errors ---
	s.AddTool(mcp.NewTool("series_errors",
		mcp.WithDescription("Return the per-series MASE rows written by a previous evaluation."),
		mcp.WithString("dataset", mcp.Description("Dataset name."), mcp.Required()),
		mcp.WithString("model", mcp.Description("Model name."), mcp.Required()),
		mcp.WithString("status", mcp.Description("Only return rows with this status."),
			mcp.Enum("ok", "insufficient-history", "all-nan", "forecast-failed", "forecast-missing", "forecast-invalid", "scale-degenerate")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of rows returned.")),
	), h.handleSeriesErrors)

	return s
}

// StartMCPServer starts the finbench MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, ws *core.Workspace, runner *core.Runner) error {
	s := NewMCPServer(baseCfg, ws, runner)
	return server.ServeStdio(s)
}
