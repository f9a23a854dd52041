package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/finbench/core"
	"github.com/huangsam/finbench/internal/contract"
	"github.com/huangsam/finbench/internal/parquet"
	"github.com/huangsam/finbench/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	ws      *core.Workspace
	runner  *core.Runner
}

type datasetInfo struct {
	Name        string           `json:"name"`
	Group       string           `json:"group"`
	Path        string           `json:"path"`
	Frequency   schema.Frequency `json:"frequency"`
	Seasonality int              `json:"seasonality"`
	TestSplit   string           `json:"test_split"`
	Description string           `json:"description,omitempty"`
}

type modelInfo struct {
	Name          string               `json:"name"`
	DisplayName   string               `json:"display_name"`
	BackendFamily schema.BackendFamily `json:"backend_family"`
	Estimator     string               `json:"estimator"`
	Script        string               `json:"script,omitempty"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListDatasets(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	group := request.GetString("group", "")
	out := []datasetInfo{}
	for _, name := range h.ws.Catalog.Names() {
		d, _ := h.ws.Catalog.Get(name)
		if group != "" && d.Group != group {
			continue
		}
		out = append(out, datasetInfo{
			Name:        d.Name,
			Group:       d.Group,
			Path:        d.Path,
			Frequency:   d.Frequency,
			Seasonality: d.Seasonality,
			TestSplit:   d.TestSplit.String(),
			Description: d.Description,
		})
	}
	return jsonResult(out)
}

func (h *toolHandler) handleListModels(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	family := schema.BackendFamily(request.GetString("family", ""))
	out := []modelInfo{}
	for _, m := range h.ws.Registry.All() {
		if family != "" && m.BackendFamily != family {
			continue
		}
		out = append(out, modelInfo{
			Name:          m.Name,
			DisplayName:   m.DisplayName,
			BackendFamily: m.BackendFamily,
			Estimator:     m.Estimator,
			Script:        m.Script,
		})
	}
	return jsonResult(out)
}

func (h *toolHandler) handleEvaluate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := core.JobRequest{
		Dataset: request.GetString("dataset", ""),
		Model:   request.GetString("model", ""),
	}
	if req.Dataset == "" || req.Model == "" {
		return mcp.NewToolResultError("dataset and model are required"), nil
	}

	env, err := contract.LoadEnvOverrides()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid environment: %v", err)), nil
	}
	job, err := core.BuildJob(h.baseCfg, h.ws.Catalog, h.ws.Registry, env, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid job: %v", err)), nil
	}

	result, err := h.runner.Evaluate(ctx, job)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("evaluation failed: %v", err)), nil
	}
	if !request.GetBool("include_records", false) {
		result.Records = nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	by := schema.ReportGrouping(request.GetString("by", string(schema.GroupByRun)))
	if _, ok := schema.ValidReportGroupings[by]; !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid grouping '%s'", by)), nil
	}

	rows, err := core.LoadLeaderboard(ctx, h.baseCfg.OutputDir, by)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report failed: %v", err)), nil
	}
	if l := request.GetInt("limit", 0); l > 0 && len(rows) > l {
		rows = rows[:l]
	}
	return jsonResult(rows)
}

func (h *toolHandler) handleSeriesErrors(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dataset := request.GetString("dataset", "")
	model := request.GetString("model", "")
	if dataset == "" || model == "" {
		return mcp.NewToolResultError("dataset and model are required"), nil
	}

	records, err := parquet.ReadErrorMetrics(h.baseCfg.OutputDir, model, dataset)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no error metrics for %s on %s: %v", model, dataset, err)), nil
	}
	if status := schema.SeriesStatus(request.GetString("status", "")); status != "" {
		filtered := records[:0]
		for _, r := range records {
			if r.Status == status {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	if l := request.GetInt("limit", 0); l > 0 && len(records) > l {
		records = records[:l]
	}
	return jsonResult(records)
}
