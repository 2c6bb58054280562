package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// UsageTool handles the get_usage MCP tool.
type UsageTool struct {
	reporter UsageReporter
}

func NewUsageTool(reporter UsageReporter) *UsageTool {
	return &UsageTool{reporter: reporter}
}

func (t *UsageTool) Definition() mcp.Tool {
	return mcp.NewTool("get_usage",
		mcp.WithDescription("Show clarifications used and remaining this month, the plan and the next reset date."),
		mcp.WithString("orgId",
			mcp.Required(),
			mcp.Description("Organization ID"),
		),
	)
}

func (t *UsageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orgID := req.GetString("orgId", "")
	if orgID == "" {
		return mcp.NewToolResultError("'orgId' is required"), nil
	}

	out, err := json.MarshalIndent(t.reporter.Report(ctx, orgID), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding usage: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}
