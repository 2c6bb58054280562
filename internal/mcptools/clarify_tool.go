package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"clarifier/internal/engine/clarify"
	"clarifier/internal/engine/pipeline"
	"clarifier/internal/engine/quota"
)

// ClarifyTool handles the clarify_ticket MCP tool.
type ClarifyTool struct {
	runner Runner
}

func NewClarifyTool(runner Runner) *ClarifyTool {
	return &ClarifyTool{runner: runner}
}

func (t *ClarifyTool) Definition() mcp.Tool {
	return mcp.NewTool("clarify_ticket",
		mcp.WithDescription("Turn a terse Jira ticket into acceptance criteria, edge cases, success metrics and test scenarios. "+
			"Counts against the organization's monthly quota."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Ticket title"),
		),
		mcp.WithString("description",
			mcp.Description("Ticket description"),
		),
		mcp.WithString("issueType",
			mcp.Description("Issue type such as Bug, Task or Story (default: Task)"),
		),
		mcp.WithString("priority",
			mcp.Description("Priority level (default: Medium)"),
		),
		mcp.WithString("orgId",
			mcp.Description("Organization the request is billed to (default: default)"),
		),
	)
}

func (t *ClarifyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticket, err := clarify.NewTicketRequest(
		req.GetString("title", ""),
		req.GetString("description", ""),
		req.GetString("issueType", ""),
		req.GetString("priority", ""),
		req.GetString("orgId", ""),
	)
	if err != nil {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	result, err := t.runner.Run(ctx, ticket)
	if err != nil {
		return mcp.NewToolResultError(errorMessage(err)), nil
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorMessage(err error) string {
	var denied *pipeline.DeniedError
	switch {
	case errors.Is(err, quota.ErrBurstLimitExceeded):
		if errors.As(err, &denied) && denied.Decision.RetryAfter > 0 {
			return fmt.Sprintf("rate limit exceeded, retry in %s", denied.Decision.RetryAfter)
		}
		return "rate limit exceeded, please wait a moment"
	case errors.Is(err, quota.ErrMonthlyQuotaExceeded):
		return "monthly limit reached, upgrade to Pro for unlimited clarifications"
	case errors.Is(err, clarify.ErrGenerationUnavailable):
		return "generation service is not configured"
	case errors.Is(err, clarify.ErrMalformedResponse):
		return "failed to parse generated response"
	case errors.Is(err, clarify.ErrGenerationFailed):
		return fmt.Sprintf("generation request failed: %v", err)
	default:
		return fmt.Sprintf("clarification failed: %v", err)
	}
}
