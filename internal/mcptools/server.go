// Package mcptools exposes the clarification pipeline as MCP tools so
// assistants can clarify tickets over stdio without the HTTP surface.
package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"clarifier/internal/engine/clarify"
	"clarifier/internal/engine/usage"
)

type Runner interface {
	Run(ctx context.Context, ticket clarify.TicketRequest) (*clarify.Result, error)
}

type UsageReporter interface {
	Report(ctx context.Context, orgID string) usage.Stats
}

// New registers clarify_ticket and get_usage on a fresh MCP server.
func New(runner Runner, reporter UsageReporter, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"clarifier",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Use clarify_ticket to expand a Jira ticket into acceptance criteria, edge cases, "+
			"success metrics and test scenarios. Use get_usage to check the remaining monthly quota."),
	)

	clarifyTool := NewClarifyTool(runner)
	s.AddTool(clarifyTool.Definition(), clarifyTool.Handle)

	usageTool := NewUsageTool(reporter)
	s.AddTool(usageTool.Definition(), usageTool.Handle)

	return s
}
