package clarify

import (
	"encoding/json"
	"fmt"
	"strings"
)

const noDescription = "No description provided"

// BuildPrompt renders the single user prompt sent to the generator.
func BuildPrompt(ticket TicketRequest, similar []SimilarTicket) string {
	description := ticket.Description
	if strings.TrimSpace(description) == "" {
		description = noDescription
	}

	var b strings.Builder
	b.WriteString("You are a senior software engineer helping to clarify Jira tickets. ")
	b.WriteString("Given the following ticket information, provide clear, actionable acceptance criteria and additional details.\n\n")
	fmt.Fprintf(&b, "Ticket Title: %s\n", ticket.Title)
	fmt.Fprintf(&b, "Description: %s\n", description)
	fmt.Fprintf(&b, "Issue Type: %s\n", ticket.IssueType)
	fmt.Fprintf(&b, "Priority: %s\n\n", ticket.Priority)

	if len(similar) > 0 {
		if ctx, err := json.MarshalIndent(similar, "", "  "); err == nil {
			b.WriteString("Similar past tickets for context:\n")
			b.Write(ctx)
			b.WriteString("\n\n")
		}
	}

	b.WriteString(`Please provide a structured response with:
1. Acceptance Criteria (specific, testable conditions using Given-When-Then format where appropriate)
2. Edge Cases to Consider (potential issues, boundary conditions)
3. Success Metrics (measurable outcomes, KPIs)
4. Test Scenarios (specific test cases for QA)

Format your response as valid JSON with these exact keys:
{
  "acceptanceCriteria": ["criterion 1", "criterion 2", ...],
  "edgeCases": ["edge case 1", "edge case 2", ...],
  "successMetrics": ["metric 1", "metric 2", ...],
  "testScenarios": ["scenario 1", "scenario 2", ...]
}

Focus on being practical and actionable. Provide at least 3-5 items for each category.`)

	return b.String()
}
