package clarify

import (
	"fmt"
	"strings"

	"clarifier/internal/platform/models"
)

const (
	DefaultIssueType = "Task"
	DefaultPriority  = "Medium"
)

// TicketRequest is one validated clarification request. Build it with
// NewTicketRequest so defaults are applied.
type TicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IssueType   string `json:"issueType"`
	Priority    string `json:"priority"`
	OrgID       string `json:"orgId"`
}

func NewTicketRequest(title, description, issueType, priority, orgID string) (TicketRequest, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return TicketRequest{}, fmt.Errorf("%w: title is required", ErrInvalidTicket)
	}
	if issueType = strings.TrimSpace(issueType); issueType == "" {
		issueType = DefaultIssueType
	}
	if priority = strings.TrimSpace(priority); priority == "" {
		priority = DefaultPriority
	}
	if orgID = strings.TrimSpace(orgID); orgID == "" {
		orgID = models.DefaultOrgID
	}
	return TicketRequest{
		Title:       title,
		Description: description,
		IssueType:   issueType,
		Priority:    priority,
		OrgID:       orgID,
	}, nil
}

// SimilarTicket is a prior ticket used as prompt context.
type SimilarTicket struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ParsedFields is the typed form of the generator's JSON output.
type ParsedFields struct {
	AcceptanceCriteria []string
	EdgeCases          []string
	SuccessMetrics     []string
	TestScenarios      []string
	Confidence         *float64
}

// Result is the clarification returned to callers. Slices are never nil.
type Result struct {
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	EdgeCases          []string `json:"edgeCases"`
	SuccessMetrics     []string `json:"successMetrics"`
	TestScenarios      []string `json:"testScenarios"`
	Confidence         *float64 `json:"confidence,omitempty"`
	ProcessingTime     float64  `json:"processingTime"`
}
