package models

import "time"

type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// DefaultOrgID is the tenant used when a request carries no orgId.
const DefaultOrgID = "default"

type Organization struct {
	OrgID               string  `json:"org_id"`
	Plan                Plan    `json:"plan"`
	ClarificationsUsed  int     `json:"clarifications_used"`
	ClarificationsLimit int     `json:"clarifications_limit"`
	ResetDate           int64   `json:"reset_date"`
	StripeCustomerID    *string `json:"stripe_customer_id,omitempty"`
	CreatedAt           int64   `json:"created_at"`
	UpdatedAt           int64   `json:"updated_at"`
}

func (o *Organization) Remaining() int {
	if o.ClarificationsUsed >= o.ClarificationsLimit {
		return 0
	}
	return o.ClarificationsLimit - o.ClarificationsUsed
}

func (o *Organization) Exhausted() bool {
	return o.ClarificationsUsed >= o.ClarificationsLimit
}

// TicketRecord is the append-only analytics row for one successful clarification.
type TicketRecord struct {
	ID              string  `json:"id"`
	OrgID           string  `json:"org_id"`
	Title           string  `json:"ticket_title"`
	Description     string  `json:"ticket_description"`
	IssueType       string  `json:"issue_type"`
	Priority        string  `json:"priority"`
	ClarifiedOutput string  `json:"clarified_output"`
	ProcessingTime  float64 `json:"processing_time"`
	CreatedAt       int64   `json:"created_at"`
}

type TicketTypeCount struct {
	IssueType string `json:"issueType"`
	Count     int    `json:"count"`
}

type AnalyticsSummary struct {
	TotalTickets      int               `json:"totalTickets"`
	AvgProcessingTime float64           `json:"avgProcessingTime"`
	ActiveDays        int               `json:"activeDays"`
	TicketTypes       []TicketTypeCount `json:"ticketTypes"`
}

// NextResetDate returns the first instant of the UTC month after t.
func NextResetDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}
