package usage

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"clarifier/internal/platform/models"
)

// Source resolves the organization behind a usage query.
type Source interface {
	GetOrCreate(ctx context.Context, orgID string) (*models.Organization, error)
}

type Stats struct {
	ClarificationsUsed      int         `json:"clarificationsUsed"`
	ClarificationsRemaining int         `json:"clarificationsRemaining"`
	Plan                    models.Plan `json:"plan"`
	// ResetDate is RFC 3339, or null when the store could not be read.
	ResetDate *string `json:"resetDate"`
}

type Reporter struct {
	source    Source
	freeLimit int
}

// NewReporter reads usage from source. freeLimit fills the defaults returned
// when source is nil or failing.
func NewReporter(source Source, freeLimit int) *Reporter {
	return &Reporter{source: source, freeLimit: freeLimit}
}

// Report never fails; an unreachable store yields free-plan defaults.
func (r *Reporter) Report(ctx context.Context, orgID string) Stats {
	fallback := Stats{ClarificationsRemaining: r.freeLimit, Plan: models.PlanFree}
	if r.source == nil {
		return fallback
	}

	org, err := r.source.GetOrCreate(ctx, orgID)
	if err != nil || org == nil {
		log.Warn().Err(err).Str("org_id", orgID).Msg("usage lookup failed, returning defaults")
		return fallback
	}

	reset := time.Unix(org.ResetDate, 0).UTC().Format(time.RFC3339)
	return Stats{
		ClarificationsUsed:      org.ClarificationsUsed,
		ClarificationsRemaining: org.Remaining(),
		Plan:                    org.Plan,
		ResetDate:               &reset,
	}
}
