package quota

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"clarifier/internal/metrics"
	"clarifier/internal/platform/models"
)

var (
	ErrMonthlyQuotaExceeded = errors.New("monthly clarification quota exceeded")
	ErrBurstLimitExceeded   = errors.New("burst rate limit exceeded")
)

type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonMonthlyQuotaExceeded Reason = "monthly_quota_exceeded"
	ReasonBurstLimitExceeded   Reason = "burst_limit_exceeded"
)

// Store is the durable side of the gate.
type Store interface {
	GetOrCreate(ctx context.Context, orgID string) (*models.Organization, error)
}

type Decision struct {
	Allowed bool
	Reason  Reason
	// Organization is nil when the store was unavailable.
	Organization *models.Organization
	RetryAfter   time.Duration
}

// Err returns the sentinel error matching a denied decision, or nil.
func (d Decision) Err() error {
	switch d.Reason {
	case ReasonMonthlyQuotaExceeded:
		return ErrMonthlyQuotaExceeded
	case ReasonBurstLimitExceeded:
		return ErrBurstLimitExceeded
	}
	return nil
}

type GateConfig struct {
	// Enabled=false admits every request without touching either counter.
	Enabled     bool
	BurstLimit  int
	BurstWindow time.Duration
	KeyPrefix   string
}

// Gate combines the monthly quota with the short burst window.
type Gate struct {
	store Store
	burst BurstCounter
	cfg   GateConfig
}

// NewGate builds a gate. store and burst may be nil; a nil store admits
// everything and a nil burst counter enforces the monthly quota only.
func NewGate(store Store, burst BurstCounter, cfg GateConfig) *Gate {
	if cfg.BurstLimit <= 0 {
		cfg.BurstLimit = 10
	}
	if cfg.BurstWindow <= 0 {
		cfg.BurstWindow = 60 * time.Second
	}
	return &Gate{store: store, burst: burst, cfg: cfg}
}

// Allow decides whether orgID may run one more clarification. The monthly
// quota is checked first; the burst window is only consumed by requests that
// pass it.
func (g *Gate) Allow(ctx context.Context, orgID string) Decision {
	if !g.cfg.Enabled {
		metrics.GateDecisions.WithLabelValues("disabled").Inc()
		return Decision{Allowed: true}
	}

	if g.store == nil {
		metrics.GateDecisions.WithLabelValues("fail_open").Inc()
		return Decision{Allowed: true}
	}

	org, err := g.store.GetOrCreate(ctx, orgID)
	if err != nil {
		log.Warn().Err(err).Str("org_id", orgID).Msg("quota store unavailable, failing open")
		metrics.GateDecisions.WithLabelValues("fail_open").Inc()
		return Decision{Allowed: true}
	}

	if org.Exhausted() {
		metrics.GateDecisions.WithLabelValues("monthly_quota").Inc()
		return Decision{
			Reason:       ReasonMonthlyQuotaExceeded,
			Organization: org,
			RetryAfter:   time.Until(time.Unix(org.ResetDate, 0)),
		}
	}

	if g.burst != nil {
		key := g.key(orgID)
		count, err := g.burst.IncrementWithExpiry(ctx, key, g.cfg.BurstWindow)
		if err != nil {
			log.Warn().Err(err).Str("org_id", orgID).Msg("burst counter unavailable, enforcing monthly quota only")
		} else if count > int64(g.cfg.BurstLimit) {
			metrics.GateDecisions.WithLabelValues("burst_limit").Inc()
			return Decision{
				Reason:       ReasonBurstLimitExceeded,
				Organization: org,
				RetryAfter:   g.retryAfter(ctx, key),
			}
		}
	}

	metrics.GateDecisions.WithLabelValues("allowed").Inc()
	return Decision{Allowed: true, Organization: org}
}

// retryAfter is the time left in the window, or the full window when the
// counter cannot tell.
func (g *Gate) retryAfter(ctx context.Context, key string) time.Duration {
	if ttl, ok := g.burst.(WindowTTL); ok {
		if d, err := ttl.TTL(ctx, key); err == nil && d > 0 && d <= g.cfg.BurstWindow {
			return d
		}
	}
	return g.cfg.BurstWindow
}

func (g *Gate) key(orgID string) string {
	if g.cfg.KeyPrefix == "" {
		return orgID
	}
	return g.cfg.KeyPrefix + ":" + orgID
}
