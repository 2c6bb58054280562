package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"clarifier/internal/engine/clarify"
	"clarifier/internal/engine/quota"
)

type Gate interface {
	Allow(ctx context.Context, orgID string) quota.Decision
}

type Clarifier interface {
	Clarify(ctx context.Context, ticket clarify.TicketRequest) (*clarify.Result, error)
}

type Recorder interface {
	Record(ctx context.Context, ticket clarify.TicketRequest, result *clarify.Result, orgID string)
}

// DeniedError is returned when the quota gate refuses a request. It matches
// quota.ErrMonthlyQuotaExceeded or quota.ErrBurstLimitExceeded with errors.Is.
type DeniedError struct {
	Decision quota.Decision
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("request denied: %s", e.Decision.Reason)
}

func (e *DeniedError) Unwrap() error {
	return e.Decision.Err()
}

// Pipeline sequences gate, clarification and bookkeeping for one request.
type Pipeline struct {
	gate      Gate
	clarifier Clarifier
	recorder  Recorder
	hook      func(Transition)
}

type Option func(*Pipeline)

// WithHook observes every state transition. The hook runs synchronously.
func WithHook(hook func(Transition)) Option {
	return func(p *Pipeline) { p.hook = hook }
}

// New builds a pipeline. gate and recorder may be nil.
func New(gate Gate, clarifier Clarifier, recorder Recorder, opts ...Option) *Pipeline {
	p := &Pipeline{gate: gate, clarifier: clarifier, recorder: recorder}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type run struct {
	p     *Pipeline
	orgID string
	state State
}

func (r *run) to(next State, err error) {
	if !canTransition(r.state, next) {
		log.Error().Str("from", string(r.state)).Str("to", string(next)).Msg("invalid pipeline transition")
		return
	}
	t := Transition{From: r.state, To: next, OrgID: r.orgID, Err: err}
	r.state = next

	log.Debug().Str("org_id", r.orgID).Str("state", string(next)).Str("from", string(t.From)).Msg("pipeline transition")
	if r.p.hook != nil {
		r.p.hook(t)
	}
}

func (r *run) fail(err error) error {
	r.to(StateError, err)
	return err
}

// Run executes the request once. Denials and generation failures are returned
// as errors; bookkeeping failures never are.
func (p *Pipeline) Run(ctx context.Context, ticket clarify.TicketRequest) (*clarify.Result, error) {
	r := &run{p: p, orgID: ticket.OrgID, state: StateReceived}

	decision := quota.Decision{Allowed: true}
	if p.gate != nil {
		decision = p.gate.Allow(ctx, ticket.OrgID)
	}
	r.to(StateGated, nil)
	if !decision.Allowed {
		return nil, r.fail(&DeniedError{Decision: decision})
	}

	r.to(StateGenerating, nil)
	if p.clarifier == nil {
		return nil, r.fail(clarify.ErrGenerationUnavailable)
	}

	result, err := p.clarifier.Clarify(ctx, ticket)
	if err != nil {
		if errors.Is(err, clarify.ErrMalformedResponse) {
			r.to(StateParsed, nil)
		}
		return nil, r.fail(err)
	}
	r.to(StateParsed, nil)

	if p.recorder != nil {
		p.recorder.Record(ctx, ticket, result, ticket.OrgID)
	}
	r.to(StateRecorded, nil)

	r.to(StateResponded, nil)
	return result, nil
}
