package clarify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"clarifier/internal/metrics"
)

// similarLimit is how many prior tickets are offered as prompt context.
const similarLimit = 3

// Generator turns a prompt into raw model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SimilarityProvider looks up prior tickets resembling a description.
type SimilarityProvider interface {
	Enabled() bool
	Query(ctx context.Context, text string, limit int) ([]SimilarTicket, error)
}

type Orchestrator struct {
	generator  Generator
	similarity SimilarityProvider
	now        func() time.Time
}

// NewOrchestrator wires the generation path. Either dependency may be nil.
func NewOrchestrator(generator Generator, similarity SimilarityProvider) *Orchestrator {
	return &Orchestrator{generator: generator, similarity: similarity, now: time.Now}
}

// Clarify runs similarity lookup, prompt construction, generation and parsing
// once. It never retries.
func (o *Orchestrator) Clarify(ctx context.Context, ticket TicketRequest) (*Result, error) {
	start := o.now()

	if o.generator == nil {
		metrics.GenerationErrors.WithLabelValues("unavailable").Inc()
		return nil, ErrGenerationUnavailable
	}

	prompt := BuildPrompt(ticket, o.similar(ctx, ticket))

	callStart := time.Now()
	raw, err := o.generator.Generate(ctx, prompt)
	metrics.GenerationDuration.Observe(time.Since(callStart).Seconds())
	if err != nil {
		if errors.Is(err, ErrGenerationUnavailable) {
			metrics.GenerationErrors.WithLabelValues("unavailable").Inc()
			return nil, err
		}
		metrics.GenerationErrors.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	fields, err := ParseResponse(raw)
	if err != nil {
		metrics.GenerationErrors.WithLabelValues("malformed").Inc()
		log.Error().Err(err).Str("org_id", ticket.OrgID).Str("raw", raw).Msg("failed to parse generation output")
		return nil, err
	}

	elapsed := o.now().Sub(start).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	return &Result{
		AcceptanceCriteria: fields.AcceptanceCriteria,
		EdgeCases:          fields.EdgeCases,
		SuccessMetrics:     fields.SuccessMetrics,
		TestScenarios:      fields.TestScenarios,
		Confidence:         fields.Confidence,
		ProcessingTime:     elapsed,
	}, nil
}

func (o *Orchestrator) similar(ctx context.Context, ticket TicketRequest) []SimilarTicket {
	if o.similarity == nil || !o.similarity.Enabled() {
		return nil
	}
	found, err := o.similarity.Query(ctx, ticket.Description, similarLimit)
	if err != nil {
		log.Warn().Err(err).Str("org_id", ticket.OrgID).Msg("similarity lookup failed, continuing without context")
		return nil
	}
	if len(found) > similarLimit {
		found = found[:similarLimit]
	}
	return found
}
