package usage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"clarifier/internal/engine/clarify"
	"clarifier/internal/metrics"
	"clarifier/internal/platform/models"
)

// Counter bumps the monthly usage of one organization.
type Counter interface {
	Increment(ctx context.Context, orgID string) error
}

// RecordStore appends ticket records for analytics.
type RecordStore interface {
	Append(ctx context.Context, rec *models.TicketRecord) error
}

type Config struct {
	Workers          int
	QueueSize        int
	IncrementTimeout time.Duration
	WriteTimeout     time.Duration
	// Persist=false keeps counting usage but stops writing ticket records.
	Persist bool
}

// Recorder applies the bookkeeping that follows a successful clarification.
// Nothing it does is reported to the caller.
type Recorder struct {
	counter Counter
	store   RecordStore
	cfg     Config

	mu     sync.RWMutex
	closed bool
	queue  chan *models.TicketRecord
	wg     sync.WaitGroup
}

// NewRecorder starts the persistence workers. counter and store may be nil.
func NewRecorder(counter Counter, store RecordStore, cfg Config) *Recorder {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.IncrementTimeout <= 0 {
		cfg.IncrementTimeout = 2 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{counter: counter, store: store, cfg: cfg}
	if store != nil && cfg.Persist {
		r.queue = make(chan *models.TicketRecord, cfg.QueueSize)
		for i := 0; i < cfg.Workers; i++ {
			r.wg.Add(1)
			go r.worker()
		}
	}
	return r
}

// Record increments usage by one and queues the ticket record. The increment
// runs on a context detached from ctx so a client disconnect cannot cancel it.
func (r *Recorder) Record(ctx context.Context, ticket clarify.TicketRequest, result *clarify.Result, orgID string) {
	if r.counter != nil {
		incCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.IncrementTimeout)
		if err := r.counter.Increment(incCtx, orgID); err != nil {
			log.Error().Err(err).Str("org_id", orgID).Msg("failed to increment usage")
			metrics.RecorderEvents.WithLabelValues("increment_failed").Inc()
		} else {
			metrics.RecorderEvents.WithLabelValues("incremented").Inc()
		}
		cancel()
	}

	if r.queue == nil || result == nil {
		return
	}

	output, err := json.Marshal(result)
	if err != nil {
		log.Error().Err(err).Str("org_id", orgID).Msg("persistence degraded: failed to encode result")
		metrics.RecorderEvents.WithLabelValues("persistence_degraded").Inc()
		return
	}

	rec := &models.TicketRecord{
		ID:              uuid.NewString(),
		OrgID:           orgID,
		Title:           ticket.Title,
		Description:     ticket.Description,
		IssueType:       ticket.IssueType,
		Priority:        ticket.Priority,
		ClarifiedOutput: string(output),
		ProcessingTime:  result.ProcessingTime,
		CreatedAt:       time.Now().Unix(),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		metrics.RecorderEvents.WithLabelValues("dropped").Inc()
		return
	}
	select {
	case r.queue <- rec:
	default:
		log.Warn().Str("org_id", orgID).Msg("persistence degraded: record queue full, dropping ticket record")
		metrics.RecorderEvents.WithLabelValues("dropped").Inc()
	}
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for rec := range r.queue {
		r.persist(rec)
	}
}

func (r *Recorder) persist(rec *models.TicketRecord) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Str("org_id", rec.OrgID).Msg("recovered from panic while persisting ticket record")
			metrics.RecorderEvents.WithLabelValues("persistence_degraded").Inc()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.WriteTimeout)
	defer cancel()

	if err := r.store.Append(ctx, rec); err != nil {
		log.Error().Err(err).Str("org_id", rec.OrgID).Str("ticket_id", rec.ID).Msg("persistence degraded: failed to store ticket record")
		metrics.RecorderEvents.WithLabelValues("persistence_degraded").Inc()
		return
	}
	metrics.RecorderEvents.WithLabelValues("persisted").Inc()
}

// Close stops accepting records and waits for queued ones to be written.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	if r.queue != nil {
		close(r.queue)
	}
	r.mu.Unlock()

	r.wg.Wait()
}
