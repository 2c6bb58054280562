package usage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clarifier/internal/engine/clarify"
	"clarifier/internal/platform/models"
)

type countingCounter struct {
	mu    sync.Mutex
	count map[string]int
	err   error
}

func (c *countingCounter) Increment(ctx context.Context, orgID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.err != nil {
		return c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count == nil {
		c.count = make(map[string]int)
	}
	c.count[orgID]++
	return nil
}

func (c *countingCounter) get(orgID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count[orgID]
}

type memoryStore struct {
	mu      sync.Mutex
	records []*models.TicketRecord
	err     error
	block   chan struct{}
	calls   atomic.Int64
}

func (s *memoryStore) Append(_ context.Context, rec *models.TicketRecord) error {
	s.calls.Add(1)
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func ticketAndResult(t *testing.T) (clarify.TicketRequest, *clarify.Result) {
	t.Helper()
	ticket, err := clarify.NewTicketRequest("Add login", "", "Story", "High", "acme")
	require.NoError(t, err)
	return ticket, &clarify.Result{
		AcceptanceCriteria: []string{"a"},
		EdgeCases:          []string{},
		SuccessMetrics:     []string{},
		TestScenarios:      []string{},
		ProcessingTime:     1.25,
	}
}

func TestRecorder_IncrementsAndPersists(t *testing.T) {
	counter := &countingCounter{}
	store := &memoryStore{}
	r := NewRecorder(counter, store, Config{Persist: true})

	ticket, result := ticketAndResult(t)
	r.Record(context.Background(), ticket, result, "acme")
	r.Close()

	assert.Equal(t, 1, counter.get("acme"))
	require.Len(t, store.records, 1)

	rec := store.records[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "acme", rec.OrgID)
	assert.Equal(t, "Add login", rec.Title)
	assert.Equal(t, "Story", rec.IssueType)
	assert.Equal(t, 1.25, rec.ProcessingTime)

	var decoded clarify.Result
	require.NoError(t, json.Unmarshal([]byte(rec.ClarifiedOutput), &decoded))
	assert.Equal(t, []string{"a"}, decoded.AcceptanceCriteria)
}

func TestRecorder_FailingStoreDoesNotAffectCounter(t *testing.T) {
	counter := &countingCounter{}
	store := &memoryStore{err: errors.New("disk full")}
	r := NewRecorder(counter, store, Config{Persist: true})

	ticket, result := ticketAndResult(t)
	before := *result
	for i := 0; i < 3; i++ {
		r.Record(context.Background(), ticket, result, "acme")
	}
	r.Close()

	assert.Equal(t, 3, counter.get("acme"))
	assert.Equal(t, int64(3), store.calls.Load())
	assert.Equal(t, before, *result, "result must not be mutated")
}

func TestRecorder_CancelledRequestStillIncrements(t *testing.T) {
	counter := &countingCounter{}
	r := NewRecorder(counter, nil, Config{})
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ticket, result := ticketAndResult(t)
	r.Record(ctx, ticket, result, "acme")
	assert.Equal(t, 1, counter.get("acme"))
}

func TestRecorder_IncrementFailureIsAbsorbed(t *testing.T) {
	counter := &countingCounter{err: errors.New("db down")}
	store := &memoryStore{}
	r := NewRecorder(counter, store, Config{Persist: true})

	ticket, result := ticketAndResult(t)
	assert.NotPanics(t, func() { r.Record(context.Background(), ticket, result, "acme") })
	r.Close()

	assert.Len(t, store.records, 1, "persistence is independent of the increment")
}

type hangingCounter struct{}

func (hangingCounter) Increment(ctx context.Context, orgID string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRecorder_SlowIncrementIsBounded(t *testing.T) {
	r := NewRecorder(hangingCounter{}, nil, Config{IncrementTimeout: 20 * time.Millisecond})
	defer r.Close()

	ticket, result := ticketAndResult(t)
	start := time.Now()
	r.Record(context.Background(), ticket, result, "acme")

	assert.Less(t, time.Since(start), time.Second, "a hung store must not hold the response past the increment timeout")
}

func TestRecorder_PersistDisabled(t *testing.T) {
	counter := &countingCounter{}
	store := &memoryStore{}
	r := NewRecorder(counter, store, Config{Persist: false})

	ticket, result := ticketAndResult(t)
	r.Record(context.Background(), ticket, result, "acme")
	r.Close()

	assert.Equal(t, 1, counter.get("acme"))
	assert.Zero(t, store.calls.Load())
}

func TestRecorder_FullQueueDropsWithoutBlocking(t *testing.T) {
	store := &memoryStore{block: make(chan struct{})}
	r := NewRecorder(nil, store, Config{Persist: true, Workers: 1, QueueSize: 1})

	ticket, result := ticketAndResult(t)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			r.Record(context.Background(), ticket, result, "acme")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full queue")
	}

	close(store.block)
	r.Close()
	assert.LessOrEqual(t, store.calls.Load(), int64(2))
}

func TestRecorder_RecordAfterCloseIsIgnored(t *testing.T) {
	counter := &countingCounter{}
	store := &memoryStore{}
	r := NewRecorder(counter, store, Config{Persist: true})
	r.Close()
	r.Close()

	ticket, result := ticketAndResult(t)
	assert.NotPanics(t, func() { r.Record(context.Background(), ticket, result, "acme") })
	assert.Zero(t, store.calls.Load())
}
