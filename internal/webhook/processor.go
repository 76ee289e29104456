// Package webhook absorbs change notifications from the source stores:
// validation, bounded retry, verification against the source of truth,
// and decision-cache invalidation.
package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/trustgate/internal/model"
	"github.com/sells-group/trustgate/internal/resilience"
)

// EventHandler is the per-source processing hook the processor routes to.
type EventHandler interface {
	Handle(ctx context.Context, event model.WebhookEvent) (Outcome, error)
}

// Result is the terminal outcome for one event. On failure it carries the
// original event for operator inspection.
type Result struct {
	Success         bool                `json:"success"`
	Outcome         *Outcome            `json:"result,omitempty"`
	Error           string              `json:"error,omitempty"`
	Attempts        int                 `json:"attempts"`
	DurationSeconds float64             `json:"duration_seconds"`
	Timestamp       time.Time           `json:"timestamp"`
	Event           *model.WebhookEvent `json:"payload,omitempty"`
}

// Processor runs events through validation, per-source handlers, and the
// retry policy. Process never returns a Go error: every event ends in a
// terminal Result and exactly one metrics update.
type Processor struct {
	handlers map[model.SourceKind]EventHandler
	metrics  *Metrics
	dlq      *DeadLetters
	policy   resilience.Policy

	mu    sync.Mutex
	locks map[string]*recordLock
}

// recordLock serializes events for one record id. refs counts waiters so
// the registry entry can be dropped once nobody holds or wants the lock.
type recordLock struct {
	mu   sync.Mutex
	refs int
}

// NewProcessor builds a processor routing events to the given per-source
// handlers under the retry policy.
func NewProcessor(handlers map[model.SourceKind]EventHandler, metrics *Metrics, dlq *DeadLetters, policy resilience.Policy) *Processor {
	return &Processor{
		handlers: handlers,
		metrics:  metrics,
		dlq:      dlq,
		policy:   policy,
		locks:    make(map[string]*recordLock),
	}
}

// Process runs one event to a terminal outcome. Events for the same record
// id are serialized; a stale insert cannot interleave with a later delete.
// Validation failures are terminal and consume no retry budget; handler
// errors retry with exponential backoff until the attempt cap.
func (p *Processor) Process(ctx context.Context, event model.WebhookEvent) Result {
	start := time.Now()

	lock := p.acquireRecord(event.RecordID)
	defer p.releaseRecord(event.RecordID, lock)

	zap.L().Info("processing webhook event",
		zap.String("source", event.Source.String()),
		zap.String("event_type", event.Kind.String()),
		zap.String("record_id", event.RecordID),
	)

	attempts := 0
	var outcome Outcome

	policy := p.policy
	policy.OnRetry = func(attempt int, err error) {
		p.metrics.RecordRetry()
		zap.L().Warn("retrying webhook event",
			zap.String("source", event.Source.String()),
			zap.String("record_id", event.RecordID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	err := resilience.Do(ctx, policy, func(ctx context.Context) error {
		attempts++
		if err := Validate(event); err != nil {
			return resilience.Permanent(err)
		}
		handler, ok := p.handlers[event.Source]
		if !ok {
			return resilience.Permanent(eris.Errorf("webhook: no handler for source %q", string(event.Source)))
		}
		var err error
		outcome, err = handler.Handle(ctx, event)
		return err
	})

	duration := time.Since(start).Seconds()
	now := time.Now().UTC()

	if err != nil {
		p.metrics.RecordFailure(event.Kind, event.Source)
		p.dlq.Add(event, err, attempts)
		zap.L().Error("webhook event failed",
			zap.String("source", event.Source.String()),
			zap.String("record_id", event.RecordID),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return Result{
			Success:         false,
			Error:           err.Error(),
			Attempts:        attempts,
			DurationSeconds: duration,
			Timestamp:       now,
			Event:           &event,
		}
	}

	p.metrics.RecordSuccess(duration, event.Kind, event.Source)
	return Result{
		Success:         true,
		Outcome:         &outcome,
		Attempts:        attempts,
		DurationSeconds: duration,
		Timestamp:       now,
	}
}

// acquireRecord takes the per-record lock, registering it on first use.
func (p *Processor) acquireRecord(recordID string) *recordLock {
	p.mu.Lock()
	lock, ok := p.locks[recordID]
	if !ok {
		lock = &recordLock{}
		p.locks[recordID] = lock
	}
	lock.refs++
	p.mu.Unlock()

	lock.mu.Lock()
	return lock
}

// releaseRecord returns the per-record lock and evicts the registry entry
// once no other event holds or waits on it.
func (p *Processor) releaseRecord(recordID string, lock *recordLock) {
	lock.mu.Unlock()

	p.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(p.locks, recordID)
	}
	p.mu.Unlock()
}
