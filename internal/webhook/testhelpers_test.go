package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/trustgate/internal/model"
	"github.com/sells-group/trustgate/internal/resilience"
)

func validEvent(kind model.EventKind) model.WebhookEvent {
	return model.WebhookEvent{
		Kind:       kind,
		Source:     model.SourceSupabase,
		Container:  "products",
		RecordID:   "rec-1",
		Payload:    model.Payload{"id": "rec-1", "name": "Widget", "price": 42.5},
		ReceivedAt: time.Now().UTC(),
	}
}

// fakeGetter serves one canned payload or error for any record.
type fakeGetter struct {
	payload model.Payload
	err     error
	calls   int
}

func (g *fakeGetter) Get(_ context.Context, _, _ string) (model.Payload, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.payload, nil
}

// scriptedHandler fails a fixed number of times before succeeding.
type scriptedHandler struct {
	mu       sync.Mutex
	failures int
	calls    int
	outcome  Outcome
}

func (h *scriptedHandler) Handle(_ context.Context, _ model.WebhookEvent) (Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.calls <= h.failures {
		return Outcome{}, eris.New("transient blip")
	}
	return h.outcome, nil
}

// testPolicy keeps retry sleeps down to a millisecond.
func testPolicy() resilience.Policy {
	return resilience.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func newTestProcessor(handler EventHandler) (*Processor, *Metrics, *DeadLetters) {
	metrics := NewMetrics()
	dlq := NewDeadLetters(10)
	handlers := map[model.SourceKind]EventHandler{
		model.SourceSupabase: handler,
		model.SourceNotion:   handler,
	}
	return NewProcessor(handlers, metrics, dlq, testPolicy()), metrics, dlq
}
