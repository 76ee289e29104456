package monitoring

import (
	"time"

	"github.com/sells-group/trustgate/internal/decision"
	"github.com/sells-group/trustgate/internal/resilience"
	"github.com/sells-group/trustgate/internal/webhook"
)

// Snapshot holds a point-in-time view of system health.
type Snapshot struct {
	// Decision pipeline counters: prompts generated, dont-know rate,
	// cache hit rate, strictness distribution.
	Decisions map[string]any `json:"decisions"`

	// Webhook processing counters.
	Webhooks map[string]any `json:"webhooks"`

	// DLQ depth.
	DLQDepth int `json:"dlq_depth"`

	// Per-source circuit breaker states.
	Breakers map[string]string `json:"breakers"`

	// Metadata.
	CollectedAt time.Time `json:"collected_at"`
}

// Collector gathers metrics from the in-process components.
type Collector struct {
	decisions   *decision.Metrics
	cache       *decision.Store
	events      *webhook.Metrics
	deadLetters *webhook.DeadLetters
	breakers    *resilience.BreakerSet
}

// NewCollector creates a metrics collector. Any component may be nil; its
// section is then omitted from the snapshot.
func NewCollector(
	decisions *decision.Metrics,
	cache *decision.Store,
	events *webhook.Metrics,
	deadLetters *webhook.DeadLetters,
	breakers *resilience.BreakerSet,
) *Collector {
	return &Collector{
		decisions:   decisions,
		cache:       cache,
		events:      events,
		deadLetters: deadLetters,
		breakers:    breakers,
	}
}

// Collect gathers a snapshot of system metrics.
func (c *Collector) Collect() *Snapshot {
	snap := &Snapshot{
		CollectedAt: time.Now().UTC(),
	}

	if c.decisions != nil {
		cacheSize := 0
		if c.cache != nil {
			cacheSize = c.cache.Size()
		}
		snap.Decisions = c.decisions.Snapshot(cacheSize)
	}

	if c.events != nil {
		snap.Webhooks = c.events.Snapshot()
	}

	if c.deadLetters != nil {
		snap.DLQDepth = c.deadLetters.Depth()
	}

	if c.breakers != nil {
		states := c.breakers.States()
		snap.Breakers = make(map[string]string, len(states))
		for name, state := range states {
			snap.Breakers[name] = string(state)
		}
	}

	return snap
}
