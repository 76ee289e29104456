package webhook

import (
	"math"
	"sync"

	"github.com/sells-group/trustgate/internal/model"
)

// Metrics tallies webhook processing outcomes. Safe for concurrent use.
type Metrics struct {
	mu           sync.Mutex
	processed    int
	failed       int
	retries      int
	totalSeconds float64
	byKind       map[string]int
	bySource     map[string]int
}

// NewMetrics creates a zeroed metrics set.
func NewMetrics() *Metrics {
	return &Metrics{
		byKind:   make(map[string]int),
		bySource: make(map[string]int),
	}
}

// RecordSuccess counts one event processed to success with its duration.
func (m *Metrics) RecordSuccess(duration float64, kind model.EventKind, source model.SourceKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed++
	m.totalSeconds += duration
	m.byKind[kind.String()]++
	m.bySource[source.String()]++
}

// RecordFailure counts one event that exhausted its attempts or failed
// terminally.
func (m *Metrics) RecordFailure(kind model.EventKind, source model.SourceKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
	m.byKind[kind.String()]++
	m.bySource[source.String()]++
}

// RecordRetry counts one retry sleep taken.
func (m *Metrics) RecordRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries++
}

// Snapshot returns the wire-shaped statistics view. The success rate spans
// all terminal outcomes; the average duration covers successes only.
func (m *Metrics) Snapshot() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	successRate := 0.0
	if terminal := m.processed + m.failed; terminal > 0 {
		successRate = float64(m.processed) / float64(terminal)
	}

	average := 0.0
	if m.processed > 0 {
		average = math.Round(m.totalSeconds/float64(m.processed)*1000) / 1000
	}

	byKind := make(map[string]int, len(m.byKind))
	for k, v := range m.byKind {
		byKind[k] = v
	}
	bySource := make(map[string]int, len(m.bySource))
	for k, v := range m.bySource {
		bySource[k] = v
	}

	return map[string]any{
		"total_processed":                 m.processed,
		"total_failed":                    m.failed,
		"total_retries":                   m.retries,
		"success_rate":                    successRate,
		"average_processing_time_seconds": average,
		"events_by_type":                  byKind,
		"events_by_source":                bySource,
	}
}
