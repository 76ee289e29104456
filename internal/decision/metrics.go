package decision

import (
	"math"
	"sync"

	"github.com/sells-group/trustgate/internal/model"
)

// Metrics tallies decision generation outcomes. Safe for concurrent use.
type Metrics struct {
	mu        sync.Mutex
	generated int
	dontKnow  int
	cacheHits int
	byTier    map[model.Strictness]int
}

// NewMetrics creates a zeroed metrics set.
func NewMetrics() *Metrics {
	return &Metrics{byTier: make(map[model.Strictness]int)}
}

// RecordDecision counts one generated decision under its tier.
func (m *Metrics) RecordDecision(tier model.Strictness, dontKnow bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generated++
	m.byTier[tier]++
	if dontKnow {
		m.dontKnow++
	}
}

// RecordCacheHit counts one request served from the cache.
func (m *Metrics) RecordCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits++
}

// Snapshot returns the wire-shaped statistics view. Rates divide by the
// generated count and report 0.0 before anything was generated.
func (m *Metrics) Snapshot(cacheSize int) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	distribution := map[string]int{
		model.StrictnessStrict.String():   m.byTier[model.StrictnessStrict],
		model.StrictnessModerate.String(): m.byTier[model.StrictnessModerate],
		model.StrictnessLenient.String():  m.byTier[model.StrictnessLenient],
	}

	hitRate := 0.0
	dontKnowRate := 0.0
	if m.generated > 0 {
		hitRate = math.Round(float64(m.cacheHits)/float64(m.generated)*1000) / 1000
		dontKnowRate = math.Round(float64(m.dontKnow)/float64(m.generated)*1000) / 1000
	}

	return map[string]any{
		"prompts_generated":       m.generated,
		"dont_know_responses":     m.dontKnow,
		"cache_hits":              m.cacheHits,
		"strictness_distribution": distribution,
		"cache_size":              cacheSize,
		"cache_hit_rate":          hitRate,
		"dont_know_rate":          dontKnowRate,
	}
}

// Reset zeroes the counters. The cache itself is untouched.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generated = 0
	m.dontKnow = 0
	m.cacheHits = 0
	m.byTier = make(map[model.Strictness]int)
}
