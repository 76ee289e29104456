package decision

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/trustgate/internal/confidence"
	"github.com/sells-group/trustgate/internal/model"
	"github.com/sells-group/trustgate/internal/policy"
	"github.com/sells-group/trustgate/internal/prompt"
	"github.com/sells-group/trustgate/internal/resilience"
	"github.com/sells-group/trustgate/internal/source"
)

// DefaultThreshold is the aggregate confidence a record set must reach
// before a prompt is released without a refusal.
const DefaultThreshold = 0.85

// Request describes one decision to generate.
type Request struct {
	Query string `json:"query"`

	// Threshold overrides the engine default when positive.
	Threshold float64 `json:"confidence_threshold"`

	// Strictness forces a tier. When set it wins over auto-detection.
	Strictness model.Strictness `json:"strictness_level,omitempty"`

	// AutoDetect selects the tier from record quality instead of the
	// strict default.
	AutoDetect bool `json:"auto_detect_strictness"`

	// UseCache consults and populates the decision cache.
	UseCache bool `json:"use_cache"`
}

// Meta carries the observability fields attached to every decision.
type Meta struct {
	Timestamp       time.Time `json:"timestamp"`
	Query           string    `json:"query"`
	SourceCount     int       `json:"sources_count"`
	SourcesWithData int       `json:"sources_with_data"`
	VerifiedSources int       `json:"verified_sources"`
	Threshold       float64   `json:"confidence_threshold"`
	AutoDetected    bool      `json:"auto_detected_strictness"`
	CacheUsed       bool      `json:"cache_used"`
}

// Decision is the gated outcome for one query: the prompt a model may see,
// and the refusal to use instead when the data cannot support an answer.
type Decision struct {
	Prompt            prompt.Template  `json:"prompt"`
	ShouldSayDontKnow bool             `json:"should_use_dont_know"`
	DontKnowResponse  string           `json:"dont_know_response,omitempty"`
	Confidence        float64          `json:"aggregated_confidence"`
	Strictness        model.Strictness `json:"strictness_level"`
	Meta              Meta             `json:"metadata"`
}

// Engine generates confidence-gated decisions from scored records.
type Engine struct {
	adapters  []source.Adapter
	builder   prompt.Builder
	store     *Store
	metrics   *Metrics
	breakers  *resilience.BreakerSet
	threshold float64
}

// NewEngine builds a decision engine over the given source adapters.
// A non-positive threshold falls back to DefaultThreshold.
func NewEngine(adapters []source.Adapter, builder prompt.Builder, store *Store, metrics *Metrics, threshold float64) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Engine{
		adapters:  adapters,
		builder:   builder,
		store:     store,
		metrics:   metrics,
		breakers:  resilience.NewBreakerSet(resilience.DefaultBreakerConfig()),
		threshold: threshold,
	}
}

// Threshold returns the engine's default confidence threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Store returns the decision cache for invalidation and stats.
func (e *Engine) Store() *Store {
	return e.store
}

// Metrics returns the decision counters.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Breakers exposes the per-source circuit breakers for health reporting.
func (e *Engine) Breakers() *resilience.BreakerSet {
	return e.breakers
}

// Retrieve fans out the query to every source adapter in parallel and
// returns the scored records in adapter order. An adapter failure is a
// source outage, not a request failure: it is logged and contributes no
// records. Each adapter call runs through its service's circuit breaker.
func (e *Engine) Retrieve(ctx context.Context, container string, filters model.Payload) []model.ScoredRecord {
	results := make([][]model.ScoredRecord, len(e.adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range e.adapters {
		g.Go(func() error {
			records, err := resilience.ExecVal(gctx, e.breakers.Get(string(a.Kind())), func(ctx context.Context) ([]model.ScoredRecord, error) {
				return a.Fetch(ctx, container, filters)
			})
			if err != nil {
				zap.L().Warn("source fetch failed",
					zap.String("source", a.Kind().String()),
					zap.String("container", container),
					zap.Error(err))
				return nil // a down source must not abort the others
			}
			results[i] = records
			return nil
		})
	}
	_ = g.Wait()

	var records []model.ScoredRecord
	for _, rs := range results {
		records = append(records, rs...)
	}
	return records
}

// Generate produces the decision for a request over already-retrieved
// records. It never fails: degraded inputs surface as a refusal, not an
// error. Metrics are updated exactly once per generated decision; cache
// hits count separately and skip regeneration.
func (e *Engine) Generate(req Request, records []model.ScoredRecord) Decision {
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = e.threshold
	}

	fp := Fingerprint(req.Query, threshold, records)
	if req.UseCache {
		if cached, ok := e.store.Get(fp); ok {
			e.metrics.RecordCacheHit()
			cached.Meta.CacheUsed = true
			return cached
		}
	}

	autoDetected := false
	tier := model.StrictnessStrict
	switch {
	case req.Strictness.Valid():
		tier = req.Strictness
	case req.AutoDetect:
		tier = policy.Select(records, threshold)
		autoDetected = true
	}

	agg := confidence.Aggregate(records)
	aggregate := model.NewAggregateDecision(req.Query, records, agg, threshold)

	v := NewValidator(threshold)
	dontKnow := v.ShouldSayDontKnow(aggregate)

	tpl, err := e.builder.Build(req.Query, records, threshold, tier)
	if err != nil {
		// Unreachable for the three valid tiers; keep the decision usable.
		zap.L().Error("build prompt", zap.String("strictness", tier.String()), zap.Error(err))
	}

	d := Decision{
		Prompt:            tpl,
		ShouldSayDontKnow: dontKnow,
		Confidence:        agg,
		Strictness:        tier,
		Meta: Meta{
			Timestamp:       time.Now().UTC(),
			Query:           req.Query,
			SourceCount:     len(records),
			SourcesWithData: model.CountWithData(records),
			VerifiedSources: model.CountVerified(records),
			Threshold:       threshold,
			AutoDetected:    autoDetected,
		},
	}
	if dontKnow {
		d.DontKnowResponse = prompt.DontKnow(v.DontKnowReason(aggregate), records, req.Query, threshold, true)
	}

	e.metrics.RecordDecision(tier, dontKnow)

	if req.UseCache {
		e.store.Put(fp, d, dataRecordIDs(records))
	}
	return d
}

// dataRecordIDs collects the origin ids of records carrying data, for the
// cache's record-to-fingerprint index.
func dataRecordIDs(records []model.ScoredRecord) []string {
	var ids []string
	for _, r := range records {
		if !r.NotFound && r.Origin.ID != "" {
			ids = append(ids, r.Origin.ID)
		}
	}
	return ids
}
