package confidence

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/trustgate/internal/model"
)

func record(kind model.SourceKind, score float64, notFound bool) model.ScoredRecord {
	r := model.ScoredRecord{
		Origin:     model.Origin{Source: kind, ID: "rec"},
		Confidence: model.NewConfidence(score, "test", nil),
		NotFound:   notFound,
	}
	if !notFound {
		r.Payload = model.Payload{"value": score}
	}
	return r
}

func TestAggregateEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Aggregate(nil))
	assert.Equal(t, 0.0, Aggregate([]model.ScoredRecord{}))
}

func TestAggregateAllNotFound(t *testing.T) {
	t.Parallel()

	records := []model.ScoredRecord{
		record(model.SourceSupabase, 0.0, true),
		record(model.SourceNotion, 0.0, true),
	}
	assert.Equal(t, 0.0, Aggregate(records))
}

func TestAggregateWeightedMean(t *testing.T) {
	t.Parallel()

	records := []model.ScoredRecord{
		record(model.SourceSupabase, 0.9, false),
		record(model.SourceNotion, 0.8, false),
	}

	// (0.9*0.55 + 0.8*0.45) / (0.55 + 0.45)
	assert.Equal(t, 0.855, Aggregate(records))
}

func TestAggregateSingleSourceNormalizes(t *testing.T) {
	t.Parallel()

	records := []model.ScoredRecord{record(model.SourceSupabase, 0.95, false)}
	assert.Equal(t, 0.95, Aggregate(records))

	records = []model.ScoredRecord{record(model.SourceNotion, 0.6, false)}
	assert.Equal(t, 0.6, Aggregate(records))
}

func TestAggregateSkipsNotFound(t *testing.T) {
	t.Parallel()

	records := []model.ScoredRecord{
		record(model.SourceSupabase, 0.9, false),
		record(model.SourceNotion, 0.0, true),
	}
	assert.Equal(t, 0.9, Aggregate(records))
}

func TestAggregateOrderIndependent(t *testing.T) {
	t.Parallel()

	records := []model.ScoredRecord{
		record(model.SourceSupabase, 0.91, false),
		record(model.SourceNotion, 0.77, false),
		record(model.SourceSupabase, 0.64, false),
		record(model.SourceNotion, 0.0, true),
		record(model.SourceSupabase, 0.83, false),
	}
	want := Aggregate(records)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := make([]model.ScoredRecord, len(records))
		copy(shuffled, records)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, Aggregate(shuffled))
	}
}

func TestAggregateBounds(t *testing.T) {
	t.Parallel()

	records := []model.ScoredRecord{
		record(model.SourceSupabase, 1.0, false),
		record(model.SourceNotion, 1.0, false),
		record(model.SourceUnknown, 1.0, false),
	}
	got := Aggregate(records)
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 1.0)
	assert.Equal(t, 1.0, got)
}

func TestMean(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Mean(nil))

	records := []model.ScoredRecord{
		record(model.SourceSupabase, 0.9, false),
		record(model.SourceNotion, 0.0, true),
	}
	assert.InDelta(t, 0.45, Mean(records), 1e-9)
}
