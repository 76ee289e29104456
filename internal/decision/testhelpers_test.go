package decision

import (
	"context"
	"time"

	"github.com/sells-group/trustgate/internal/model"
	"github.com/sells-group/trustgate/internal/prompt"
	"github.com/sells-group/trustgate/internal/source"
)

// dataRecord builds a verified record carrying data with the given score.
func dataRecord(kind model.SourceKind, id string, score float64) model.ScoredRecord {
	return model.ScoredRecord{
		Payload: model.Payload{"id": id, "value": score},
		Origin: model.Origin{
			Source:      kind,
			ID:          id,
			Container:   "products",
			RetrievedAt: time.Now().UTC(),
		},
		Confidence: model.NewConfidence(score, "test", nil),
		Verified:   true,
	}
}

// missingRecord builds the placeholder a store returns when it has no rows.
func missingRecord(kind model.SourceKind) model.ScoredRecord {
	return source.NotFoundRecord(kind, "products", nil)
}

// fakeAdapter serves canned records or a canned error.
type fakeAdapter struct {
	kind    model.SourceKind
	records []model.ScoredRecord
	err     error
	calls   int
}

func (f *fakeAdapter) Kind() model.SourceKind { return f.kind }

func (f *fakeAdapter) Fetch(_ context.Context, _ string, _ model.Payload) ([]model.ScoredRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeAdapter) Get(_ context.Context, _, _ string) (model.Payload, error) {
	return nil, nil
}

func (f *fakeAdapter) Ping(_ context.Context) error { return nil }

func (f *fakeAdapter) Close() error { return nil }

func newTestEngine(threshold float64, adapters ...source.Adapter) *Engine {
	return NewEngine(adapters, prompt.NewBuilder(), NewStore(), NewMetrics(), threshold)
}
