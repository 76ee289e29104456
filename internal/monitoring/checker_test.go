package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/trustgate/internal/model"
	"github.com/sells-group/trustgate/internal/source"
)

// stubAdapter is a minimal source.Adapter whose ping outcome is scripted.
type stubAdapter struct {
	kind    model.SourceKind
	pingErr error
	delay   time.Duration
}

func (s *stubAdapter) Kind() model.SourceKind { return s.kind }

func (s *stubAdapter) Fetch(context.Context, string, model.Payload) ([]model.ScoredRecord, error) {
	return nil, nil
}

func (s *stubAdapter) Get(context.Context, string, string) (model.Payload, error) {
	return nil, nil
}

func (s *stubAdapter) Ping(ctx context.Context) error {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return s.pingErr
}

func (s *stubAdapter) Close() error { return nil }

func TestChecker_AllHealthy(t *testing.T) {
	c := NewChecker([]source.Adapter{
		&stubAdapter{kind: model.SourceSupabase},
		&stubAdapter{kind: model.SourceNotion},
	}, time.Second)

	results := c.Check(context.Background())
	require.Len(t, results, 2)

	// Results keep adapter order.
	assert.Equal(t, "supabase", results[0].Source)
	assert.Equal(t, "notion", results[1].Source)
	for _, h := range results {
		assert.True(t, h.OK)
		assert.Empty(t, h.Error)
		assert.GreaterOrEqual(t, h.LatencyMS, 0.0)
	}
}

func TestChecker_ReportsFailure(t *testing.T) {
	c := NewChecker([]source.Adapter{
		&stubAdapter{kind: model.SourceSupabase},
		&stubAdapter{kind: model.SourceNotion, pingErr: eris.New("unauthorized")},
	}, time.Second)

	results := c.Check(context.Background())
	require.Len(t, results, 2)

	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Contains(t, results[1].Error, "unauthorized")
}

func TestChecker_TimeoutBoundsProbe(t *testing.T) {
	c := NewChecker([]source.Adapter{
		&stubAdapter{kind: model.SourceSupabase, delay: 2 * time.Second},
	}, 50*time.Millisecond)

	start := time.Now()
	results := c.Check(context.Background())
	elapsed := time.Since(start)

	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.NotEmpty(t, results[0].Error)
	assert.Less(t, elapsed, time.Second)
}

func TestChecker_NoAdapters(t *testing.T) {
	c := NewChecker(nil, 0)

	results := c.Check(context.Background())
	assert.Empty(t, results)
}
