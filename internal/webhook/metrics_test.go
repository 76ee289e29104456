package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/trustgate/internal/model"
)

func TestMetricsSnapshotEmpty(t *testing.T) {
	t.Parallel()

	snap := NewMetrics().Snapshot()

	assert.Equal(t, 0, snap["total_processed"])
	assert.Equal(t, 0, snap["total_failed"])
	assert.Equal(t, 0, snap["total_retries"])
	assert.Equal(t, 0.0, snap["success_rate"])
	assert.Equal(t, 0.0, snap["average_processing_time_seconds"])
	assert.Equal(t, map[string]int{}, snap["events_by_type"])
	assert.Equal(t, map[string]int{}, snap["events_by_source"])
}

func TestMetricsPopulations(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.RecordSuccess(1.0, model.EventInsert, model.SourceSupabase)
	m.RecordSuccess(2.0, model.EventUpdate, model.SourceSupabase)
	m.RecordSuccess(3.0, model.EventUpdate, model.SourceNotion)
	m.RecordFailure(model.EventDelete, model.SourceNotion)
	m.RecordRetry()
	m.RecordRetry()

	snap := m.Snapshot()
	assert.Equal(t, 3, snap["total_processed"])
	assert.Equal(t, 1, snap["total_failed"])
	assert.Equal(t, 2, snap["total_retries"])
	assert.Equal(t, 0.75, snap["success_rate"])
	// Failures contribute no duration sample.
	assert.Equal(t, 2.0, snap["average_processing_time_seconds"])
	assert.Equal(t, map[string]int{"insert": 1, "update": 2, "delete": 1}, snap["events_by_type"])
	assert.Equal(t, map[string]int{"supabase": 2, "notion": 2}, snap["events_by_source"])
}

func TestMetricsAverageRounded(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.RecordSuccess(0.1, model.EventInsert, model.SourceSupabase)
	m.RecordSuccess(0.2, model.EventInsert, model.SourceSupabase)
	m.RecordSuccess(0.25, model.EventInsert, model.SourceSupabase)

	snap := m.Snapshot()
	assert.Equal(t, 0.183, snap["average_processing_time_seconds"])
}

func TestMetricsSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.RecordSuccess(1.0, model.EventInsert, model.SourceSupabase)

	snap := m.Snapshot()
	byType := snap["events_by_type"].(map[string]int)
	byType["insert"] = 99

	assert.Equal(t, map[string]int{"insert": 1}, m.Snapshot()["events_by_type"])
}
