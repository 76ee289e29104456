package webhook

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/trustgate/internal/decision"
	"github.com/sells-group/trustgate/internal/model"
)

// seedStore caches one decision indexed under the given record id.
func seedStore(recordID string) *decision.Store {
	store := decision.NewStore()
	store.Put("fp-"+recordID, decision.Decision{Confidence: 0.9}, []string{recordID})
	return store
}

func TestHandleInsert(t *testing.T) {
	t.Parallel()

	event := validEvent(model.EventInsert)
	getter := &fakeGetter{payload: event.Payload}
	h := NewHandler(getter, decision.NewStore())

	out, err := h.Handle(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, []string{"record_verified", "index_update_queued"}, out.Actions)
	require.NotNil(t, out.Verification)
	assert.True(t, out.Verification.Verified)
	assert.Equal(t, model.SourceSupabase, out.Source)
	assert.Equal(t, "rec-1", out.RecordID)
	assert.Equal(t, "products", out.Container)
	assert.Zero(t, out.Invalidated)
}

func TestHandleUpdateInvalidatesCache(t *testing.T) {
	t.Parallel()

	event := validEvent(model.EventUpdate)
	store := seedStore(event.RecordID)
	h := NewHandler(&fakeGetter{payload: event.Payload}, store)

	out, err := h.Handle(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, []string{"cache_invalidated", "record_verified"}, out.Actions)
	assert.Equal(t, 1, out.Invalidated)
	assert.Equal(t, 0, store.Size())
	require.NotNil(t, out.Verification)
	assert.True(t, out.Verification.Verified)
}

func TestHandleDeleteInvalidatesCache(t *testing.T) {
	t.Parallel()

	event := validEvent(model.EventDelete)
	store := seedStore(event.RecordID)
	h := NewHandler(&fakeGetter{}, store)

	out, err := h.Handle(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, []string{"cache_invalidated", "index_removal_queued"}, out.Actions)
	assert.Equal(t, 1, out.Invalidated)
	assert.Equal(t, 0, store.Size())
	// Deletes never touch the source of truth.
	assert.Nil(t, out.Verification)
}

func TestHandleInsertMismatchIsAnOutcome(t *testing.T) {
	t.Parallel()

	event := validEvent(model.EventInsert)
	h := NewHandler(&fakeGetter{payload: model.Payload{"id": "rec-1", "name": "Stale"}}, decision.NewStore())

	out, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.NotNil(t, out.Verification)
	assert.False(t, out.Verification.Verified)
	assert.Equal(t, "Payload hash mismatch", out.Verification.Reason)
}

func TestHandleVerificationOutageIsAnError(t *testing.T) {
	t.Parallel()

	h := NewHandler(&fakeGetter{err: eris.New("connection refused")}, decision.NewStore())

	_, err := h.Handle(context.Background(), validEvent(model.EventInsert))
	assert.Error(t, err)
}

func TestHandleUnknownKind(t *testing.T) {
	t.Parallel()

	event := validEvent(model.EventInsert)
	event.Kind = model.EventUnknown
	h := NewHandler(&fakeGetter{}, decision.NewStore())

	_, err := h.Handle(context.Background(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unhandled event kind")
}
