package webhook

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/trustgate/internal/model"
)

func TestVerifyRecordMatch(t *testing.T) {
	t.Parallel()

	event := validEvent(model.EventInsert)
	getter := &fakeGetter{payload: model.Payload{"id": "rec-1", "name": "Widget", "price": 42.5}}

	v, err := VerifyRecord(context.Background(), getter, event)
	require.NoError(t, err)
	assert.True(t, v.Verified)
	assert.Empty(t, v.Reason)
	assert.NotEmpty(t, v.ExpectedHash)
	assert.Equal(t, v.ExpectedHash, v.ActualHash)
	assert.Greater(t, v.Confidence, 0.0)
	assert.Equal(t, 1, getter.calls)
}

func TestVerifyRecordMismatchReportsBothHashes(t *testing.T) {
	t.Parallel()

	event := validEvent(model.EventInsert)
	getter := &fakeGetter{payload: model.Payload{"id": "rec-1", "name": "Widget", "price": 39.99}}

	v, err := VerifyRecord(context.Background(), getter, event)
	require.NoError(t, err)
	assert.False(t, v.Verified)
	assert.Equal(t, "Payload hash mismatch", v.Reason)
	assert.NotEmpty(t, v.ExpectedHash)
	assert.NotEmpty(t, v.ActualHash)
	assert.NotEqual(t, v.ExpectedHash, v.ActualHash)
}

func TestVerifyRecordNotFound(t *testing.T) {
	t.Parallel()

	v, err := VerifyRecord(context.Background(), &fakeGetter{}, validEvent(model.EventInsert))
	require.NoError(t, err)
	assert.False(t, v.Verified)
	assert.Equal(t, "Record not found in database", v.Reason)
	assert.Empty(t, v.ExpectedHash)
}

func TestVerifyRecordFetchError(t *testing.T) {
	t.Parallel()

	getter := &fakeGetter{err: eris.New("connection refused")}
	_, err := VerifyRecord(context.Background(), getter, validEvent(model.EventInsert))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook: verify supabase record rec-1")
}
