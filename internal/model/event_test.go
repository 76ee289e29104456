package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want EventKind
	}{
		{"insert", EventInsert},
		{"UPDATE", EventUpdate},
		{" delete ", EventDelete},
		{"upsert", EventUnknown},
		{"", EventUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseEventKind(tt.in))
		})
	}
}

func TestEventKindKnown(t *testing.T) {
	t.Parallel()

	assert.True(t, EventInsert.Known())
	assert.True(t, EventUpdate.Known())
	assert.True(t, EventDelete.Known())
	assert.False(t, EventUnknown.Known())
	assert.False(t, EventKind("").Known())
}

func TestWebhookEventWireFormat(t *testing.T) {
	t.Parallel()

	raw := `{
		"event_type": "update",
		"source": "supabase",
		"table_name": "companies",
		"record_id": "rec-42",
		"data": {"name": "Acme", "price": 99.99},
		"timestamp": "2026-03-01T12:00:00Z"
	}`

	var ev WebhookEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))

	assert.Equal(t, EventUpdate, ev.Kind)
	assert.Equal(t, SourceSupabase, ev.Source)
	assert.Equal(t, "companies", ev.Container)
	assert.Equal(t, "rec-42", ev.RecordID)
	assert.Equal(t, 99.99, ev.Payload["price"])
	assert.Nil(t, ev.Meta)
}

func TestParseStrictness(t *testing.T) {
	t.Parallel()

	got, err := ParseStrictness("Moderate")
	require.NoError(t, err)
	assert.Equal(t, StrictnessModerate, got)

	got, err = ParseStrictness("")
	require.NoError(t, err)
	assert.Equal(t, StrictnessUnspecified, got)

	_, err = ParseStrictness("paranoid")
	assert.Error(t, err)

	assert.True(t, StrictnessLenient.Valid())
	assert.False(t, StrictnessUnspecified.Valid())
}
