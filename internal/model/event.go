package model

import (
	"strings"
	"time"
)

// EventKind is the kind of change a webhook notification describes.
type EventKind string

const (
	EventInsert  EventKind = "insert"
	EventUpdate  EventKind = "update"
	EventDelete  EventKind = "delete"
	EventUnknown EventKind = "unknown"
)

// ParseEventKind maps a wire string to an EventKind. Unrecognized values,
// including the empty string, map to EventUnknown.
func ParseEventKind(s string) EventKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(EventInsert):
		return EventInsert
	case string(EventUpdate):
		return EventUpdate
	case string(EventDelete):
		return EventDelete
	default:
		return EventUnknown
	}
}

// Known reports whether the kind is one of the three processable events.
func (k EventKind) Known() bool {
	return k == EventInsert || k == EventUpdate || k == EventDelete
}

func (k EventKind) String() string {
	if k == "" {
		return string(EventUnknown)
	}
	return string(k)
}

// WebhookEvent is one change notification from a source store. It is owned
// by the delivery that created it and discarded once a terminal outcome has
// been recorded in metrics.
type WebhookEvent struct {
	Kind       EventKind      `json:"event_type"`
	Source     SourceKind     `json:"source"`
	Container  string         `json:"table_name"`
	RecordID   string         `json:"record_id"`
	Payload    Payload        `json:"data"`
	ReceivedAt time.Time      `json:"timestamp"`
	Meta       map[string]any `json:"metadata,omitempty"`
}
