package webhook

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/trustgate/internal/decision"
	"github.com/sells-group/trustgate/internal/model"
)

// Outcome summarizes the work performed for one successfully handled event.
type Outcome struct {
	Source       model.SourceKind `json:"source"`
	Kind         model.EventKind  `json:"event_type"`
	RecordID     string           `json:"record_id"`
	Container    string           `json:"table_name"`
	Actions      []string         `json:"actions_performed"`
	Verification *Verification    `json:"verification,omitempty"`
	Invalidated  int              `json:"cache_entries_invalidated,omitempty"`
}

// Handler processes events for one source. Both sources share this
// implementation, parameterized by their adapter.
type Handler struct {
	adapter RecordGetter
	store   *decision.Store
}

// NewHandler builds the handler for one source's adapter.
func NewHandler(adapter RecordGetter, store *decision.Store) *Handler {
	return &Handler{adapter: adapter, store: store}
}

// Handle routes the event by kind:
//   - insert: verify the new record against the source of truth and queue
//     an index update.
//   - update: evict cached decisions built on the record, then re-verify.
//   - delete: evict cached decisions and queue index removal.
func (h *Handler) Handle(ctx context.Context, event model.WebhookEvent) (Outcome, error) {
	out := Outcome{
		Source:    event.Source,
		Kind:      event.Kind,
		RecordID:  event.RecordID,
		Container: event.Container,
		Actions:   []string{},
	}

	switch event.Kind {
	case model.EventInsert:
		v, err := VerifyRecord(ctx, h.adapter, event)
		if err != nil {
			return Outcome{}, err
		}
		out.Verification = &v
		out.Actions = append(out.Actions, "record_verified", "index_update_queued")

	case model.EventUpdate:
		out.Invalidated = h.store.InvalidateRecord(event.RecordID)
		out.Actions = append(out.Actions, "cache_invalidated")

		v, err := VerifyRecord(ctx, h.adapter, event)
		if err != nil {
			return Outcome{}, err
		}
		out.Verification = &v
		out.Actions = append(out.Actions, "record_verified")

	case model.EventDelete:
		out.Invalidated = h.store.InvalidateRecord(event.RecordID)
		out.Actions = append(out.Actions, "cache_invalidated", "index_removal_queued")

	default:
		// Validation runs before routing; this is unreachable for real events.
		return Outcome{}, eris.Errorf("webhook: unhandled event kind %q", string(event.Kind))
	}

	return out, nil
}
