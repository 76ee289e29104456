// Package source retrieves and scores records from the backing data stores.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/trustgate/internal/model"
)

// fetchLimit caps the rows one store returns for a single query.
const fetchLimit = 20

// Adapter is implemented by each backing store that can answer queries.
type Adapter interface {
	// Kind identifies the store this adapter serves.
	Kind() model.SourceKind

	// Fetch returns scored records from the named container matching the
	// filters. When nothing matches it returns a single not-found record
	// so downstream aggregation can account for the miss.
	Fetch(ctx context.Context, container string, filters model.Payload) ([]model.ScoredRecord, error)

	// Get returns the raw payload for one record, or nil when it does not exist.
	Get(ctx context.Context, container, recordID string) (model.Payload, error)

	// Ping verifies connectivity to the backing store.
	Ping(ctx context.Context) error

	// Close releases held resources.
	Close() error
}

// NotFoundRecord builds the placeholder returned when a store has no rows
// for a query. The store answered, so the record is verified, but it
// carries zero confidence and no payload.
func NotFoundRecord(kind model.SourceKind, container string, filters model.Payload) model.ScoredRecord {
	return model.ScoredRecord{
		Origin: model.Origin{
			Source:      kind,
			ID:          "none",
			Container:   container,
			RetrievedAt: time.Now().UTC(),
			Filters:     filters,
		},
		Confidence: model.NewConfidence(0,
			fmt.Sprintf("No data found in %s", kind),
			map[string]float64{"data_found": 0},
		),
		NotFound: true,
		Verified: true,
	}
}

// recordID extracts the row identifier from a payload, trying the common
// key column names in order.
func recordID(p model.Payload) string {
	for _, key := range []string{"id", "uuid", "_id"} {
		if v, ok := p[key]; ok && v != nil {
			return stringify(v)
		}
	}
	return "unknown"
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case [16]byte:
		return uuid.UUID(t).String()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
