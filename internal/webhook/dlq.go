package webhook

import (
	"sync"
	"time"

	"github.com/sells-group/trustgate/internal/model"
	"github.com/sells-group/trustgate/internal/resilience"
)

const defaultDeadLetterLimit = 100

// DeadLetter is one terminally failed event kept for operator inspection.
type DeadLetter struct {
	Event          model.WebhookEvent `json:"event"`
	Error          string             `json:"error"`
	Classification string             `json:"classification"`
	Attempts       int                `json:"attempts"`
	FailedAt       time.Time          `json:"failed_at"`
}

// DeadLetters holds the most recent failures in a bounded list; when full,
// the oldest entry is dropped.
type DeadLetters struct {
	mu      sync.Mutex
	entries []DeadLetter
	limit   int
}

// NewDeadLetters creates a dead-letter buffer holding up to limit entries.
func NewDeadLetters(limit int) *DeadLetters {
	if limit <= 0 {
		limit = defaultDeadLetterLimit
	}
	return &DeadLetters{limit: limit}
}

// Add records one failed event with its transient/permanent classification.
func (d *DeadLetters) Add(event model.WebhookEvent, err error, attempts int) {
	entry := DeadLetter{
		Event:          event,
		Error:          err.Error(),
		Classification: resilience.Classify(err),
		Attempts:       attempts,
		FailedAt:       time.Now().UTC(),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, entry)
	if len(d.entries) > d.limit {
		d.entries = d.entries[len(d.entries)-d.limit:]
	}
}

// Entries returns a copy of the buffer, oldest first.
func (d *DeadLetters) Entries() []DeadLetter {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DeadLetter, len(d.entries))
	copy(out, d.entries)
	return out
}

// Depth returns the number of buffered failures.
func (d *DeadLetters) Depth() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}
