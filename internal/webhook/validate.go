package webhook

import (
	"fmt"

	"github.com/sells-group/trustgate/internal/model"
)

// ValidationError reports a malformed event. The processor treats it as
// terminal: a bad event stays bad no matter how often it is retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid webhook event: " + e.Reason
}

// Validate checks the required event fields.
func Validate(event model.WebhookEvent) error {
	if event.RecordID == "" {
		return &ValidationError{Reason: "record_id is required"}
	}
	if event.Container == "" {
		return &ValidationError{Reason: "table_name is required"}
	}
	if len(event.Payload) == 0 {
		return &ValidationError{Reason: "data is required"}
	}
	if !event.Kind.Known() {
		return &ValidationError{Reason: fmt.Sprintf("invalid event_type %q", string(event.Kind))}
	}
	if !event.Source.Known() {
		return &ValidationError{Reason: fmt.Sprintf("invalid source %q", string(event.Source))}
	}
	return nil
}
