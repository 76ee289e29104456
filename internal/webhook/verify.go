package webhook

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/trustgate/internal/confidence"
	"github.com/sells-group/trustgate/internal/model"
	"github.com/sells-group/trustgate/internal/source"
)

// RecordGetter is the slice of a source adapter that verification needs.
type RecordGetter interface {
	Get(ctx context.Context, container, recordID string) (model.Payload, error)
}

// Verification is the outcome of checking an event's payload against the
// source of truth. A mismatch or missing record is an outcome, not an
// error; only a failed fetch is.
type Verification struct {
	Verified     bool    `json:"verified"`
	Reason       string  `json:"reason,omitempty"`
	ExpectedHash string  `json:"expected_hash,omitempty"`
	ActualHash   string  `json:"actual_hash,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
}

// VerifyRecord re-fetches the event's record and compares canonical
// payload hashes. The returned error means the source could not be
// reached and the caller may retry.
func VerifyRecord(ctx context.Context, adapter RecordGetter, event model.WebhookEvent) (Verification, error) {
	fetched, err := adapter.Get(ctx, event.Container, event.RecordID)
	if err != nil {
		return Verification{}, eris.Wrapf(err, "webhook: verify %s record %s", event.Source, event.RecordID)
	}
	if fetched == nil {
		return Verification{Reason: "Record not found in database"}, nil
	}

	expectedHash, err := source.PayloadHash(event.Payload)
	if err != nil {
		return Verification{}, err
	}
	actualHash, err := source.PayloadHash(fetched)
	if err != nil {
		return Verification{}, err
	}

	v := Verification{
		Verified:     expectedHash == actualHash,
		ExpectedHash: expectedHash,
		ActualHash:   actualHash,
		Confidence:   confidence.Score(fetched, nil, event.Source).Score,
	}
	if !v.Verified {
		v.Reason = "Payload hash mismatch"
	}
	return v, nil
}
