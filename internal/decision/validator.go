package decision

import (
	"fmt"

	"github.com/sells-group/trustgate/internal/model"
	"github.com/sells-group/trustgate/internal/source"
)

// Validator applies threshold and integrity checks to scored records
// before they are allowed into a prompt.
type Validator struct {
	Threshold float64
}

// NewValidator builds a validator for the given threshold, falling back
// to DefaultThreshold when the value is unusable.
func NewValidator(threshold float64) Validator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return Validator{Threshold: threshold}
}

// ValidateRecord checks one record and returns whether it is usable along
// with every issue found.
func (v Validator) ValidateRecord(r model.ScoredRecord) (bool, []string) {
	var issues []string
	if !r.Verified {
		issues = append(issues, "source could not be verified")
	}
	if r.Confidence.Score < v.Threshold {
		issues = append(issues, fmt.Sprintf("confidence score %.3f below threshold %.3f", r.Confidence.Score, v.Threshold))
	}
	if r.NotFound {
		issues = append(issues, "no data found in source")
	}
	switch r.Origin.ID {
	case "none", "error", "unknown":
		issues = append(issues, fmt.Sprintf("source id %q is a retrieval placeholder", r.Origin.ID))
	}
	if r.Payload == nil && !r.NotFound {
		issues = append(issues, "payload missing for a record reported found")
	}
	return len(issues) == 0, issues
}

// ValidateAggregate checks a full aggregate decision: every record plus the
// aggregate-level invariants.
func (v Validator) ValidateAggregate(a model.AggregateDecision) (bool, []string) {
	var issues []string
	for i, r := range a.Records {
		if ok, recordIssues := v.ValidateRecord(r); !ok {
			for _, issue := range recordIssues {
				issues = append(issues, fmt.Sprintf("source %d (%s): %s", i+1, r.Origin.Source, issue))
			}
		}
	}
	if a.Confidence < v.Threshold {
		issues = append(issues, fmt.Sprintf("aggregated confidence %.3f below threshold %.3f", a.Confidence, v.Threshold))
	}
	if a.MeetsThreshold != (a.Confidence >= v.Threshold) {
		issues = append(issues, "meets_threshold flag inconsistent with aggregated confidence")
	}
	return len(issues) == 0, issues
}

// ShouldSayDontKnow reports whether the data cannot support an answer:
// nothing was found, nothing was verified, or the aggregate confidence
// falls short of the threshold.
func (v Validator) ShouldSayDontKnow(a model.AggregateDecision) bool {
	if a.NothingFound || len(a.Records) == 0 {
		return true
	}
	if model.CountVerified(a.Records) == 0 {
		return true
	}
	return a.Confidence < v.Threshold
}

// DontKnowReason explains a refusal. Checks run in severity order and the
// first match wins.
func (v Validator) DontKnowReason(a model.AggregateDecision) string {
	switch {
	case a.NothingFound:
		return "No information found in any data source."
	case model.CountVerified(a.Records) == 0:
		return "No data sources could be verified."
	case a.Confidence < v.Threshold:
		return fmt.Sprintf("Data confidence (%.3f) is below the required threshold (%.3f).", a.Confidence, v.Threshold)
	case !anyPayload(a.Records):
		return "All data sources returned empty results."
	default:
		return "Data quality checks failed."
	}
}

// EnforceThreshold keeps only records that carry data and clear the
// threshold on their own.
func (v Validator) EnforceThreshold(records []model.ScoredRecord) []model.ScoredRecord {
	kept := make([]model.ScoredRecord, 0, len(records))
	for _, r := range records {
		if !r.NotFound && r.Confidence.Score >= v.Threshold {
			kept = append(kept, r)
		}
	}
	return kept
}

// VerifyPayloadHash recomputes the payload digest and compares it with the
// hash captured at retrieval time.
func VerifyPayloadHash(p model.Payload, expected string) (bool, error) {
	h, err := source.PayloadHash(p)
	if err != nil {
		return false, err
	}
	return h == expected, nil
}

func anyPayload(records []model.ScoredRecord) bool {
	for _, r := range records {
		if r.Payload != nil {
			return true
		}
	}
	return false
}
