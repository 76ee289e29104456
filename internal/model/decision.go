package model

import "time"

// AggregateDecision combines the records answering one query with their
// aggregate confidence. It is derived and ephemeral: constructed per
// request, consumed by validation and prompt logic, never persisted.
type AggregateDecision struct {
	Query          string         `json:"query"`
	Records        []ScoredRecord `json:"sources"`
	Confidence     float64        `json:"aggregated_confidence"`
	MeetsThreshold bool           `json:"meets_threshold"`
	NothingFound   bool           `json:"information_not_found"`
	Timestamp      time.Time      `json:"timestamp"`
}

// NewAggregateDecision derives the threshold and not-found flags from the
// given aggregate confidence.
func NewAggregateDecision(query string, records []ScoredRecord, confidence, threshold float64) AggregateDecision {
	return AggregateDecision{
		Query:          query,
		Records:        records,
		Confidence:     confidence,
		MeetsThreshold: confidence >= threshold,
		NothingFound:   AllNotFound(records),
		Timestamp:      time.Now().UTC(),
	}
}
