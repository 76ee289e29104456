package model

import (
	"math"
	"time"

	"github.com/rotisserie/eris"
)

// Payload is the opaque content of one retrieved record: an ordered-by-key
// JSON object whose values are the JSON variant set (nil, bool, float64,
// string, []any, map[string]any). A nil Payload means nothing was retrieved.
type Payload map[string]any

// Origin describes where a record came from.
type Origin struct {
	Source      SourceKind     `json:"source_type"`
	ID          string         `json:"source_id"`
	Container   string         `json:"table_name,omitempty"`
	RetrievedAt time.Time      `json:"retrieved_at"`
	Filters     map[string]any `json:"query_params,omitempty"`
	PayloadHash string         `json:"raw_data_hash,omitempty"`
}

// Confidence is a trust estimate for one record.
type Confidence struct {
	Score     float64            `json:"score"`
	Reasoning string             `json:"reasoning"`
	Factors   map[string]float64 `json:"factors,omitempty"`
}

// NewConfidence clamps the score into [0,1] and rounds it to 3 decimals.
func NewConfidence(score float64, reasoning string, factors map[string]float64) Confidence {
	score = math.Min(math.Max(score, 0), 1)
	score = math.Round(score*1000) / 1000
	return Confidence{Score: score, Reasoning: reasoning, Factors: factors}
}

// ScoredRecord is one retrieved item with its trust assessment. Records are
// immutable after creation: downstream transformations build new values.
type ScoredRecord struct {
	Payload    Payload    `json:"data"`
	Origin     Origin     `json:"source_metadata"`
	Confidence Confidence `json:"confidence"`

	// NotFound is true when the source explicitly reported no matching data.
	NotFound bool `json:"information_not_found"`
	// Verified is true when the record was corroborated against its source
	// at read time.
	Verified bool `json:"verified"`
	// Note carries a free-text diagnostic when retrieval degraded.
	Note string `json:"additional_context,omitempty"`
}

// Validate checks the record invariants.
func (r ScoredRecord) Validate() error {
	if r.Confidence.Score < 0 || r.Confidence.Score > 1 {
		return eris.Errorf("confidence score %v outside [0,1]", r.Confidence.Score)
	}
	if r.NotFound && r.Payload != nil {
		return eris.New("record marked not-found but carries a payload")
	}
	return nil
}

// CountWithData returns how many records carry actual data.
func CountWithData(records []ScoredRecord) int {
	n := 0
	for _, r := range records {
		if !r.NotFound {
			n++
		}
	}
	return n
}

// CountVerified returns how many records were corroborated at read time.
func CountVerified(records []ScoredRecord) int {
	n := 0
	for _, r := range records {
		if r.Verified {
			n++
		}
	}
	return n
}

// AllNotFound reports whether every record carries the not-found marker.
// An empty list counts as all-not-found.
func AllNotFound(records []ScoredRecord) bool {
	for _, r := range records {
		if !r.NotFound {
			return false
		}
	}
	return true
}
