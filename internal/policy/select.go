// Package policy chooses the prompt strictness tier from record quality
// signals.
package policy

import (
	"github.com/sells-group/trustgate/internal/confidence"
	"github.com/sells-group/trustgate/internal/model"
)

// Select chooses the strictness tier for a record set against a confidence
// threshold. Rules are evaluated in order, first match wins:
//
//  1. empty record set: strict
//  2. no verified record: strict
//  3. mean score well below threshold (by more than 0.10): strict
//  4. mean score clears threshold by 0.05 or more and at least two records
//     carry data: lenient
//  5. mean score meets threshold: moderate
//  6. otherwise: strict
//
// The mean is the unweighted mean over all records, not-found included.
// Pure classification: identical inputs always yield the identical tier.
func Select(records []model.ScoredRecord, threshold float64) model.Strictness {
	if len(records) == 0 {
		return model.StrictnessStrict
	}

	mean := confidence.Mean(records)

	if model.CountVerified(records) == 0 {
		return model.StrictnessStrict
	}
	if mean < threshold-0.10 {
		return model.StrictnessStrict
	}
	if mean >= threshold+0.05 && model.CountWithData(records) >= 2 {
		return model.StrictnessLenient
	}
	if mean >= threshold {
		return model.StrictnessModerate
	}
	return model.StrictnessStrict
}
