// Package confidence computes per-record trust scores and their
// cross-source aggregate. All scores live in [0,1] and are rounded to
// 3 decimals.
package confidence

import (
	"fmt"
	"reflect"

	"github.com/sells-group/trustgate/internal/model"
)

// Fixed blend weights for the per-record score.
const (
	completenessWeight = 0.3
	filterMatchWeight  = 0.4
	reliabilityWeight  = 0.3
)

// Score computes the trust estimate for one retrieved payload as a weighted
// blend of data completeness, filter match quality, and the fixed
// reliability of the originating source.
func Score(payload model.Payload, filters map[string]any, kind model.SourceKind) model.Confidence {
	completeness := 0.0
	if len(payload) > 0 {
		nonNull := 0
		for _, v := range payload {
			if v != nil {
				nonNull++
			}
		}
		completeness = float64(nonNull) / float64(len(payload))
	}

	// Without filters every record trivially matches.
	filterMatch := 1.0
	if len(filters) > 0 {
		matches := 0
		for k, want := range filters {
			if got, ok := payload[k]; ok && reflect.DeepEqual(got, want) {
				matches++
			}
		}
		filterMatch = float64(matches) / float64(len(filters))
	}

	reliability := kind.Reliability()

	score := completeness*completenessWeight +
		filterMatch*filterMatchWeight +
		reliability*reliabilityWeight

	return model.NewConfidence(
		score,
		fmt.Sprintf("Data from verified %s source with %.1f%% completeness", kind, completeness*100),
		map[string]float64{
			"completeness":       completeness,
			"filter_match":       filterMatch,
			"source_reliability": reliability,
		},
	)
}
