package confidence

import (
	"math"

	"github.com/sells-group/trustgate/internal/model"
)

// Aggregate combines per-record scores into one aggregate in [0,1].
// Records marked not-found contribute no signal and are excluded; when no
// record remains the aggregate is exactly 0. The rest are averaged weighted
// by their source's fixed reliability weight, normalized by the sum of
// weights actually used, and rounded to 3 decimals. Pure and
// order-independent.
func Aggregate(records []model.ScoredRecord) float64 {
	totalScore := 0.0
	totalWeight := 0.0
	for _, r := range records {
		if r.NotFound {
			continue
		}
		w := r.Origin.Source.Weight()
		totalScore += r.Confidence.Score * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0.0
	}
	return math.Round(totalScore/totalWeight*1000) / 1000
}

// Mean returns the unweighted mean of all records' scores, not-found
// records included. An empty list yields 0. The strictness selector keys
// off this value rather than the weighted aggregate.
func Mean(records []model.ScoredRecord) float64 {
	if len(records) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, r := range records {
		sum += r.Confidence.Score
	}
	return sum / float64(len(records))
}
