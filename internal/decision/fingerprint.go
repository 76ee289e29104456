// Package decision turns scored records into a confidence-gated outcome:
// the prompt a model may see, or a refusal when the data cannot support
// an answer.
package decision

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/sells-group/trustgate/internal/model"
)

// Fingerprint derives the cache key for one decision request. Every input
// that can change the outcome feeds the digest: the query, the threshold,
// and each record's identity and score.
func Fingerprint(query string, threshold float64, records []model.ScoredRecord) string {
	var sb strings.Builder
	sb.WriteString(query)
	sb.WriteByte(':')
	sb.WriteString(formatFloat(threshold))
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(len(records)))

	for _, r := range records {
		sb.WriteByte(':')
		sb.WriteString(r.Origin.ID)
		sb.WriteByte(':')
		sb.WriteString(formatFloat(r.Confidence.Score))
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])[:16]
}

// formatFloat renders a float with minimal digits so equal values always
// produce the same key text.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
