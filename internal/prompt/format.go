package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/trustgate/internal/model"
)

// Citation renders the inline citation marker for a record origin, e.g.
// "[Source: supabase-rec-123]". With withTimestamp set, the retrieval
// instant is appended.
func Citation(origin model.Origin, withTimestamp bool) string {
	if !withTimestamp {
		return fmt.Sprintf("[Source: %s-%s]", origin.Source, origin.ID)
	}
	return fmt.Sprintf("[Source: %s-%s | Retrieved: %s]",
		origin.Source, origin.ID, origin.RetrievedAt.UTC().Format(time.RFC3339))
}

// DontKnow formats the full "I don't know" response: the reason, the query
// context, and a per-source data quality summary. With suggestions enabled
// a short list of remediation hints is appended.
func DontKnow(reason string, records []model.ScoredRecord, query string, threshold float64, suggestions bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "I don't know. %s\n\n", reason)
	fmt.Fprintf(&sb, "Query: %s\n", query)
	fmt.Fprintf(&sb, "Confidence Threshold: %.3f\n\n", threshold)

	sb.WriteString("Data Quality Summary:\n")
	for i, r := range records {
		fmt.Fprintf(&sb, "- Source %d (%s, id %s): ", i+1, r.Origin.Source, r.Origin.ID)
		if r.NotFound {
			sb.WriteString("No information found\n")
		} else {
			fmt.Fprintf(&sb, "Confidence %.3f - %s\n", r.Confidence.Score, r.Confidence.Reasoning)
		}
	}

	if suggestions {
		sb.WriteString(`
Suggestions:
- Rephrase the query with more specific terms
- Confirm the data exists in the configured sources
- Lower the confidence threshold if approximate answers are acceptable
`)
	}

	return sb.String()
}

// ValidationPrompt renders the checklist prompt used to audit a model
// response against the records it was shown.
func ValidationPrompt(query, llmResponse string, records []model.ScoredRecord) string {
	return fmt.Sprintf(`Validate the following LLM response against the retrieved data.

Original Query: %s

LLM Response: %s

Retrieved Data Sources: %d

Validation Checklist:
1. Does the response ONLY use information from retrieved data?
2. Are all facts properly cited with source IDs?
3. Does the response respect confidence scores?
4. If data was insufficient, did it respond "I don't know"?
5. Are there any hallucinated facts?

Provide validation result (PASS/FAIL) and explanation:`, query, llmResponse, len(records))
}

// ComparisonPrompt renders a synthesis prompt over a multi-source result,
// asking the model to reconcile the sources without resolving conflicts
// silently.
func ComparisonPrompt(query string, agg model.AggregateDecision, threshold float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Compare and synthesize the data sources answering this query.\n\n")
	fmt.Fprintf(&sb, "Query: %s\n", query)
	fmt.Fprintf(&sb, "Aggregated Confidence: %.3f (threshold %.3f, met: %t)\n", agg.Confidence, threshold, agg.MeetsThreshold)
	fmt.Fprintf(&sb, "Information Found: %t\n\n", !agg.NothingFound)

	for i, r := range agg.Records {
		fmt.Fprintf(&sb, "Source %d %s", i+1, Citation(r.Origin, false))
		if r.NotFound {
			sb.WriteString(": no information found\n")
			continue
		}
		fmt.Fprintf(&sb, " (confidence %.3f): %s\n", r.Confidence.Score, renderPayload(r.Payload))
	}

	sb.WriteString(`
INSTRUCTIONS:
1. Point out where the sources agree and disagree, citing source IDs
2. Do NOT pick a winner for conflicting values; present both
3. Weight statements by the per-source confidence scores
4. If the aggregate confidence is below the threshold, say "I don't know" and explain what is missing

Provide your comparison:`)

	return sb.String()
}
