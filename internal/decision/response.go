package decision

import (
	"strings"
	"time"

	"github.com/sells-group/trustgate/internal/confidence"
	"github.com/sells-group/trustgate/internal/model"
	"github.com/sells-group/trustgate/internal/prompt"
)

// ResponseCheck is the audit result for one model response.
type ResponseCheck struct {
	Valid                 bool      `json:"valid"`
	Issues                []string  `json:"issues"`
	HasCitations          bool      `json:"has_citations"`
	ConfidenceCheckPassed bool      `json:"confidence_check_passed"`
	ValidationPrompt      string    `json:"validation_prompt"`
	Timestamp             time.Time `json:"timestamp"`
}

// CheckResponse audits a model response against the records it was shown.
// Citations are required whenever records exist, and a refusal is required
// whenever the data could not support an answer. The refusal check is
// case-insensitive. In strict mode any issue invalidates the response;
// otherwise a single issue is tolerated.
func CheckResponse(query, llmResponse string, records []model.ScoredRecord, threshold float64, strict bool) ResponseCheck {
	var issues []string

	hasCitations := strings.Contains(llmResponse, "[Source:")
	if len(records) > 0 && !hasCitations {
		issues = append(issues, "records were retrieved but the response cites no sources")
	}

	mustRefuse := model.AllNotFound(records) || confidence.Aggregate(records) < threshold
	saysDontKnow := strings.Contains(strings.ToLower(llmResponse), "i don't know")
	if mustRefuse && !saysDontKnow {
		issues = append(issues, `data cannot support an answer but the response does not say "I don't know"`)
	}

	valid := len(issues) == 0
	if !strict {
		valid = len(issues) < 2
	}

	return ResponseCheck{
		Valid:                 valid,
		Issues:                issues,
		HasCitations:          hasCitations,
		ConfidenceCheckPassed: !mustRefuse || saysDontKnow,
		ValidationPrompt:      prompt.ValidationPrompt(query, llmResponse, records),
		Timestamp:             time.Now().UTC(),
	}
}
