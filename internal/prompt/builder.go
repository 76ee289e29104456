// Package prompt renders the text shown to the consuming language model:
// tiered anti-hallucination system prompts, the user prompt embedding the
// retrieved records, and the formatted "I don't know" fallback.
package prompt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/trustgate/internal/model"
)

// Template is a complete prompt pair ready for a model call.
type Template struct {
	System     string               `json:"system_prompt"`
	User       string               `json:"user_prompt"`
	Records    []model.ScoredRecord `json:"retrieved_data"`
	Strictness model.Strictness     `json:"strictness_level"`
	Threshold  float64              `json:"confidence_threshold"`
	StrictMode bool                 `json:"strict_mode"`
}

// Builder renders prompt text from a query and its scored records. The
// decision engine supplies records, threshold, and tier; wording is the
// builder's concern.
type Builder interface {
	Build(query string, records []model.ScoredRecord, threshold float64, tier model.Strictness) (Template, error)
}

// DefaultBuilder is the stock template set.
type DefaultBuilder struct{}

// NewBuilder returns the default prompt builder.
func NewBuilder() *DefaultBuilder {
	return &DefaultBuilder{}
}

// Build renders the system and user prompts for the given tier.
func (b *DefaultBuilder) Build(query string, records []model.ScoredRecord, threshold float64, tier model.Strictness) (Template, error) {
	system, err := systemPrompt(tier)
	if err != nil {
		return Template{}, err
	}
	return Template{
		System:     system,
		User:       userPrompt(query, records, threshold),
		Records:    records,
		Strictness: tier,
		Threshold:  threshold,
		StrictMode: tier == model.StrictnessStrict,
	}, nil
}

func systemPrompt(tier model.Strictness) (string, error) {
	switch tier {
	case model.StrictnessStrict:
		return strictSystemPrompt, nil
	case model.StrictnessModerate:
		return moderateSystemPrompt, nil
	case model.StrictnessLenient:
		return lenientSystemPrompt, nil
	default:
		return "", eris.Errorf("invalid strictness level %q", tier)
	}
}

func userPrompt(query string, records []model.ScoredRecord, threshold float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Query: %s\n\n", query)
	fmt.Fprintf(&sb, "Confidence Threshold: %s\n\n", formatFloat(threshold))
	sb.WriteString("RETRIEVED DATA SOURCES:\n")

	for i, r := range records {
		fmt.Fprintf(&sb, "\n--- Source %d ---\n", i+1)
		fmt.Fprintf(&sb, "Source Type: %s\n", r.Origin.Source)
		fmt.Fprintf(&sb, "Source ID: %s\n", r.Origin.ID)
		fmt.Fprintf(&sb, "Table/Database: %s\n", r.Origin.Container)
		fmt.Fprintf(&sb, "Confidence Score: %.3f\n", r.Confidence.Score)
		fmt.Fprintf(&sb, "Confidence Reasoning: %s\n", r.Confidence.Reasoning)
		fmt.Fprintf(&sb, "Information Found: %t\n", !r.NotFound)
		fmt.Fprintf(&sb, "Verified: %t\n", r.Verified)

		switch {
		case r.NotFound:
			sb.WriteString("Data: NONE - Information not found\n")
		case r.Payload != nil:
			fmt.Fprintf(&sb, "Data: %s\n", renderPayload(r.Payload))
		default:
			sb.WriteString("Data: NONE\n")
		}
		if r.Note != "" {
			fmt.Fprintf(&sb, "Additional Context: %s\n", r.Note)
		}
	}

	sb.WriteString(`
--- END OF RETRIEVED DATA ---

INSTRUCTIONS:
1. Analyze ONLY the retrieved data above
2. Check confidence scores against threshold
3. If ANY source has information_not_found=True or confidence below threshold, state limitations
4. Cite sources using [Source: source_type-source_id] format
5. If data is insufficient or confidence too low, respond: "I don't know. [Reason: ...]"

Provide your response:`)

	return sb.String()
}

// renderPayload emits the payload as compact JSON; map keys come out
// sorted, keeping the prompt deterministic for identical inputs.
func renderPayload(p model.Payload) string {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(p))
	}
	return string(raw)
}

// formatFloat renders a float with minimal digits ("0.85", not "0.850000").
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
