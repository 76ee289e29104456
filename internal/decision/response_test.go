package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/trustgate/internal/model"
)

func TestCheckResponseValid(t *testing.T) {
	t.Parallel()

	records := []model.ScoredRecord{
		dataRecord(model.SourceSupabase, "rec-1", 0.95),
		dataRecord(model.SourceNotion, "rec-2", 0.93),
	}
	check := CheckResponse("what is the price", "The price is 42.5 [Source: supabase-rec-1].", records, 0.85, true)

	assert.True(t, check.Valid)
	assert.Empty(t, check.Issues)
	assert.True(t, check.HasCitations)
	assert.True(t, check.ConfidenceCheckPassed)
	assert.Contains(t, check.ValidationPrompt, "what is the price")
	assert.Contains(t, check.ValidationPrompt, "The price is 42.5")
	assert.False(t, check.Timestamp.IsZero())
}

func TestCheckResponseMissingCitation(t *testing.T) {
	t.Parallel()

	records := []model.ScoredRecord{
		dataRecord(model.SourceSupabase, "rec-1", 0.95),
		dataRecord(model.SourceNotion, "rec-2", 0.93),
	}

	strict := CheckResponse("q", "The price is 42.5.", records, 0.85, true)
	assert.False(t, strict.Valid)
	assert.False(t, strict.HasCitations)
	assert.Contains(t, strict.Issues, "records were retrieved but the response cites no sources")

	// A single issue is tolerated outside strict mode.
	lenient := CheckResponse("q", "The price is 42.5.", records, 0.85, false)
	assert.True(t, lenient.Valid)
	assert.Len(t, lenient.Issues, 1)
}

func TestCheckResponseRefusalRequired(t *testing.T) {
	t.Parallel()

	records := []model.ScoredRecord{dataRecord(model.SourceSupabase, "rec-1", 0.6)}

	check := CheckResponse("q", "The price is 42.5 [Source: supabase-rec-1].", records, 0.85, true)
	assert.False(t, check.Valid)
	assert.False(t, check.ConfidenceCheckPassed)
	assert.Contains(t, check.Issues, `data cannot support an answer but the response does not say "I don't know"`)

	refusing := CheckResponse("q", "I don't know. Confidence is too low. [Source: supabase-rec-1]", records, 0.85, true)
	assert.True(t, refusing.Valid)
	assert.True(t, refusing.ConfidenceCheckPassed)
}

func TestCheckResponseRefusalCaseInsensitive(t *testing.T) {
	t.Parallel()

	records := []model.ScoredRecord{dataRecord(model.SourceSupabase, "rec-1", 0.6)}

	for _, response := range []string{
		"I don't know. The data is too weak.",
		"i don't know, sorry.",
		"I DON'T KNOW. NOTHING SUPPORTS AN ANSWER.",
	} {
		check := CheckResponse("q", response, records, 0.85, false)
		assert.True(t, check.ConfidenceCheckPassed, response)
		assert.NotContains(t, check.Issues, `data cannot support an answer but the response does not say "I don't know"`)
	}
}

func TestCheckResponseTwoIssuesFailLenient(t *testing.T) {
	t.Parallel()

	records := []model.ScoredRecord{dataRecord(model.SourceSupabase, "rec-1", 0.6)}

	// No citation and no refusal: invalid in both modes.
	check := CheckResponse("q", "The price is 42.5.", records, 0.85, false)
	assert.False(t, check.Valid)
	assert.Len(t, check.Issues, 2)
}

func TestCheckResponseAllNotFoundRequiresRefusal(t *testing.T) {
	t.Parallel()

	records := []model.ScoredRecord{
		missingRecord(model.SourceSupabase),
		missingRecord(model.SourceNotion),
	}

	check := CheckResponse("q", "The answer is 42. [Source: supabase-none]", records, 0.85, true)
	assert.False(t, check.Valid)
	assert.False(t, check.ConfidenceCheckPassed)
}

func TestCheckResponseNoRecords(t *testing.T) {
	t.Parallel()

	check := CheckResponse("q", "I don't know. No data was retrieved.", nil, 0.85, true)
	assert.True(t, check.Valid)
	assert.Empty(t, check.Issues)
	assert.False(t, check.HasCitations)
	assert.True(t, check.ConfidenceCheckPassed)
}
