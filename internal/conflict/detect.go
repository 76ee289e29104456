// Package conflict surfaces factual disagreements between records
// retrieved from different sources.
package conflict

import (
	"reflect"
	"sort"

	"github.com/sells-group/trustgate/internal/model"
)

// Side is one record's view of a disputed field.
type Side struct {
	Source     model.SourceKind `json:"source_type"`
	ID         string           `json:"source_id"`
	Value      any              `json:"value"`
	Confidence float64          `json:"confidence"`
}

// Detail is a single disagreement between two records over one field.
type Detail struct {
	Field string `json:"field"`
	A     Side   `json:"source_a"`
	B     Side   `json:"source_b"`
}

// Report is the outcome of a conflict scan.
type Report struct {
	HasConflicts bool     `json:"has_conflicts"`
	Fields       []string `json:"conflicting_fields"`
	Details      []Detail `json:"conflict_details"`
}

// Detect pairwise-compares the records' payload fields and reports every
// disagreement. Only records carrying a payload participate; fewer than two
// of those means trivially no conflicts. When field is non-empty the
// comparison is restricted to that field. Values are compared structurally.
// Each unordered record pair contributes at most one detail per field.
func Detect(records []model.ScoredRecord, field string) Report {
	report := Report{Fields: []string{}, Details: []Detail{}}

	eligible := make([]model.ScoredRecord, 0, len(records))
	for _, r := range records {
		if r.Payload != nil {
			eligible = append(eligible, r)
		}
	}
	if len(eligible) < 2 {
		return report
	}

	fieldSet := map[string]struct{}{}
	for i := 0; i < len(eligible); i++ {
		for j := i + 1; j < len(eligible); j++ {
			a, b := eligible[i], eligible[j]
			for _, name := range commonFields(a.Payload, b.Payload) {
				if field != "" && name != field {
					continue
				}
				va, vb := a.Payload[name], b.Payload[name]
				if reflect.DeepEqual(va, vb) {
					continue
				}
				fieldSet[name] = struct{}{}
				report.Details = append(report.Details, Detail{
					Field: name,
					A:     side(a, va),
					B:     side(b, vb),
				})
			}
		}
	}

	for name := range fieldSet {
		report.Fields = append(report.Fields, name)
	}
	sort.Strings(report.Fields)
	report.HasConflicts = len(report.Details) > 0
	return report
}

// commonFields returns the sorted field names present in both payloads.
func commonFields(a, b model.Payload) []string {
	var names []string
	for k := range a {
		if _, ok := b[k]; ok {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

func side(r model.ScoredRecord, value any) Side {
	return Side{
		Source:     r.Origin.Source,
		ID:         r.Origin.ID,
		Value:      value,
		Confidence: r.Confidence.Score,
	}
}
