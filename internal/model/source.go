package model

import "strings"

// SourceKind identifies one of the two backing data stores. The set is
// closed: anything else parses to SourceUnknown, which is reserved for
// error paths and never queried.
type SourceKind string

const (
	SourceSupabase SourceKind = "supabase"
	SourceNotion   SourceKind = "notion"
	SourceUnknown  SourceKind = "unknown"
)

// AllSourceKinds returns the queryable source kinds in aggregation order.
func AllSourceKinds() []SourceKind {
	return []SourceKind{SourceSupabase, SourceNotion}
}

// ParseSourceKind maps a wire string to a SourceKind. Unrecognized values,
// including the empty string, map to SourceUnknown.
func ParseSourceKind(s string) SourceKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(SourceSupabase):
		return SourceSupabase
	case string(SourceNotion):
		return SourceNotion
	default:
		return SourceUnknown
	}
}

// Known reports whether the kind is one of the two real stores.
func (k SourceKind) Known() bool {
	return k == SourceSupabase || k == SourceNotion
}

// Weight returns the fixed reliability weight used when aggregating
// confidence across sources. Supabase outweighs Notion; unknown sources
// fall back to a neutral 0.5.
func (k SourceKind) Weight() float64 {
	switch k {
	case SourceSupabase:
		return 0.55
	case SourceNotion:
		return 0.45
	default:
		return 0.5
	}
}

// Reliability returns the fixed per-source reliability constant blended
// into each record's confidence score.
func (k SourceKind) Reliability() float64 {
	switch k {
	case SourceSupabase:
		return 0.95
	case SourceNotion:
		return 0.90
	default:
		return 0.50
	}
}

func (k SourceKind) String() string {
	if k == "" {
		return string(SourceUnknown)
	}
	return string(k)
}
