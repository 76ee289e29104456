package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Strictness is the policy tier governing how conservative prompt
// generation must be. Strict forbids any unverified inference; lenient
// permits qualified inference.
type Strictness string

const (
	// StrictnessUnspecified is the zero value, meaning "no override"
	// on a request. It is never selected as an outcome.
	StrictnessUnspecified Strictness = ""

	StrictnessStrict   Strictness = "strict"
	StrictnessModerate Strictness = "moderate"
	StrictnessLenient  Strictness = "lenient"
)

// ParseStrictness maps a wire string to a tier. Unrecognized values are an
// error; the empty string parses to StrictnessUnspecified.
func ParseStrictness(s string) (Strictness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return StrictnessUnspecified, nil
	case string(StrictnessStrict):
		return StrictnessStrict, nil
	case string(StrictnessModerate):
		return StrictnessModerate, nil
	case string(StrictnessLenient):
		return StrictnessLenient, nil
	default:
		return StrictnessUnspecified, eris.Errorf("invalid strictness level %q", s)
	}
}

// Valid reports whether the tier is one of the three selectable levels.
func (s Strictness) Valid() bool {
	return s == StrictnessStrict || s == StrictnessModerate || s == StrictnessLenient
}

func (s Strictness) String() string {
	return string(s)
}
