package semantic

import "fmt"

// Phase is the classification stage that produced a result.
type Phase int

const (
	PhaseOverride Phase = iota
	PhaseGrammar
	PhaseTierMatch
	PhasePatternMatch
	PhaseFallback
)

var phaseNames = [...]string{
	PhaseOverride:     "OVERRIDE",
	PhaseGrammar:      "GRAMMAR",
	PhaseTierMatch:    "TIER_MATCH",
	PhasePatternMatch: "PATTERN_MATCH",
	PhaseFallback:     "FALLBACK",
}

// Phases lists the phases in evaluation order.
func Phases() []Phase {
	return []Phase{PhaseOverride, PhaseGrammar, PhaseTierMatch, PhasePatternMatch, PhaseFallback}
}

func (p Phase) String() string {
	if p < PhaseOverride || p > PhaseFallback {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Request is one node to classify.
type Request struct {
	NodeType string
	Language string

	// Context is optional surrounding source text used by the pattern phase.
	Context string

	// ParentType and SiblingTypes are optional structural hints.
	ParentType   string
	SiblingTypes []string
}

// Result is the outcome of classifying one node type.
type Result struct {
	NodeType       string     `json:"node_type"`
	Language       string     `json:"language"`
	Category       Category   `json:"category"`
	Confidence     float64    `json:"confidence"`
	Phase          Phase      `json:"phase"`
	Rank           Rank       `json:"rank"`
	MatchedPattern string     `json:"matched_pattern,omitempty"`
	Alternatives   []Category `json:"alternatives,omitempty"`
}

// HighConfidence is the confidence at or above which a result is trusted
// without alternatives.
const HighConfidence = 0.8

// IsHighConfidence reports whether the result reaches HighConfidence.
func (r Result) IsHighConfidence() bool {
	return r.Confidence >= HighConfidence
}

// Grade maps confidence onto a letter grade.
func (r Result) Grade() string {
	switch {
	case r.Confidence >= 0.9:
		return "A"
	case r.Confidence >= 0.8:
		return "B"
	case r.Confidence >= 0.7:
		return "C"
	case r.Confidence >= 0.6:
		return "D"
	default:
		return "F"
	}
}

// Importance scores the result for discovery, scaled by confidence.
func (r Result) Importance() float64 {
	return r.Category.Importance().Discovery * r.Confidence
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
