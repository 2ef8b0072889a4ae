package types

// ScorerHealth records which quality scorers failed and degraded to the
// neutral default during a scoring pass.
type ScorerHealth struct {
	Failed []string `json:"failed,omitempty"`
}

// FailedCount returns the number of scorers that degraded.
func (h *ScorerHealth) FailedCount() int {
	if h == nil {
		return 0
	}
	return len(h.Failed)
}

// ScoreResult is the output of the quality scoring ensemble for one piece of
// content. Immutable once produced; new content always yields a new result.
type ScoreResult struct {
	Slop         float64      `json:"slop"`         // lower is better
	VendorSpeak  float64      `json:"vendorSpeak"`  // lower is better
	Authenticity float64      `json:"authenticity"` // higher is better
	Specificity  float64      `json:"specificity"`  // higher is better
	PersonaAvg   float64      `json:"personaAvg"`   // higher is better
	NarrativeArc float64      `json:"narrativeArc"` // higher is better
	Health       ScorerHealth `json:"scorerHealth"`
}
