package types

// EvidenceLevel classifies how much real third-party corroboration exists
// for a generation job. It gates what the model is allowed to claim.
type EvidenceLevel string

// Evidence levels, strongest first.
const (
	EvidenceStrong      EvidenceLevel = "strong"
	EvidencePartial     EvidenceLevel = "partial"
	EvidenceProductOnly EvidenceLevel = "product-only"
)

// PractitionerQuote is one community voice cited in an evidence bundle.
type PractitionerQuote struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	URL    string `json:"url"`
}

// EvidenceBundle is the result of community research for one job. The level
// is always derived from the bundle contents, never set directly by callers.
type EvidenceBundle struct {
	PostCount    int                 `json:"postCount"`
	Quotes       []PractitionerQuote `json:"quotes"`
	Context      string              `json:"context"`
	Level        EvidenceLevel       `json:"level"`
	SourceCounts map[string]int      `json:"sourceCounts,omitempty"` // host -> post count
	Synthesized  bool                `json:"synthesized,omitempty"`  // pain synthesized from model knowledge
	Error        string              `json:"error,omitempty"`
}

// EmptyEvidenceBundle returns a product-only bundle, used when research fails
// or is skipped entirely.
func EmptyEvidenceBundle() *EvidenceBundle {
	return &EvidenceBundle{
		Level:        EvidenceProductOnly,
		SourceCounts: map[string]int{},
	}
}

// ProductInsights is the distilled understanding of the product extracted
// from the supplied documentation.
type ProductInsights struct {
	Name            string   `json:"name"`
	Domain          string   `json:"domain"`
	Category        string   `json:"category"`
	Summary         string   `json:"summary"`
	Capabilities    []string `json:"capabilities"`
	Audience        string   `json:"audience,omitempty"`
	Differentiators []string `json:"differentiators,omitempty"`
}
