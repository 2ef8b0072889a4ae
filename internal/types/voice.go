package types

// ScoringThresholds holds the per-dimension quality gate bounds for a voice.
// Slop and vendor-speak are ceilings (lower is better); the rest are floors
// (higher is better). All values are in [0,10]. Zero values mean "unset" and
// fall back to the documented defaults via WithDefaults.
type ScoringThresholds struct {
	SlopMax         float64 `json:"slopMax" yaml:"slop_max"`
	VendorSpeakMax  float64 `json:"vendorSpeakMax" yaml:"vendor_speak_max"`
	AuthenticityMin float64 `json:"authenticityMin" yaml:"authenticity_min"`
	SpecificityMin  float64 `json:"specificityMin" yaml:"specificity_min"`
	PersonaMin      float64 `json:"personaMin" yaml:"persona_min"`
	NarrativeArcMin float64 `json:"narrativeArcMin" yaml:"narrative_arc_min"`
}

// Default threshold values applied when a voice profile leaves a bound unset.
const (
	DefaultSlopMax         = 5.0
	DefaultVendorSpeakMax  = 5.0
	DefaultAuthenticityMin = 6.0
	DefaultSpecificityMin  = 6.0
	DefaultPersonaMin      = 6.0
	DefaultNarrativeArcMin = 5.0
)

// WithDefaults returns a copy with unset (zero) bounds replaced by defaults.
func (t ScoringThresholds) WithDefaults() ScoringThresholds {
	out := t
	if out.SlopMax == 0 {
		out.SlopMax = DefaultSlopMax
	}
	if out.VendorSpeakMax == 0 {
		out.VendorSpeakMax = DefaultVendorSpeakMax
	}
	if out.AuthenticityMin == 0 {
		out.AuthenticityMin = DefaultAuthenticityMin
	}
	if out.SpecificityMin == 0 {
		out.SpecificityMin = DefaultSpecificityMin
	}
	if out.PersonaMin == 0 {
		out.PersonaMin = DefaultPersonaMin
	}
	if out.NarrativeArcMin == 0 {
		out.NarrativeArcMin = DefaultNarrativeArcMin
	}
	return out
}

// VoiceProfile is a named persona constraining tone and vocabulary.
// Immutable during a job; supplied by configuration.
type VoiceProfile struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	Slug           string            `json:"slug" yaml:"slug"`
	Guide          string            `json:"guide" yaml:"guide"`
	Thresholds     ScoringThresholds `json:"thresholds" yaml:"thresholds"`
	ExamplePhrases []string          `json:"examplePhrases,omitempty" yaml:"example_phrases,omitempty"`
}
