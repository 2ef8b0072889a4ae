package scoring

import "github.com/jordan/content-forge/internal/types"

// CheckQualityGates reports whether every ceiling dimension is at or below
// its max and every floor dimension at or above its min. Boundary values
// pass. Unset threshold fields fall back to the documented defaults.
func CheckQualityGates(scores *types.ScoreResult, thresholds types.ScoringThresholds) bool {
	t := thresholds.WithDefaults()

	if scores.Slop > t.SlopMax {
		return false
	}
	if scores.VendorSpeak > t.VendorSpeakMax {
		return false
	}
	if scores.Authenticity < t.AuthenticityMin {
		return false
	}
	if scores.Specificity < t.SpecificityMin {
		return false
	}
	if scores.PersonaAvg < t.PersonaMin {
		return false
	}
	if scores.NarrativeArc < t.NarrativeArcMin {
		return false
	}
	return true
}

// FailingDimensions returns the names of dimensions violating their
// thresholds, used to build targeted refinement instructions.
func FailingDimensions(scores *types.ScoreResult, thresholds types.ScoringThresholds) []string {
	t := thresholds.WithDefaults()

	var failing []string
	if scores.Slop > t.SlopMax {
		failing = append(failing, DimensionSlop)
	}
	if scores.VendorSpeak > t.VendorSpeakMax {
		failing = append(failing, DimensionVendorSpeak)
	}
	if scores.Authenticity < t.AuthenticityMin {
		failing = append(failing, DimensionAuthenticity)
	}
	if scores.Specificity < t.SpecificityMin {
		failing = append(failing, DimensionSpecificity)
	}
	if scores.PersonaAvg < t.PersonaMin {
		failing = append(failing, DimensionPersona)
	}
	if scores.NarrativeArc < t.NarrativeArcMin {
		failing = append(failing, DimensionNarrativeArc)
	}
	return failing
}

// TotalQualityScore collapses a score result into one comparable scalar in
// [0,60]. Used only for refinement plateau detection, never for gating.
func TotalQualityScore(scores *types.ScoreResult) float64 {
	return (10 - scores.Slop) +
		(10 - scores.VendorSpeak) +
		scores.Authenticity +
		scores.Specificity +
		scores.PersonaAvg +
		scores.NarrativeArc
}
