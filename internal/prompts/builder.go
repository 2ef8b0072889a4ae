package prompts

import (
	"fmt"
	"strings"

	"github.com/jordan/content-forge/internal/types"
)

// Directive selects the primary framing of a system prompt.
type Directive string

// System prompt directives.
const (
	DirectivePainFirst Directive = "pain-first"
	DirectivePOVFirst  Directive = "pov-first"
)

// SystemPromptInput carries everything the system prompt composition needs.
type SystemPromptInput struct {
	Directive     Directive
	Voice         *types.VoiceProfile
	AssetType     string
	EvidenceLevel types.EvidenceLevel
	Insights      *types.ProductInsights
	BannedPhrases []string
}

// BuildSystemPrompt assembles the system prompt in fixed composition order:
// primary directive, persona angle, voice guide, asset formatting, grounding
// rules, banned phrases.
func BuildSystemPrompt(in SystemPromptInput) string {
	var sections []string

	directiveKey := "system-pov-first"
	if in.Directive == DirectivePainFirst {
		directiveKey = "system-pain-first"
	}
	sections = append(sections, Format(MustGet("generation.json", directiveKey), map[string]string{
		"Domain":   in.Insights.Domain,
		"Name":     in.Insights.Name,
		"Category": in.Insights.Category,
	}))

	if in.Voice != nil {
		if len(in.Voice.ExamplePhrases) > 0 {
			sections = append(sections, Format(MustGet("generation.json", "persona-angle"), map[string]string{
				"VoiceName":      in.Voice.Name,
				"ExamplePhrases": strings.Join(in.Voice.ExamplePhrases, " | "),
			}))
		}
		if strings.TrimSpace(in.Voice.Guide) != "" {
			sections = append(sections, in.Voice.Guide)
		}
	}

	sections = append(sections, FormatInstructions(in.AssetType))
	sections = append(sections, groundingRules(in.EvidenceLevel))

	if len(in.BannedPhrases) > 0 {
		var sb strings.Builder
		sb.WriteString(MustGet("generation.json", "banned-phrases-header"))
		for _, phrase := range in.BannedPhrases {
			sb.WriteString("\n- ")
			sb.WriteString(phrase)
		}
		sections = append(sections, sb.String())
	}

	return strings.Join(sections, "\n\n")
}

// FormatInstructions returns the asset-type-specific formatting section.
// Unknown asset types get the one-pager treatment.
func FormatInstructions(assetType string) string {
	key := fmt.Sprintf("format-%s", assetType)
	instructions, err := Get("generation.json", key)
	if err != nil {
		return MustGet("generation.json", "format-one-pager")
	}
	return instructions
}

// groundingRules returns the evidence-dependent fabrication constraint.
// Product-only content gets the strict rule; evidence-backed content may
// cite only supplied evidence.
func groundingRules(level types.EvidenceLevel) string {
	if level == types.EvidenceProductOnly {
		return MustGet("generation.json", "grounding-strict")
	}
	return MustGet("generation.json", "grounding-evidence")
}
