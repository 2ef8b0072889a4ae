package prompts

import (
	"strings"

	"github.com/jordan/content-forge/internal/types"
)

// UserPromptInput carries the material user-prompt builders draw from.
type UserPromptInput struct {
	Insights    *types.ProductInsights
	Evidence    *types.EvidenceBundle
	AssetType   string
	Competitive string
	ExtraPrompt string
}

// BuildPainFirstPrompt builds the user prompt for pain-first generation.
func BuildPainFirstPrompt(in UserPromptInput) string {
	body := Format(MustGet("user.json", "user-pain-first"), map[string]string{
		"Summary":      in.Insights.Summary,
		"Capabilities": strings.Join(in.Insights.Capabilities, ", "),
		"Evidence":     renderEvidence(in.Evidence),
		"AssetType":    in.AssetType,
	})
	return withTail(body, in.ExtraPrompt)
}

// BuildPOVFirstPrompt builds the user prompt for point-of-view-first
// generation, including competitive context.
func BuildPOVFirstPrompt(in UserPromptInput) string {
	body := Format(MustGet("user.json", "user-pov-first"), map[string]string{
		"Summary":      in.Insights.Summary,
		"Capabilities": strings.Join(in.Insights.Capabilities, ", "),
		"Evidence":     renderEvidence(in.Evidence),
		"Competitive":  orNone(in.Competitive),
		"AssetType":    in.AssetType,
	})
	return withTail(body, in.ExtraPrompt)
}

// BuildCompetitiveEnrichedPrompt builds the enrichment pass prompt applied
// to an existing draft.
func BuildCompetitiveEnrichedPrompt(draft, competitive string) string {
	body := Format(MustGet("user.json", "user-competitive"), map[string]string{
		"Draft":       draft,
		"Competitive": orNone(competitive),
	})
	return withTail(body, "")
}

// BuildTemplateOnlyPrompt builds the minimal product-facts-only prompt.
func BuildTemplateOnlyPrompt(in UserPromptInput) string {
	body := Format(MustGet("user.json", "user-template-only"), map[string]string{
		"Summary":      in.Insights.Summary,
		"Capabilities": strings.Join(in.Insights.Capabilities, ", "),
		"AssetType":    in.AssetType,
	})
	return withTail(body, in.ExtraPrompt)
}

// withTail appends the caller's extra direction and the shared output-only
// tail every user prompt ends with.
func withTail(body, extra string) string {
	if strings.TrimSpace(extra) != "" {
		body += "\n\nAdditional direction from the requester:\n" + extra
	}
	return body + "\n\n" + MustGet("user.json", "format-tail")
}

// renderEvidence flattens an evidence bundle into prompt text.
func renderEvidence(bundle *types.EvidenceBundle) string {
	if bundle == nil || (len(bundle.Quotes) == 0 && strings.TrimSpace(bundle.Context) == "") {
		return "(none available)"
	}

	var sb strings.Builder
	for _, quote := range bundle.Quotes {
		sb.WriteString("- \"")
		sb.WriteString(quote.Text)
		sb.WriteString("\"")
		if quote.Source != "" {
			sb.WriteString(" — ")
			sb.WriteString(quote.Source)
		}
		sb.WriteString("\n")
	}
	if strings.TrimSpace(bundle.Context) != "" {
		sb.WriteString("\nResearch summary:\n")
		sb.WriteString(bundle.Context)
	}
	return sb.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none available)"
	}
	return s
}
