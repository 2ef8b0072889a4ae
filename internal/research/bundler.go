package research

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jordan/content-forge/internal/llm"
	"github.com/jordan/content-forge/internal/prompts"
	"github.com/jordan/content-forge/internal/types"
)

// Bundler runs community and competitive research for a job. Its methods
// never raise to the caller: internal failures are captured into the bundle
// and the evidence level degrades to product-only.
type Bundler struct {
	client llm.Client
	agent  Agent
	log    *logrus.Entry
}

// NewBundler builds a bundler over a dispatcher client and a research agent.
func NewBundler(client llm.Client, agent Agent, log *logrus.Logger) *Bundler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bundler{
		client: client,
		agent:  agent,
		log:    log.WithField("component", "research"),
	}
}

// quoteExtraction is the expected JSON shape of the quote-mining call.
type quoteExtraction struct {
	Quotes []types.PractitionerQuote `json:"quotes"`
}

// RunCommunityResearch gathers practitioner evidence for the product and
// classifies its strength. Failures degrade the bundle, never propagate.
func (b *Bundler) RunCommunityResearch(ctx context.Context, insights *types.ProductInsights, focus string, onProgress func(status string)) *types.EvidenceBundle {
	bundle := types.EmptyEvidenceBundle()

	findings, err := b.runInteraction(ctx, buildResearchPrompt("community-research", insights, focus), onProgress)
	if err != nil {
		b.log.Warnf("community research failed: %v", err)
		bundle.Error = err.Error()
		return bundle
	}

	sources, hosts := dedupeSources(findings.Sources)
	bundle.PostCount = len(sources)
	bundle.Context = findings.Text
	bundle.SourceCounts = hosts
	bundle.Quotes = b.extractQuotes(ctx, findings, sources)

	hasText := len(strings.TrimSpace(findings.Text)) >= nonTrivialTextLen
	bundle.Level = ClassifyEvidenceLevel(bundle.PostCount, hosts, hasText)

	return bundle
}

// RunCompetitiveResearch gathers raw competitive context. Advisory only: no
// classification, and failures collapse to an empty string.
func (b *Bundler) RunCompetitiveResearch(ctx context.Context, insights *types.ProductInsights, focus string) string {
	findings, err := b.runInteraction(ctx, buildResearchPrompt("competitive-research", insights, focus), nil)
	if err != nil {
		b.log.Warnf("competitive research failed: %v", err)
		return ""
	}
	return findings.Text
}

// runInteraction submits one deep-research prompt and polls it to completion.
func (b *Bundler) runInteraction(ctx context.Context, prompt string, onProgress func(status string)) (*Findings, error) {
	interactionID, err := b.agent.Submit(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return b.agent.Poll(ctx, interactionID, onProgress)
}

// extractQuotes mines practitioner quotes from the research text. A failed
// extraction falls back to snippet-derived quotes from the cited sources.
func (b *Bundler) extractQuotes(ctx context.Context, findings *Findings, sources []Source) []types.PractitionerQuote {
	if strings.TrimSpace(findings.Text) == "" {
		return nil
	}

	prompt := prompts.Format(prompts.MustGet("research.json", "quote-extraction"), map[string]string{
		"ResearchText": llm.Truncate(findings.Text, 12000),
	})

	var extracted quoteExtraction
	_, err := b.client.GenerateJSON(ctx, prompt, &extracted, llm.JSONOptions{
		Options: llm.Options{Tier: llm.TierLite, Meta: llm.CallMeta{Purpose: "quote-extraction"}},
	})
	if err == nil && len(extracted.Quotes) > 0 {
		return extracted.Quotes
	}
	if err != nil {
		b.log.Warnf("quote extraction failed, falling back to source snippets: %v", err)
	}

	var quotes []types.PractitionerQuote
	for _, source := range sources {
		if strings.TrimSpace(source.Snippet) == "" {
			continue
		}
		quotes = append(quotes, types.PractitionerQuote{
			Text:   source.Snippet,
			Source: hostOf(source.URL),
			URL:    source.URL,
		})
	}
	return quotes
}

// buildResearchPrompt renders a research instruction from product insights
// and an optional focus string.
func buildResearchPrompt(key string, insights *types.ProductInsights, focus string) string {
	focusLine := ""
	if strings.TrimSpace(focus) != "" {
		focusLine = "Focus area: " + focus
	}
	return prompts.Format(prompts.MustGet("research.json", key), map[string]string{
		"Domain":       insights.Domain,
		"Category":     insights.Category,
		"Summary":      insights.Summary,
		"Capabilities": strings.Join(insights.Capabilities, ", "),
		"Focus":        focusLine,
	})
}
