package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/jordan/content-forge/internal/llm"
	"github.com/jordan/content-forge/internal/prompts"
	"github.com/jordan/content-forge/internal/types"
)

// outsideInStrategy leads with practitioner pain instead of product claims.
// Product-doc layering is deliberately omitted from the draft prompt to
// preserve an unmediated practitioner voice; product facts only enter
// through the competitive enrichment pass.
//
// When community research comes back empty, the strategy synthesizes
// plausible practitioner pain from model knowledge and continues with the
// evidence level downgraded to partial, rather than falling back to the
// standard strategy.
type outsideInStrategy struct {
	e *Engine
}

var errEmptySynthesis = errors.New("pain synthesis returned empty content")

func (s *outsideInStrategy) Name() string { return types.PipelineOutsideIn }

func (s *outsideInStrategy) Run(ctx context.Context, rc *runContext) ([]*types.Variant, error) {
	if err := s.e.prepare(ctx, rc, true, true); err != nil {
		return nil, err
	}
	if rc.evidence.Level == types.EvidenceProductOnly {
		if err := s.synthesizePain(ctx, rc); err != nil {
			return nil, err
		}
	}
	return s.e.generateCombos(ctx, rc, s.draft, true)
}

// synthesizePain replaces an empty evidence bundle with model-synthesized
// practitioner frustrations. The bundle is marked synthesized so provenance
// stays honest.
func (s *outsideInStrategy) synthesizePain(ctx context.Context, rc *runContext) error {
	rc.tracker.StartStep("synthesize-pain", "")
	prompt := prompts.Format(prompts.MustGet("user.json", "synthesize-pain"), map[string]string{
		"Domain":   rc.insights.Domain,
		"Category": rc.insights.Category,
	})
	result, err := s.e.client.Generate(ctx, prompt, llm.Options{
		Tier: llm.TierStandard,
		Meta: llm.CallMeta{JobID: rc.jobID, Purpose: "synthesize-pain"},
	})
	if err != nil {
		return err
	}
	if strings.TrimSpace(result.Text) == "" {
		return errEmptySynthesis
	}

	rc.evidence.Context = result.Text
	rc.evidence.Synthesized = true
	rc.evidence.Level = types.EvidencePartial
	rc.tracker.CompleteGeneration("synthesize-pain", result.Model, result.Text)
	return nil
}

func (s *outsideInStrategy) draft(ctx context.Context, rc *runContext, c combo) (string, *types.GenerationPrompt, error) {
	banned := s.e.banned.For(ctx, c.voice, rc.insights.Domain)

	system := prompts.BuildSystemPrompt(prompts.SystemPromptInput{
		Directive:     prompts.DirectivePainFirst,
		Voice:         c.voice,
		AssetType:     c.assetType,
		EvidenceLevel: rc.evidence.Level,
		Insights:      rc.insights,
		BannedPhrases: banned,
	})
	user := prompts.BuildPainFirstPrompt(prompts.UserPromptInput{
		Insights:    rc.insights,
		Evidence:    rc.evidence,
		AssetType:   c.assetType,
		ExtraPrompt: rc.sub.Prompt,
	})

	result, err := s.e.generate(ctx, rc, "draft "+c.label(), system, user, "draft", c)
	if err != nil {
		return "", nil, err
	}

	enriched := prompts.BuildCompetitiveEnrichedPrompt(result.Text, rc.competitive)
	enrichedResult, err := s.e.generate(ctx, rc, "competitive-enrichment "+c.label(), system, enriched, "enrich", c)
	if err != nil {
		return "", nil, err
	}
	return enrichedResult.Text, newPrompt(system, user), nil
}
