package pipeline

import (
	"context"

	"github.com/jordan/content-forge/internal/prompts"
	"github.com/jordan/content-forge/internal/types"
)

// standardStrategy: deep point-of-view extraction from the product docs,
// community and competitive research, then a point-of-view-first draft per
// combination.
type standardStrategy struct {
	e *Engine
}

func (s *standardStrategy) Name() string { return types.PipelineStandard }

func (s *standardStrategy) Run(ctx context.Context, rc *runContext) ([]*types.Variant, error) {
	if err := s.e.prepare(ctx, rc, true, true); err != nil {
		return nil, err
	}
	return s.e.generateCombos(ctx, rc, s.draft, true)
}

func (s *standardStrategy) draft(ctx context.Context, rc *runContext, c combo) (string, *types.GenerationPrompt, error) {
	banned := s.e.banned.For(ctx, c.voice, rc.insights.Domain)

	system := prompts.BuildSystemPrompt(prompts.SystemPromptInput{
		Directive:     prompts.DirectivePOVFirst,
		Voice:         c.voice,
		AssetType:     c.assetType,
		EvidenceLevel: rc.evidence.Level,
		Insights:      rc.insights,
		BannedPhrases: banned,
	})
	user := prompts.BuildPOVFirstPrompt(prompts.UserPromptInput{
		Insights:    rc.insights,
		Evidence:    rc.evidence,
		AssetType:   c.assetType,
		Competitive: rc.competitive,
		ExtraPrompt: rc.sub.Prompt,
	})

	result, err := s.e.generate(ctx, rc, "draft "+c.label(), system, user, "draft", c)
	if err != nil {
		return "", nil, err
	}
	return result.Text, newPrompt(system, user), nil
}
