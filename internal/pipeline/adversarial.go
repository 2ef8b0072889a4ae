package pipeline

import (
	"context"
	"fmt"

	"github.com/jordan/content-forge/internal/llm"
	"github.com/jordan/content-forge/internal/prompts"
	"github.com/jordan/content-forge/internal/types"
)

// adversarialRounds is the number of attack-and-defend cycles applied to
// every draft.
const adversarialRounds = 2

// adversarialStrategy hardens a draft by alternating a skeptical-practitioner
// critique with a defend-and-rewrite pass.
type adversarialStrategy struct {
	e      *Engine
	rounds int
}

func (s *adversarialStrategy) Name() string { return types.PipelineAdversarial }

func (s *adversarialStrategy) Run(ctx context.Context, rc *runContext) ([]*types.Variant, error) {
	if err := s.e.prepare(ctx, rc, true, false); err != nil {
		return nil, err
	}
	return s.e.generateCombos(ctx, rc, s.draft, true)
}

func (s *adversarialStrategy) draft(ctx context.Context, rc *runContext, c combo) (string, *types.GenerationPrompt, error) {
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
		ExtraPrompt: rc.sub.Prompt,
	})

	result, err := s.e.generate(ctx, rc, "draft "+c.label(), system, user, "draft", c)
	if err != nil {
		return "", nil, err
	}
	content := result.Text

	for round := 1; round <= s.rounds; round++ {
		critique, err := s.attack(ctx, rc, c, round, content)
		if err != nil {
			return "", nil, err
		}
		content, err = s.defend(ctx, rc, c, round, content, critique, system)
		if err != nil {
			return "", nil, err
		}
	}

	return content, newPrompt(system, user), nil
}

// attack generates the skeptical critique for one round. The critique runs
// without the voice system prompt so the skeptic is not constrained by the
// persona it is attacking.
func (s *adversarialStrategy) attack(ctx context.Context, rc *runContext, c combo, round int, draft string) (string, error) {
	step := fmt.Sprintf("attack round %d %s", round, c.label())
	prompt := prompts.Format(prompts.MustGet("user.json", "adversarial-critique"), map[string]string{
		"Domain": rc.insights.Domain,
		"Draft":  draft,
	})

	rc.tracker.StartStep(step, rc.sub.Model)
	result, err := s.e.client.Generate(ctx, prompt, llm.Options{
		Model: rc.sub.Model,
		Tier:  llm.TierStandard,
		Meta:  llm.CallMeta{JobID: rc.jobID, Purpose: "attack", Combination: c.label()},
	})
	if err != nil {
		return "", fmt.Errorf("%s failed: %w", step, err)
	}
	rc.tracker.CompleteGeneration(step, result.Model, result.Text)
	return result.Text, nil
}

// defend rewrites the draft to survive the critique.
func (s *adversarialStrategy) defend(ctx context.Context, rc *runContext, c combo, round int, draft, critique, system string) (string, error) {
	step := fmt.Sprintf("defend round %d %s", round, c.label())
	prompt := prompts.Format(prompts.MustGet("user.json", "adversarial-defend"), map[string]string{
		"Critique": critique,
		"Draft":    draft,
	})

	result, err := s.e.generate(ctx, rc, step, system, prompt, "defend", c)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}
