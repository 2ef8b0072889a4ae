package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jordan/content-forge/internal/prompts"
	"github.com/jordan/content-forge/internal/types"
)

// multiPerspectiveStrategy produces three parallel stylistic rewrites of an
// initial draft and synthesizes the strongest elements of each into one
// piece.
type multiPerspectiveStrategy struct {
	e *Engine
}

func (s *multiPerspectiveStrategy) Name() string { return types.PipelineMultiPerspective }

func (s *multiPerspectiveStrategy) Run(ctx context.Context, rc *runContext) ([]*types.Variant, error) {
	if err := s.e.prepare(ctx, rc, true, false); err != nil {
		return nil, err
	}
	return s.e.generateCombos(ctx, rc, s.draft, true)
}

func (s *multiPerspectiveStrategy) draft(ctx context.Context, rc *runContext, c combo) (string, *types.GenerationPrompt, error) {
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

	initial, err := s.e.generate(ctx, rc, "draft "+c.label(), system, user, "draft", c)
	if err != nil {
		return "", nil, err
	}

	rewrites := []struct {
		key   string
		label string
		data  map[string]string
	}{
		{"perspective-empathy", "empathy", map[string]string{"Draft": initial.Text}},
		{"perspective-competitive", "competitive", map[string]string{"Draft": initial.Text}},
		{"perspective-thought-leadership", "thought-leadership", map[string]string{
			"Draft":  initial.Text,
			"Domain": rc.insights.Domain,
		}},
	}

	results := make([]string, len(rewrites))
	g, gctx := errgroup.WithContext(ctx)
	for i, rw := range rewrites {
		i, rw := i, rw
		g.Go(func() error {
			step := fmt.Sprintf("perspective %s %s", rw.label, c.label())
			prompt := prompts.Format(prompts.MustGet("user.json", rw.key), rw.data)
			result, err := s.e.generate(gctx, rc, step, system, prompt, "perspective:"+rw.label, c)
			if err != nil {
				return err
			}
			results[i] = result.Text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, err
	}

	synthPrompt := prompts.Format(prompts.MustGet("user.json", "perspective-synthesis"), map[string]string{
		"Empathy":           results[0],
		"Competitive":       results[1],
		"ThoughtLeadership": results[2],
	})
	synthesis, err := s.e.generate(ctx, rc, "synthesis "+c.label(), system, synthPrompt, "synthesis", c)
	if err != nil {
		return "", nil, err
	}

	return synthesis.Text, newPrompt(system, user), nil
}
