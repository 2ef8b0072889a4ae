package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/jordan/content-forge/internal/types"
)

// ErrNoExistingContent is returned when the straight-through strategy is
// selected without existing messaging to score.
var ErrNoExistingContent = errors.New("straight-through pipeline requires existing messaging")

// straightThroughStrategy scores caller-supplied content as-is: no research,
// no generation, no refinement. The stored variant's content is byte-for-byte
// the submitted text.
type straightThroughStrategy struct {
	e *Engine
}

func (s *straightThroughStrategy) Name() string { return types.PipelineStraightThrough }

func (s *straightThroughStrategy) Run(ctx context.Context, rc *runContext) ([]*types.Variant, error) {
	if strings.TrimSpace(rc.sub.ExistingContent) == "" {
		return nil, ErrNoExistingContent
	}

	rc.evidence = types.EmptyEvidenceBundle()
	rc.tracker.AdvanceProgress(progressResearch)

	return s.e.generateCombos(ctx, rc, s.draft, false)
}

func (s *straightThroughStrategy) draft(_ context.Context, rc *runContext, _ combo) (string, *types.GenerationPrompt, error) {
	return rc.sub.ExistingContent, nil, nil
}
