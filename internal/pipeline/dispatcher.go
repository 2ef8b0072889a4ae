package pipeline

import (
	"context"

	"github.com/jordan/content-forge/internal/types"
)

// Strategy is one of the named multi-step generation flows. A strategy owns
// the whole research-generate-score-refine sequence for its job and emits
// step events for every internal stage.
type Strategy interface {
	Name() string
	Run(ctx context.Context, rc *runContext) ([]*types.Variant, error)
}

// selectStrategy maps a submission's pipeline key to its strategy. Unknown
// or empty keys fall back to standard.
func (e *Engine) selectStrategy(key string) Strategy {
	switch key {
	case types.PipelineOutsideIn:
		return &outsideInStrategy{e: e}
	case types.PipelineAdversarial:
		return &adversarialStrategy{e: e, rounds: adversarialRounds}
	case types.PipelineMultiPerspective:
		return &multiPerspectiveStrategy{e: e}
	case types.PipelineStraightThrough:
		return &straightThroughStrategy{e: e}
	default:
		return &standardStrategy{e: e}
	}
}
