package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/jordan/content-forge/internal/llm"
	"github.com/jordan/content-forge/internal/prompts"
)

// judgeReply is the expected JSON shape of every model-judged dimension.
type judgeReply struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// maxJudgeContent bounds how much content a judge prompt carries.
const maxJudgeContent = 8000

// judgeScore runs one model-judged dimension and clamps the result to
// [0,10].
func judgeScore(ctx context.Context, client llm.Client, promptKey string, data map[string]string, meta llm.CallMeta) (float64, error) {
	prompt := prompts.Format(prompts.MustGet("scoring.json", promptKey), data)

	var reply judgeReply
	_, err := client.GenerateJSON(ctx, prompt, &reply, llm.JSONOptions{
		Options: llm.Options{Tier: llm.TierLite, Meta: meta},
	})
	if err != nil {
		return 0, fmt.Errorf("judge %s failed: %w", promptKey, err)
	}

	return clampScore(reply.Score), nil
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

// renderProductContext flattens supplied product facts for judge prompts.
func renderProductContext(productContext []string) string {
	if len(productContext) == 0 {
		return "(no product facts supplied)"
	}
	return "- " + strings.Join(productContext, "\n- ")
}
