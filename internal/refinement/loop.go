// Package refinement iteratively rewrites content that fails quality gates
// and strips fabricated community references from ungrounded output.
package refinement

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jordan/content-forge/internal/llm"
	"github.com/jordan/content-forge/internal/prompts"
	"github.com/jordan/content-forge/internal/scoring"
	"github.com/jordan/content-forge/internal/types"
)

// DefaultMaxIterations bounds the refine-and-rescore loop.
const DefaultMaxIterations = 3

// minReliableScorers is the number of scorer failures at which refinement is
// skipped: refining against unreliable scores is worse than surfacing the
// content for human review.
const minReliableScorers = 2

// Context carries everything a refinement pass needs beyond the content
// itself.
type Context struct {
	InitialScores  *types.ScoreResult
	ProductContext []string
	Persona        scoring.PersonaContext
	Combination    string
}

// Result is the outcome of a refinement pass. Content is always the
// best-scoring version seen, never a later version that scored worse.
type Result struct {
	Content           string
	Scores            *types.ScoreResult
	PassesGates       bool
	NeedsManualReview bool
	Iterations        int
}

// Refiner drives the generate-score-refine loop.
type Refiner struct {
	client llm.Client
	scorer *scoring.Scorer
	log    *logrus.Entry
}

func NewRefiner(client llm.Client, scorer *scoring.Scorer, log *logrus.Logger) *Refiner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Refiner{
		client: client,
		scorer: scorer,
		log:    log.WithField("component", "refinement"),
	}
}

// Refine improves content until it passes the voice's quality gates, the
// composite score plateaus, or maxIterations is exhausted. Generation
// failures inside the loop abort it, keeping the last good content.
func (r *Refiner) Refine(ctx context.Context, content string, rc Context, thresholds types.ScoringThresholds, voice *types.VoiceProfile, maxIterations int) *Result {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	t := thresholds.WithDefaults()

	best := content
	bestScores := rc.InitialScores
	if bestScores == nil {
		bestScores = r.scorer.Score(ctx, content, rc.ProductContext, rc.Persona)
	}

	if bestScores.Health.FailedCount() >= minReliableScorers {
		r.log.WithField("failed", bestScores.Health.Failed).
			Warn("skipping refinement, too many scorers degraded")
		return &Result{
			Content:           best,
			Scores:            bestScores,
			PassesGates:       scoring.CheckQualityGates(bestScores, t),
			NeedsManualReview: true,
		}
	}

	iterations := 0
	for i := 0; i < maxIterations; i++ {
		if scoring.CheckQualityGates(bestScores, t) {
			break
		}
		iterations++

		candidate := best
		if bestScores.Slop > t.SlopMax {
			cleaned, err := r.rewrite(ctx, "slop-removal", map[string]string{
				"Content": candidate,
			}, voice, rc, "refine:slop-removal")
			if err != nil {
				r.log.Warnf("slop-removal call failed, keeping current content: %v", err)
				break
			}
			candidate = cleaned
		}

		instructions := buildInstructions(bestScores, t)
		refined, err := r.rewrite(ctx, "refine", map[string]string{
			"Instructions": instructions,
			"Content":      candidate,
		}, voice, rc, "refine")
		if err != nil {
			r.log.Warnf("refinement call failed, keeping current content: %v", err)
			break
		}

		newScores := r.scorer.Score(ctx, refined, rc.ProductContext, rc.Persona)
		if scoring.TotalQualityScore(newScores) <= scoring.TotalQualityScore(bestScores) {
			r.log.WithFields(logrus.Fields{
				"iteration": iterations,
				"best":      scoring.TotalQualityScore(bestScores),
				"candidate": scoring.TotalQualityScore(newScores),
			}).Info("refinement plateaued")
			break
		}
		best = refined
		bestScores = newScores
	}

	return &Result{
		Content:     best,
		Scores:      bestScores,
		PassesGates: scoring.CheckQualityGates(bestScores, t),
		Iterations:  iterations,
	}
}

func (r *Refiner) rewrite(ctx context.Context, promptKey string, data map[string]string, voice *types.VoiceProfile, rc Context, purpose string) (string, error) {
	template, err := prompts.Get("refinement.json", promptKey)
	if err != nil {
		return "", fmt.Errorf("loading %s prompt: %w", promptKey, err)
	}
	prompt := prompts.Format(template, data)

	opts := llm.Options{
		Tier: llm.TierStandard,
		Meta: llm.CallMeta{JobID: rc.Persona.JobID, Purpose: purpose, Combination: rc.Combination},
	}
	if voice != nil {
		opts.SystemPrompt = voice.Guide
	}

	result, err := r.client.Generate(ctx, prompt, opts)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(result.Text)
	if text == "" {
		return "", fmt.Errorf("%s call returned empty content", promptKey)
	}
	return text, nil
}

// buildInstructions turns each failing dimension into one targeted line
// naming the current score, the threshold, and the required direction.
func buildInstructions(scores *types.ScoreResult, t types.ScoringThresholds) string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf("- "+format, args...))
	}

	for _, dim := range scoring.FailingDimensions(scores, t) {
		switch dim {
		case scoring.DimensionSlop:
			add("slop is %.1f but must be at or below %.1f: cut filler phrases, hedging, and generic claims", scores.Slop, t.SlopMax)
		case scoring.DimensionVendorSpeak:
			add("vendor-speak is %.1f but must be at or below %.1f: replace marketing buzzwords with plain operator language", scores.VendorSpeak, t.VendorSpeakMax)
		case scoring.DimensionAuthenticity:
			add("authenticity is %.1f but must reach %.1f: write like a practitioner describing their own experience", scores.Authenticity, t.AuthenticityMin)
		case scoring.DimensionSpecificity:
			add("specificity is %.1f but must reach %.1f: add concrete capabilities, numbers, and named workflows from the product context", scores.Specificity, t.SpecificityMin)
		case scoring.DimensionPersona:
			add("persona resonance is %.1f but must reach %.1f: address the target reader's actual daily problems", scores.PersonaAvg, t.PersonaMin)
		case scoring.DimensionNarrativeArc:
			add("narrative arc is %.1f but must reach %.1f: give the piece a clear tension-to-resolution progression", scores.NarrativeArc, t.NarrativeArcMin)
		}
	}
	return strings.Join(lines, "\n")
}
