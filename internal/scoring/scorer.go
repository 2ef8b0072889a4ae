package scoring

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jordan/content-forge/internal/llm"
	"github.com/jordan/content-forge/internal/types"
)

// Dimension names recorded in scorer health.
const (
	DimensionSlop         = "slop"
	DimensionVendorSpeak  = "vendorSpeak"
	DimensionAuthenticity = "authenticity"
	DimensionSpecificity  = "specificity"
	DimensionPersona      = "persona"
	DimensionNarrativeArc = "narrativeArc"
)

// neutralScore is substituted for any dimension whose scorer failed.
const neutralScore = 5.0

// PersonaContext selects which critic panel scores the content.
type PersonaContext struct {
	VoiceID string
	Domain  string
	JobID   string
}

// Scorer runs the quality scoring ensemble.
type Scorer struct {
	client   llm.Client
	personas *PersonaCache
	log      *logrus.Entry
}

// NewScorer builds a scorer over a dispatcher client and an injected
// persona cache.
func NewScorer(client llm.Client, personas *PersonaCache, log *logrus.Logger) *Scorer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if personas == nil {
		personas = NewPersonaCache()
	}
	return &Scorer{
		client:   client,
		personas: personas,
		log:      log.WithField("component", "scoring"),
	}
}

// Score runs all six quality dimensions concurrently and never raises: any
// scorer failure is caught locally, substituting the neutral default and
// recording the dimension in scorer health.
//
// Authenticity is computed by its own judge, never derived from vendor-speak.
func (s *Scorer) Score(ctx context.Context, content string, productContext []string, pc PersonaContext) *types.ScoreResult {
	result := &types.ScoreResult{}

	truncated := llm.Truncate(content, maxJudgeContent)
	meta := func(purpose string) llm.CallMeta {
		return llm.CallMeta{JobID: pc.JobID, Purpose: purpose}
	}

	type dimension struct {
		name string
		run  func(ctx context.Context) (float64, error)
		dest *float64
	}

	dimensions := []dimension{
		{
			name: DimensionSlop,
			dest: &result.Slop,
			run: func(ctx context.Context) (float64, error) {
				modelScore, err := judgeScore(ctx, s.client, "judge-slop", map[string]string{
					"Content": truncated,
				}, meta("score:slop"))
				if err != nil {
					return 0, err
				}
				return SlopPatternWeight*patternSlopScore(content) + SlopModelWeight*modelScore, nil
			},
		},
		{
			name: DimensionVendorSpeak,
			dest: &result.VendorSpeak,
			run: func(ctx context.Context) (float64, error) {
				modelScore, err := judgeScore(ctx, s.client, "judge-vendor-speak", map[string]string{
					"Content": truncated,
				}, meta("score:vendor-speak"))
				if err != nil {
					return 0, err
				}
				return VendorPatternWeight*patternVendorScore(content) + VendorModelWeight*modelScore, nil
			},
		},
		{
			name: DimensionAuthenticity,
			dest: &result.Authenticity,
			run: func(ctx context.Context) (float64, error) {
				return judgeScore(ctx, s.client, "judge-authenticity", map[string]string{
					"Content": truncated,
				}, meta("score:authenticity"))
			},
		},
		{
			name: DimensionSpecificity,
			dest: &result.Specificity,
			run: func(ctx context.Context) (float64, error) {
				return judgeScore(ctx, s.client, "judge-specificity", map[string]string{
					"Content":        truncated,
					"ProductContext": renderProductContext(productContext),
				}, meta("score:specificity"))
			},
		},
		{
			name: DimensionPersona,
			dest: &result.PersonaAvg,
			run: func(ctx context.Context) (float64, error) {
				return s.scorePersonas(ctx, content, pc)
			},
		},
		{
			name: DimensionNarrativeArc,
			dest: &result.NarrativeArc,
			run: func(ctx context.Context) (float64, error) {
				return judgeScore(ctx, s.client, "judge-narrative-arc", map[string]string{
					"Content": truncated,
				}, meta("score:narrative-arc"))
			},
		},
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := range dimensions {
		dim := dimensions[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			score, err := dim.run(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.Warnf("scorer %s failed, defaulting to %.0f: %v", dim.name, neutralScore, err)
				*dim.dest = neutralScore
				result.Health.Failed = append(result.Health.Failed, dim.name)
				return
			}
			*dim.dest = clampScore(score)
		}()
	}
	wg.Wait()

	return result
}
