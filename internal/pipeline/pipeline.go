package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jordan/content-forge/internal/ingestion"
	"github.com/jordan/content-forge/internal/llm"
	"github.com/jordan/content-forge/internal/prompts"
	"github.com/jordan/content-forge/internal/refinement"
	"github.com/jordan/content-forge/internal/research"
	"github.com/jordan/content-forge/internal/scoring"
	"github.com/jordan/content-forge/internal/store"
	"github.com/jordan/content-forge/internal/types"
)

// Progress milestones. Research takes the first quarter, generation and
// scoring the bulk, storage the tail.
const (
	progressInsights   = 10
	progressResearch   = 25
	progressGeneration = 90
	progressStoring    = 95
)

// Deps collects the collaborators an Engine orchestrates.
type Deps struct {
	Client    llm.Client
	Store     store.Store
	Bundler   *research.Bundler
	Extractor *ingestion.Extractor
	Scorer    *scoring.Scorer
	Refiner   *refinement.Refiner
	Grounding *refinement.GroundingValidator
	Banned    *prompts.BannedPhrases
	Voices    map[string]*types.VoiceProfile
	Log       *logrus.Logger

	// MaxRefineIterations bounds the refinement loop per variant.
	MaxRefineIterations int
}

// Engine runs generation jobs end to end.
type Engine struct {
	client    llm.Client
	store     store.Store
	bundler   *research.Bundler
	extractor *ingestion.Extractor
	scorer    *scoring.Scorer
	refiner   *refinement.Refiner
	grounding *refinement.GroundingValidator
	banned    *prompts.BannedPhrases
	voices    map[string]*types.VoiceProfile
	validate  *validator.Validate
	log       *logrus.Entry

	maxRefineIterations int
}

func NewEngine(deps Deps) *Engine {
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	iterations := deps.MaxRefineIterations
	if iterations <= 0 {
		iterations = refinement.DefaultMaxIterations
	}
	return &Engine{
		client:              deps.Client,
		store:               deps.Store,
		bundler:             deps.Bundler,
		extractor:           deps.Extractor,
		scorer:              deps.Scorer,
		refiner:             deps.Refiner,
		grounding:           deps.Grounding,
		banned:              deps.Banned,
		voices:              deps.Voices,
		validate:            validator.New(),
		log:                 log.WithField("component", "pipeline"),
		maxRefineIterations: iterations,
	}
}

// combo is one asset-type and voice pairing a job must produce a variant
// for.
type combo struct {
	assetType string
	voice     *types.VoiceProfile
}

func (c combo) label() string {
	return c.assetType + "/" + c.voice.Slug
}

// runContext carries per-job state shared by a strategy's stages.
type runContext struct {
	sub     *types.Submission
	tracker *Tracker
	jobID   string
	combos  []combo

	insights    *types.ProductInsights
	evidence    *types.EvidenceBundle
	competitive string
}

func (rc *runContext) contextFacts() []string {
	return ingestion.ContextFacts(rc.insights)
}

func (rc *runContext) personaContext(c combo) scoring.PersonaContext {
	domain := ""
	if rc.insights != nil {
		domain = rc.insights.Domain
	}
	return scoring.PersonaContext{VoiceID: c.voice.ID, Domain: domain, JobID: rc.jobID}
}

// Run executes one submission end to end and returns the final job snapshot
// plus the emitted variants. The returned job is failed rather than an error
// being propagated when the pipeline itself breaks; the error return is for
// the caller's convenience.
func (e *Engine) Run(ctx context.Context, sub *types.Submission) (*types.Job, []*types.Variant, error) {
	job := NewJob()
	tracker := NewTracker(job, e.store, e.log.WithField("job", job.ID.String()))

	if err := e.validate.Struct(sub); err != nil {
		err = fmt.Errorf("invalid submission: %w", err)
		tracker.Fail(err)
		return tracker.Snapshot(), nil, err
	}

	combos, err := e.resolveCombos(sub)
	if err != nil {
		tracker.Fail(err)
		return tracker.Snapshot(), nil, err
	}

	strategy := e.selectStrategy(sub.Pipeline)
	e.log.WithFields(logrus.Fields{
		"job":      job.ID.String(),
		"strategy": strategy.Name(),
		"combos":   len(combos),
	}).Info("starting generation job")

	rc := &runContext{
		sub:     sub,
		tracker: tracker,
		jobID:   job.ID.String(),
		combos:  combos,
	}

	variants, err := strategy.Run(ctx, rc)
	if err != nil {
		tracker.Fail(err)
		return tracker.Snapshot(), nil, err
	}

	tracker.SetStatus(types.JobStatusStore)
	tracker.AdvanceProgress(progressStoring)
	for _, v := range variants {
		if err := e.store.SaveVariant(ctx, v); err != nil {
			err = fmt.Errorf("failed to store variant %s: %w", v.ID, err)
			tracker.Fail(err)
			return tracker.Snapshot(), variants, err
		}
	}

	tracker.Complete()
	return tracker.Snapshot(), variants, nil
}

func (e *Engine) resolveCombos(sub *types.Submission) ([]combo, error) {
	var combos []combo
	for _, voiceID := range sub.VoiceProfileIDs {
		voice, ok := e.voices[voiceID]
		if !ok {
			return nil, fmt.Errorf("unknown voice profile %q", voiceID)
		}
		for _, assetType := range sub.AssetTypes {
			combos = append(combos, combo{assetType: assetType, voice: voice})
		}
	}
	return combos, nil
}

// prepare runs the research phase: insight extraction, then community and
// competitive research concurrently. Research failures degrade to an empty
// evidence bundle; only insight extraction is fatal.
func (e *Engine) prepare(ctx context.Context, rc *runContext, withCommunity, withCompetitive bool) error {
	rc.tracker.SetStatus(types.JobStatusResearch)

	rc.tracker.StartStep("extract-insights", "")
	insights, err := e.extractor.ExtractInsights(ctx, rc.sub.ProductDocs, rc.jobID)
	if err != nil {
		return err
	}
	rc.insights = insights
	rc.tracker.CompleteStep("extract-insights", insights.Summary, nil)
	rc.tracker.AdvanceProgress(progressInsights)

	rc.evidence = types.EmptyEvidenceBundle()

	var wg sync.WaitGroup
	if withCommunity {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rc.tracker.StartStep("community-research", "")
			bundle := e.bundler.RunCommunityResearch(ctx, insights, rc.sub.Prompt, func(status string) {
				e.log.WithField("job", rc.jobID).Debug(status)
			})
			rc.evidence = bundle
			rc.tracker.CompleteStep("community-research", bundle.Context, nil)
		}()
	}
	if withCompetitive {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rc.tracker.StartStep("competitive-research", "")
			rc.competitive = e.bundler.RunCompetitiveResearch(ctx, insights, rc.sub.Prompt)
			rc.tracker.CompleteStep("competitive-research", rc.competitive, nil)
		}()
	}
	wg.Wait()

	rc.tracker.AdvanceProgress(progressResearch)
	return nil
}

// drafter produces the draft content for one combination, emitting its own
// step events for every internal stage.
type drafter func(ctx context.Context, rc *runContext, c combo) (content string, prompt *types.GenerationPrompt, err error)

// generateCombos runs the generation, scoring, and refinement phases for
// every combination concurrently. Any combination error fails the whole job.
func (e *Engine) generateCombos(ctx context.Context, rc *runContext, draft drafter, withRefinement bool) ([]*types.Variant, error) {
	rc.tracker.SetStatus(types.JobStatusGenerate)

	var (
		mu       sync.Mutex
		variants []*types.Variant
		done     int
		firstErr error
		wg       sync.WaitGroup
	)

	for _, c := range rc.combos {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			variant, err := e.runCombination(ctx, rc, c, draft, withRefinement)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("combination %s: %w", c.label(), err)
				}
				return
			}
			variants = append(variants, variant)
			done++
			span := progressGeneration - progressResearch
			rc.tracker.AdvanceProgress(progressResearch + span*done/len(rc.combos))
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return variants, nil
}

func (e *Engine) runCombination(ctx context.Context, rc *runContext, c combo, draft drafter, withRefinement bool) (*types.Variant, error) {
	content, prompt, err := draft(ctx, rc, c)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty draft")
	}
	return e.finalize(ctx, rc, c, content, prompt, withRefinement)
}

// finalize scores a draft, refines it if it fails gates, applies grounding
// validation, and assembles the stored variant.
func (e *Engine) finalize(ctx context.Context, rc *runContext, c combo, content string, prompt *types.GenerationPrompt, withRefinement bool) (*types.Variant, error) {
	label := c.label()
	thresholds := c.voice.Thresholds.WithDefaults()
	pc := rc.personaContext(c)

	rc.tracker.SetStatus(types.JobStatusScore)
	rc.tracker.StartStep("score "+label, "")
	scores := e.scorer.Score(ctx, content, rc.contextFacts(), pc)
	rc.tracker.CompleteStep("score "+label, content, scores)

	passes := scoring.CheckQualityGates(scores, thresholds)
	needsReview := false

	if withRefinement && !passes {
		rc.tracker.StartStep("refine "+label, "")
		result := e.refiner.Refine(ctx, content, refinement.Context{
			InitialScores:  scores,
			ProductContext: rc.contextFacts(),
			Persona:        pc,
			Combination:    label,
		}, thresholds, c.voice, e.maxRefineIterations)
		content = result.Content
		scores = result.Scores
		passes = result.PassesGates
		needsReview = result.NeedsManualReview
		rc.tracker.CompleteStep("refine "+label, content, scores)
	}

	level := types.EvidenceProductOnly
	var quotes []types.PractitionerQuote
	if rc.evidence != nil {
		level = rc.evidence.Level
		quotes = rc.evidence.Quotes
	}

	if withRefinement {
		check := e.grounding.Validate(ctx, content, level, rc.jobID)
		if check.FabricationStripped {
			rc.tracker.StartStep("grounding-strip "+label, "")
			content = check.StrippedContent
			rc.tracker.CompleteStep("grounding-strip "+label, content, nil)
		}
	}

	if prompt == nil {
		prompt = &types.GenerationPrompt{Timestamp: time.Now().UTC()}
	}

	return &types.Variant{
		ID:          uuid.New(),
		JobID:       uuid.MustParse(rc.jobID),
		AssetType:   c.assetType,
		VoiceID:     c.voice.ID,
		Content:     content,
		Scores:      *scores,
		PassesGates: passes,
		NeedsReview: needsReview,
		Traceability: types.Traceability{
			PractitionerQuotes: quotes,
			EvidenceLevel:      level,
			GenerationPrompt:   *prompt,
		},
		CreatedAt: time.Now().UTC(),
	}, nil
}

// generate issues one draft-generation call, recording a step event around
// it.
func (e *Engine) generate(ctx context.Context, rc *runContext, step, system, user, purpose string, c combo) (*llm.Result, error) {
	rc.tracker.StartStep(step, rc.sub.Model)
	result, err := e.client.Generate(ctx, user, llm.Options{
		SystemPrompt: system,
		Model:        rc.sub.Model,
		Tier:         llm.TierAdvanced,
		Meta:         llm.CallMeta{JobID: rc.jobID, Purpose: purpose, Combination: c.label()},
	})
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", step, err)
	}
	if strings.TrimSpace(result.Text) == "" {
		return nil, fmt.Errorf("%s returned empty content", step)
	}
	rc.tracker.CompleteGeneration(step, result.Model, result.Text)
	return result, nil
}

// newPrompt captures truncated prompt provenance for a variant.
func newPrompt(system, user string) *types.GenerationPrompt {
	return &types.GenerationPrompt{
		System:    llm.Truncate(system, maxDraftSnapshot),
		User:      llm.Truncate(user, maxDraftSnapshot),
		Timestamp: time.Now().UTC(),
	}
}
