package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordan/content-forge/internal/ingestion"
	"github.com/jordan/content-forge/internal/llm"
	"github.com/jordan/content-forge/internal/prompts"
	"github.com/jordan/content-forge/internal/refinement"
	"github.com/jordan/content-forge/internal/research"
	"github.com/jordan/content-forge/internal/scoring"
	"github.com/jordan/content-forge/internal/store"
	"github.com/jordan/content-forge/internal/types"
)

// MockLLMClient implements llm.Client for tests, dispatching on call
// purpose.
type MockLLMClient struct {
	mu    sync.Mutex
	calls []llm.CallMeta

	GenerateFunc         func(ctx context.Context, prompt string, opts llm.Options) (*llm.Result, error)
	GenerateJSONFunc     func(ctx context.Context, prompt string, out any, opts llm.JSONOptions) (*llm.Result, error)
	GenerateGroundedFunc func(ctx context.Context, prompt string, opts llm.Options) (*llm.GroundedResult, error)
}

func (m *MockLLMClient) record(meta llm.CallMeta) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, meta)
}

func (m *MockLLMClient) Calls() []llm.CallMeta {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.CallMeta(nil), m.calls...)
}

func (m *MockLLMClient) Purposes() []string {
	calls := m.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Purpose
	}
	return out
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string, opts llm.Options) (*llm.Result, error) {
	m.record(opts.Meta)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, opts)
	}
	return &llm.Result{Text: "mock content", Model: "mock-model"}, nil
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, out any, opts llm.JSONOptions) (*llm.Result, error) {
	m.record(opts.Meta)
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, out, opts)
	}
	return routeJSON(out, opts.Meta.Purpose)
}

func (m *MockLLMClient) GenerateGrounded(ctx context.Context, prompt string, opts llm.Options) (*llm.GroundedResult, error) {
	m.record(opts.Meta)
	if m.GenerateGroundedFunc != nil {
		return m.GenerateGroundedFunc(ctx, prompt, opts)
	}
	return &llm.GroundedResult{Result: llm.Result{Text: "mock findings", Model: "mock-model"}}, nil
}

func (m *MockLLMClient) Close() error { return nil }

func respondJSON(out any, payload string) (*llm.Result, error) {
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return nil, err
	}
	return &llm.Result{Text: payload, Model: "mock-model"}, nil
}

const insightsPayload = `{
	"name": "ShipFast",
	"domain": "devops",
	"category": "deployment tool",
	"summary": "ShipFast restarts stuck deploys automatically.",
	"capabilities": ["automatic restarts", "failure attribution"]
}`

// routeJSON answers structured calls by purpose with well-behaved defaults:
// insights extract, passing judge scores, and graceful failures for the
// optional generators so their fallback paths run.
func routeJSON(out any, purpose string) (*llm.Result, error) {
	switch {
	case purpose == "extract-insights":
		return respondJSON(out, insightsPayload)
	case purpose == "generate-personas":
		return nil, errors.New("persona generation unavailable")
	case purpose == "banned-phrases":
		return nil, errors.New("phrase generation unavailable")
	case purpose == "quote-extraction":
		return nil, errors.New("quote extraction unavailable")
	case purpose == "grounding-validate":
		return respondJSON(out, `{"fabricated_phrases": [], "cleaned_content": ""}`)
	case purpose == "score:slop" || purpose == "score:vendor-speak":
		return respondJSON(out, `{"score": 2, "reasoning": "little filler"}`)
	case strings.HasPrefix(purpose, "score:"):
		return respondJSON(out, `{"score": 8, "reasoning": "grounded"}`)
	default:
		return nil, fmt.Errorf("unhandled purpose %q", purpose)
	}
}

func testVoices() map[string]*types.VoiceProfile {
	return map[string]*types.VoiceProfile{
		"practitioner": {
			ID:    "practitioner",
			Name:  "Practitioner",
			Slug:  "practitioner",
			Guide: "Write plainly, like an engineer explaining a tool to a peer.",
		},
	}
}

func newTestEngine(mock llm.Client, st store.Store) *Engine {
	log := logrus.New()
	log.SetOutput(io.Discard)

	agent := research.NewGroundedAgent(mock, time.Millisecond, time.Second)
	scorer := scoring.NewScorer(mock, scoring.NewPersonaCache(), log)

	return NewEngine(Deps{
		Client:    mock,
		Store:     st,
		Bundler:   research.NewBundler(mock, agent, log),
		Extractor: ingestion.NewExtractor(mock, log),
		Scorer:    scorer,
		Refiner:   refinement.NewRefiner(mock, scorer, log),
		Grounding: refinement.NewGroundingValidator(mock, log),
		Banned:    prompts.NewBannedPhrases(mock, prompts.NewCache(0), log),
		Voices:    testVoices(),
		Log:       log,
	})
}

func testSubmission(pipeline string) *types.Submission {
	return &types.Submission{
		ProductDocs:     "ShipFast restarts stuck deploys and attributes failures to the breaking commit.",
		VoiceProfileIDs: []string{"practitioner"},
		AssetTypes:      []string{"blog-post"},
		Pipeline:        pipeline,
	}
}

func TestSelectStrategyFallsBackToStandard(t *testing.T) {
	e := newTestEngine(&MockLLMClient{}, store.NewMemory())

	assert.Equal(t, types.PipelineStandard, e.selectStrategy("").Name())
	assert.Equal(t, types.PipelineStandard, e.selectStrategy("definitely-not-a-pipeline").Name())

	for _, key := range []string{
		types.PipelineOutsideIn,
		types.PipelineAdversarial,
		types.PipelineMultiPerspective,
		types.PipelineStraightThrough,
	} {
		assert.Equal(t, key, e.selectStrategy(key).Name())
	}
}

func TestRunRejectsInvalidSubmission(t *testing.T) {
	mock := &MockLLMClient{}
	e := newTestEngine(mock, store.NewMemory())

	sub := testSubmission("")
	sub.AssetTypes = nil

	job, variants, err := e.Run(context.Background(), sub)
	require.Error(t, err)
	assert.Equal(t, types.JobStatusFailed, job.Status)
	assert.Empty(t, variants)
	assert.Empty(t, mock.Calls())
}

func TestRunRejectsUnknownVoice(t *testing.T) {
	mock := &MockLLMClient{}
	e := newTestEngine(mock, store.NewMemory())

	sub := testSubmission("")
	sub.VoiceProfileIDs = []string{"ghost"}

	job, _, err := e.Run(context.Background(), sub)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown voice profile")
	assert.Equal(t, types.JobStatusFailed, job.Status)
	assert.Empty(t, mock.Calls())
}

func TestStandardPipelineEmitsVariantPerCombination(t *testing.T) {
	mock := &MockLLMClient{}
	st := store.NewMemory()
	e := newTestEngine(mock, st)

	sub := testSubmission(types.PipelineStandard)
	sub.AssetTypes = []string{"blog-post", "email"}

	job, variants, err := e.Run(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.Len(t, variants, 2)

	seen := map[string]bool{}
	for _, v := range variants {
		seen[v.AssetType] = true
		assert.Equal(t, "practitioner", v.VoiceID)
		assert.Equal(t, "mock content", v.Content)
		assert.True(t, v.PassesGates)
		assert.NotEmpty(t, v.Traceability.GenerationPrompt.System)
	}
	assert.True(t, seen["blog-post"])
	assert.True(t, seen["email"])

	stored, err := st.ListVariants(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestStraightThroughScoresContentVerbatim(t *testing.T) {
	mock := &MockLLMClient{}
	e := newTestEngine(mock, store.NewMemory())

	existing := "Our deploy tool restarts stuck builds.\n\nIt names the breaking commit.  \nNo dashboard babysitting."
	sub := testSubmission(types.PipelineStraightThrough)
	sub.ExistingContent = existing

	job, variants, err := e.Run(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusCompleted, job.Status)
	require.Len(t, variants, 1)

	v := variants[0]
	assert.Equal(t, existing, v.Content, "content must be byte-identical to the submission")
	assert.Equal(t, types.EvidenceProductOnly, v.Traceability.EvidenceLevel)
	assert.True(t, v.PassesGates)

	// Every dimension was scored even though nothing was generated.
	assert.NotZero(t, v.Scores.Authenticity)
	assert.NotZero(t, v.Scores.Specificity)
	assert.NotZero(t, v.Scores.PersonaAvg)
	assert.NotZero(t, v.Scores.NarrativeArc)

	for _, p := range mock.Purposes() {
		assert.NotEqual(t, "draft", p)
		assert.NotEqual(t, "extract-insights", p)
		assert.NotEqual(t, "refine", p)
		assert.NotEqual(t, "grounding-validate", p)
	}
}

func TestStraightThroughWithoutContentFailsJob(t *testing.T) {
	mock := &MockLLMClient{}
	e := newTestEngine(mock, store.NewMemory())

	sub := testSubmission(types.PipelineStraightThrough)
	sub.ExistingContent = "   \n\t"

	job, variants, err := e.Run(context.Background(), sub)
	require.ErrorIs(t, err, ErrNoExistingContent)
	assert.Equal(t, types.JobStatusFailed, job.Status)
	assert.Empty(t, variants)
	assert.Empty(t, mock.Calls(), "no generation call may be issued before the content check")
}

func TestAdversarialRunsAttackDefendRounds(t *testing.T) {
	mock := &MockLLMClient{}
	e := newTestEngine(mock, store.NewMemory())

	job, variants, err := e.Run(context.Background(), testSubmission(types.PipelineAdversarial))
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusCompleted, job.Status)
	require.Len(t, variants, 1)

	var rounds []string
	for _, p := range mock.Purposes() {
		if p == "draft" || p == "attack" || p == "defend" {
			rounds = append(rounds, p)
		}
	}
	assert.Equal(t, []string{"draft", "attack", "defend", "attack", "defend"}, rounds)

	for _, step := range []string{
		"attack round 1 blog-post/practitioner",
		"defend round 1 blog-post/practitioner",
		"attack round 2 blog-post/practitioner",
		"defend round 2 blog-post/practitioner",
	} {
		ev := findStep(t, job.StepEvents, step)
		assert.Equal(t, types.StepStatusComplete, ev.Status)
		assert.Equal(t, "mock-model", ev.Model)
	}
}

func TestOutsideInSynthesizesPainWhenResearchIsEmpty(t *testing.T) {
	mock := &MockLLMClient{}
	e := newTestEngine(mock, store.NewMemory())

	job, variants, err := e.Run(context.Background(), testSubmission(types.PipelineOutsideIn))
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusCompleted, job.Status)
	require.Len(t, variants, 1)

	// Research found nothing, so pain is synthesized and the evidence level
	// is downgraded to partial rather than product-only.
	assert.Equal(t, types.EvidencePartial, variants[0].Traceability.EvidenceLevel)

	ev := findStep(t, job.StepEvents, "synthesize-pain")
	assert.Equal(t, types.StepStatusComplete, ev.Status)
	assert.Equal(t, "mock-model", ev.Model)

	purposes := mock.Purposes()
	assert.Contains(t, purposes, "synthesize-pain")
	assert.Contains(t, purposes, "draft")
	assert.Contains(t, purposes, "enrich")
	// Partial evidence skips the fabrication check.
	assert.NotContains(t, purposes, "grounding-validate")
}

func TestMultiPerspectiveRewritesAndSynthesizes(t *testing.T) {
	mock := &MockLLMClient{}
	mock.GenerateFunc = func(_ context.Context, _ string, opts llm.Options) (*llm.Result, error) {
		if opts.Meta.Purpose == "synthesis" {
			return &llm.Result{Text: "synthesized content", Model: "mock-model"}, nil
		}
		return &llm.Result{Text: "mock content", Model: "mock-model"}, nil
	}
	e := newTestEngine(mock, store.NewMemory())

	job, variants, err := e.Run(context.Background(), testSubmission(types.PipelineMultiPerspective))
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusCompleted, job.Status)
	require.Len(t, variants, 1)
	assert.Equal(t, "synthesized content", variants[0].Content)

	purposes := mock.Purposes()
	for _, want := range []string{
		"draft",
		"perspective:empathy",
		"perspective:competitive",
		"perspective:thought-leadership",
		"synthesis",
	} {
		assert.Contains(t, purposes, want)
	}
	// The synthesis waits on all three rewrites.
	var synthAt, lastRewrite int
	for i, p := range purposes {
		if strings.HasPrefix(p, "perspective:") {
			lastRewrite = i
		}
		if p == "synthesis" {
			synthAt = i
		}
	}
	assert.Greater(t, synthAt, lastRewrite)

	for _, step := range []string{
		"perspective empathy blog-post/practitioner",
		"perspective competitive blog-post/practitioner",
		"perspective thought-leadership blog-post/practitioner",
		"synthesis blog-post/practitioner",
	} {
		ev := findStep(t, job.StepEvents, step)
		assert.Equal(t, types.StepStatusComplete, ev.Status)
		assert.Equal(t, "mock-model", ev.Model)
	}
}

func TestRunFailsWhenVariantStorageFails(t *testing.T) {
	mock := &MockLLMClient{}
	e := newTestEngine(mock, &failingVariantStore{Store: store.NewMemory()})

	job, _, err := e.Run(context.Background(), testSubmission(types.PipelineStandard))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store variant")
	assert.Equal(t, types.JobStatusFailed, job.Status)
}

func TestRunFailsWhenDraftGenerationFails(t *testing.T) {
	mock := &MockLLMClient{}
	mock.GenerateFunc = func(_ context.Context, _ string, opts llm.Options) (*llm.Result, error) {
		if opts.Meta.Purpose == "draft" {
			return nil, errors.New("model unavailable")
		}
		return &llm.Result{Text: "mock content", Model: "mock-model"}, nil
	}
	e := newTestEngine(mock, store.NewMemory())

	job, variants, err := e.Run(context.Background(), testSubmission(types.PipelineStandard))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "combination blog-post/practitioner")
	assert.Equal(t, types.JobStatusFailed, job.Status)
	assert.Empty(t, variants)
}

// findStep returns the first event with the given step name.
func findStep(t *testing.T, events []types.StepEvent, name string) types.StepEvent {
	t.Helper()
	for _, ev := range events {
		if ev.Step == name {
			return ev
		}
	}
	t.Fatalf("no step event named %q", name)
	return types.StepEvent{}
}

// failingVariantStore persists job snapshots but refuses variants.
type failingVariantStore struct {
	store.Store
}

func (s *failingVariantStore) SaveVariant(context.Context, *types.Variant) error {
	return errors.New("disk full")
}
