package refinement

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordan/content-forge/internal/llm"
	"github.com/jordan/content-forge/internal/scoring"
	"github.com/jordan/content-forge/internal/types"
)

type MockLLMClient struct {
	mu    sync.Mutex
	calls []llm.CallMeta

	GenerateFunc     func(ctx context.Context, prompt string, opts llm.Options) (*llm.Result, error)
	GenerateJSONFunc func(ctx context.Context, prompt string, out any, opts llm.JSONOptions) (*llm.Result, error)
}

func (m *MockLLMClient) record(meta llm.CallMeta) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, meta)
}

func (m *MockLLMClient) Purposes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.Purpose
	}
	return out
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string, opts llm.Options) (*llm.Result, error) {
	m.record(opts.Meta)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, opts)
	}
	return &llm.Result{Text: "rewritten content", Model: "mock-model"}, nil
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, out any, opts llm.JSONOptions) (*llm.Result, error) {
	m.record(opts.Meta)
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, out, opts)
	}
	return respondJSON(out, `{"score": 4}`)
}

func (m *MockLLMClient) GenerateGrounded(ctx context.Context, prompt string, opts llm.Options) (*llm.GroundedResult, error) {
	m.record(opts.Meta)
	return &llm.GroundedResult{Result: llm.Result{Text: "findings"}}, nil
}

func (m *MockLLMClient) Close() error { return nil }

func respondJSON(out any, payload string) (*llm.Result, error) {
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return nil, err
	}
	return &llm.Result{Text: payload, Model: "mock-model"}, nil
}

// failingScores fails the authenticity floor but stays under the slop
// ceiling, so refinement runs without the slop-removal pre-pass.
func failingScores() *types.ScoreResult {
	return &types.ScoreResult{
		Slop:         3,
		VendorSpeak:  3,
		Authenticity: 4,
		Specificity:  7,
		PersonaAvg:   7,
		NarrativeArc: 7,
	}
}

func newTestRefiner(mock *MockLLMClient) *Refiner {
	scorer := scoring.NewScorer(mock, scoring.NewPersonaCache(), nil)
	return NewRefiner(mock, scorer, nil)
}

func TestRefineSkipsWhenScorersUnreliable(t *testing.T) {
	mock := &MockLLMClient{}
	refiner := newTestRefiner(mock)

	scores := failingScores()
	scores.Health.Failed = []string{"slop", "narrativeArc"}

	result := refiner.Refine(context.Background(), "original", Context{InitialScores: scores}, types.ScoringThresholds{}, nil, 3)

	assert.True(t, result.NeedsManualReview)
	assert.Equal(t, "original", result.Content)
	assert.Zero(t, result.Iterations)
	assert.Empty(t, mock.Purposes(), "no model calls when refinement is skipped")
}

func TestRefineStopsOnPlateauKeepingBetterContent(t *testing.T) {
	mock := &MockLLMClient{}
	// Every re-score comes back identical, so the composite never improves.
	mock.GenerateJSONFunc = func(_ context.Context, _ string, out any, _ llm.JSONOptions) (*llm.Result, error) {
		return respondJSON(out, `{"score": 4}`)
	}
	refiner := newTestRefiner(mock)

	result := refiner.Refine(context.Background(), "original", Context{InitialScores: failingScores()}, types.ScoringThresholds{}, nil, 3)

	assert.Equal(t, "original", result.Content, "plateau keeps the best-scoring content, not the last generated")
	assert.False(t, result.PassesGates)
	assert.False(t, result.NeedsManualReview)
	assert.Equal(t, 1, result.Iterations)
}

func TestRefineAdoptsImprovedContent(t *testing.T) {
	mock := &MockLLMClient{}
	mock.GenerateFunc = func(_ context.Context, _ string, opts llm.Options) (*llm.Result, error) {
		return &llm.Result{Text: "v2 improved draft", Model: "mock-model"}, nil
	}
	mock.GenerateJSONFunc = func(_ context.Context, prompt string, out any, _ llm.JSONOptions) (*llm.Result, error) {
		// Judges see the draft embedded in their prompt.
		if strings.Contains(prompt, "v2 improved draft") {
			return respondJSON(out, `{"score": 8}`)
		}
		return respondJSON(out, `{"score": 4}`)
	}
	refiner := newTestRefiner(mock)

	result := refiner.Refine(context.Background(), "original", Context{InitialScores: failingScores()}, types.ScoringThresholds{}, nil, 3)

	assert.Equal(t, "v2 improved draft", result.Content)
	assert.True(t, result.PassesGates)
	assert.Equal(t, 1, result.Iterations)
}

func TestRefineTerminatesWithinMaxIterations(t *testing.T) {
	generations := 0
	mock := &MockLLMClient{}
	mock.GenerateFunc = func(_ context.Context, _ string, _ llm.Options) (*llm.Result, error) {
		generations++
		return &llm.Result{Text: "attempt", Model: "mock-model"}, nil
	}
	// Re-scores alternate slightly upward so the loop keeps going until the
	// iteration ceiling.
	mock.GenerateJSONFunc = func(_ context.Context, prompt string, out any, _ llm.JSONOptions) (*llm.Result, error) {
		return respondJSON(out, `{"score": 4}`)
	}
	refiner := newTestRefiner(mock)

	result := refiner.Refine(context.Background(), "original", Context{InitialScores: failingScores()}, types.ScoringThresholds{}, nil, 3)
	assert.LessOrEqual(t, result.Iterations, 3)
	assert.LessOrEqual(t, generations, 3)
}

func TestRefineRunsSlopRemovalFirst(t *testing.T) {
	mock := &MockLLMClient{}
	refiner := newTestRefiner(mock)

	scores := failingScores()
	scores.Slop = 8 // over the default ceiling

	refiner.Refine(context.Background(), "original", Context{InitialScores: scores}, types.ScoringThresholds{}, nil, 1)

	purposes := mock.Purposes()
	require.NotEmpty(t, purposes)
	slopIdx, refineIdx := -1, -1
	for i, p := range purposes {
		if p == "refine:slop-removal" && slopIdx == -1 {
			slopIdx = i
		}
		if p == "refine" && refineIdx == -1 {
			refineIdx = i
		}
	}
	require.NotEqual(t, -1, slopIdx, "slop-removal pass must run")
	require.NotEqual(t, -1, refineIdx, "refinement pass must run")
	assert.Less(t, slopIdx, refineIdx, "slop-removal runs before the refinement call")
}

func TestRefineGenerationFailureKeepsLastGoodContent(t *testing.T) {
	mock := &MockLLMClient{}
	mock.GenerateFunc = func(_ context.Context, _ string, _ llm.Options) (*llm.Result, error) {
		return nil, errors.New("backend exploded")
	}
	refiner := newTestRefiner(mock)

	result := refiner.Refine(context.Background(), "original", Context{InitialScores: failingScores()}, types.ScoringThresholds{}, nil, 3)

	assert.Equal(t, "original", result.Content)
	assert.False(t, result.PassesGates)
	assert.False(t, result.NeedsManualReview)
}
