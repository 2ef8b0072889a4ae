package refinement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordan/content-forge/internal/llm"
	"github.com/jordan/content-forge/internal/types"
)

const fabricated = `Deploys used to take an hour. As one engineer on r/devops noted, "this tool saved our weekend." Now they take minutes.`

func TestValidateEvidenceBackedContentSkipsCheck(t *testing.T) {
	mock := &MockLLMClient{}
	v := NewGroundingValidator(mock, nil)

	for _, level := range []types.EvidenceLevel{types.EvidenceStrong, types.EvidencePartial} {
		result := v.Validate(context.Background(), fabricated, level, "job-1")
		assert.False(t, result.FabricationStripped)
		assert.Empty(t, result.StrippedContent)
	}
	assert.Empty(t, mock.Purposes(), "no model call for evidence-backed content")
}

func TestValidateStripsFabricatedReferences(t *testing.T) {
	mock := &MockLLMClient{}
	mock.GenerateJSONFunc = func(_ context.Context, _ string, out any, opts llm.JSONOptions) (*llm.Result, error) {
		require.Equal(t, "grounding-validate", opts.Meta.Purpose)
		return respondJSON(out, `{
			"fabricated_phrases": ["As one engineer on r/devops noted, \"this tool saved our weekend.\""],
			"cleaned_content": "Deploys used to take an hour. Now they take minutes."
		}`)
	}
	v := NewGroundingValidator(mock, nil)

	result := v.Validate(context.Background(), fabricated, types.EvidenceProductOnly, "job-1")

	assert.True(t, result.FabricationStripped)
	assert.NotContains(t, result.StrippedContent, "r/devops")
	assert.Len(t, result.FabricatedPhrases, 1)
}

func TestValidateCleanContentReportsNothing(t *testing.T) {
	mock := &MockLLMClient{}
	mock.GenerateJSONFunc = func(_ context.Context, _ string, out any, _ llm.JSONOptions) (*llm.Result, error) {
		return respondJSON(out, `{"fabricated_phrases": [], "cleaned_content": "unchanged"}`)
	}
	v := NewGroundingValidator(mock, nil)

	result := v.Validate(context.Background(), "a factual sentence", types.EvidenceProductOnly, "job-1")
	assert.False(t, result.FabricationStripped)
}

func TestValidateFailsOpen(t *testing.T) {
	mock := &MockLLMClient{}
	mock.GenerateJSONFunc = func(_ context.Context, _ string, _ any, _ llm.JSONOptions) (*llm.Result, error) {
		return nil, errors.New("validator model down")
	}
	v := NewGroundingValidator(mock, nil)

	result := v.Validate(context.Background(), fabricated, types.EvidenceProductOnly, "job-1")
	assert.False(t, result.FabricationStripped)
	assert.Empty(t, result.StrippedContent)
}
