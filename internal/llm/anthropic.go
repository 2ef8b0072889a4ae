package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/aktagon/llmkit/anthropic"
	anthropictypes "github.com/aktagon/llmkit/anthropic/types"
)

// defaultAnthropicMaxTokens bounds replies when the caller does not set one;
// the Anthropic API requires an explicit max.
const defaultAnthropicMaxTokens = 4096

// anthropicProvider implements the provider surface via llmkit.
type anthropicProvider struct {
	apiKey       string
	defaultModel string
}

func newAnthropicProvider(apiKey, defaultModel string) *anthropicProvider {
	return &anthropicProvider{apiKey: apiKey, defaultModel: defaultModel}
}

func (p *anthropicProvider) generate(_ context.Context, modelName, prompt string, opts Options) (*Result, error) {
	if modelName == "" {
		modelName = p.defaultModel
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	settings := anthropictypes.RequestSettings{
		Model:     modelName,
		MaxTokens: maxTokens,
	}
	if opts.Temperature != nil {
		settings.Temperature = float64(*opts.Temperature)
	}

	start := time.Now()
	response, err := anthropic.PromptWithSettings(opts.SystemPrompt, prompt, "", p.apiKey, settings)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, fmt.Errorf("anthropic call failed: %w", err)
	}

	if len(response.Content) == 0 {
		return nil, fmt.Errorf("no content in anthropic response")
	}

	return &Result{
		Text: response.Content[0].Text,
		Usage: Usage{
			InputTokens:  response.Usage.InputTokens,
			OutputTokens: response.Usage.OutputTokens,
			TotalTokens:  response.Usage.InputTokens + response.Usage.OutputTokens,
		},
		Model:        modelName,
		FinishReason: response.StopReason,
		LatencyMs:    latency,
	}, nil
}
