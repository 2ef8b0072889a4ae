package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiProvider implements the provider surface for Google Gemini.
type geminiProvider struct {
	client *genai.Client
}

func newGeminiProvider(ctx context.Context, apiKey string) (*geminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &geminiProvider{client: client}, nil
}

func (p *geminiProvider) generate(ctx context.Context, modelName, prompt string, opts Options) (*Result, error) {
	model := p.configureModel(modelName, opts)

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text, finishReason, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, err
	}

	return &Result{
		Text:         text,
		Usage:        usageFromResponse(resp),
		Model:        modelName,
		FinishReason: finishReason,
		LatencyMs:    latency,
	}, nil
}

// generateGrounded issues a call with the web-search capability flag set and
// collects citation sources from the reply.
func (p *geminiProvider) generateGrounded(ctx context.Context, modelName, prompt string, opts Options) (*GroundedResult, error) {
	model := p.configureModel(modelName, opts)
	model.Tools = []*genai.Tool{
		{GoogleSearchRetrieval: &genai.GoogleSearchRetrieval{}},
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, fmt.Errorf("failed to generate grounded content: %w", err)
	}

	// An empty candidate list is a known flaky response in grounded mode;
	// surface it as an empty result and let the dispatcher's retry policy
	// decide.
	text, finishReason, _ := extractTextFromResponse(resp)

	return &GroundedResult{
		Result: Result{
			Text:         text,
			Usage:        usageFromResponse(resp),
			Model:        modelName,
			FinishReason: finishReason,
			LatencyMs:    latency,
		},
		Citations: extractCitations(resp),
	}, nil
}

// configureModel applies call options to a generative model handle.
func (p *geminiProvider) configureModel(modelName string, opts Options) *genai.GenerativeModel {
	model := p.client.GenerativeModel(modelName)

	if opts.Temperature != nil {
		model.SetTemperature(*opts.Temperature)
	} else {
		model.SetTemperature(0.7)
	}
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	if opts.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(opts.SystemPrompt)},
		}
	}

	return model
}

func (p *geminiProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts joined text parts from a Gemini response.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, string, error) {
	if len(resp.Candidates) == 0 {
		return "", "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	finishReason := candidate.FinishReason.String()

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", finishReason, fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", finishReason, fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), finishReason, nil
}

// usageFromResponse normalizes Gemini usage metadata.
func usageFromResponse(resp *genai.GenerateContentResponse) Usage {
	if resp.UsageMetadata == nil {
		return Usage{}
	}
	return Usage{
		InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
		OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		CachedTokens: int(resp.UsageMetadata.CachedContentTokenCount),
	}
}

// extractCitations collects citation sources from the first candidate.
func extractCitations(resp *genai.GenerateContentResponse) []Citation {
	if len(resp.Candidates) == 0 {
		return nil
	}
	md := resp.Candidates[0].CitationMetadata
	if md == nil {
		return nil
	}

	var citations []Citation
	for _, source := range md.CitationSources {
		if source == nil || source.URI == nil || *source.URI == "" {
			continue
		}
		citations = append(citations, Citation{URL: *source.URI})
	}
	return citations
}
