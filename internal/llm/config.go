// Package llm provides the generation call dispatcher: backend routing,
// rate limiting, retries, structured-JSON and grounded-search modes.
package llm

import "time"

// ModelTier represents the complexity/capability level of a model.
type ModelTier string

const (
	// TierLite is for simple tasks: classification, extraction, scoring.
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: structured output, critique.
	TierStandard ModelTier = "standard"
	// TierAdvanced is for final content generation and refinement.
	TierAdvanced ModelTier = "advanced"
)

// Backend identifies one remote model backend with its own rate limit and
// circuit breaker.
type Backend string

// Known backends.
const (
	BackendGeminiPro       Backend = "gemini-pro"
	BackendGeminiFlash     Backend = "gemini-flash"
	BackendGeminiFlashLite Backend = "gemini-flash-lite"
	BackendAnthropic       Backend = "anthropic"
)

// Config holds dispatcher configuration: tier-to-model mapping, per-backend
// rate limits, and retry policy knobs.
type Config struct {
	Models         map[ModelTier]string
	AnthropicModel string

	// RateLimits is calls per RateWindow for each backend.
	RateLimits map[Backend]int
	RateWindow time.Duration

	// MaxRetries is the number of retries after the first attempt for
	// transient provider errors.
	MaxRetries     int
	RetryBaseDelay time.Duration

	// MaxParseRetries bounds the structured-JSON self-correction loop.
	MaxParseRetries int

	// GroundedEmptyRetries bounds retries of grounded-search calls that
	// return an empty reply with no citations.
	GroundedEmptyRetries int
	GroundedRetryDelay   time.Duration
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		AnthropicModel: "claude-sonnet-4-20250514",
		RateLimits: map[Backend]int{
			BackendGeminiPro:       10,
			BackendGeminiFlash:     60,
			BackendGeminiFlashLite: 60,
			BackendAnthropic:       15,
		},
		RateWindow:           time.Minute,
		MaxRetries:           3,
		RetryBaseDelay:       2 * time.Second,
		MaxParseRetries:      2,
		GroundedEmptyRetries: 5,
		GroundedRetryDelay:   3 * time.Second,
	}
}

// GetModel returns the model name for a given tier, falling back through
// standard then lite when a tier is not configured.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// backendForTier maps a model tier to its default backend.
func backendForTier(tier ModelTier) Backend {
	switch tier {
	case TierAdvanced:
		return BackendGeminiPro
	case TierLite:
		return BackendGeminiFlashLite
	default:
		return BackendGeminiFlash
	}
}
