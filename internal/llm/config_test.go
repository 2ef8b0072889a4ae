package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetModelFallbackChain(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "gemini-2.5-pro", cfg.GetModel(TierAdvanced))
	assert.Equal(t, "gemini-2.5-flash", cfg.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.GetModel(TierLite))

	// Missing advanced falls back to standard, then lite.
	cfg.Models = map[ModelTier]string{TierStandard: "std", TierLite: "lt"}
	assert.Equal(t, "std", cfg.GetModel(TierAdvanced))

	cfg.Models = map[ModelTier]string{TierLite: "lt"}
	assert.Equal(t, "lt", cfg.GetModel(TierAdvanced))

	cfg.Models = map[ModelTier]string{}
	assert.Equal(t, "", cfg.GetModel(TierAdvanced))
}

func TestBackendForTier(t *testing.T) {
	assert.Equal(t, BackendGeminiPro, backendForTier(TierAdvanced))
	assert.Equal(t, BackendGeminiFlash, backendForTier(TierStandard))
	assert.Equal(t, BackendGeminiFlashLite, backendForTier(TierLite))
	assert.Equal(t, BackendGeminiFlash, backendForTier(""))
}

func TestResolveRouting(t *testing.T) {
	d := &Dispatcher{config: DefaultConfig()}

	// Explicit claude model routes to the anthropic backend.
	backend, model := d.resolve(Options{Model: "claude-sonnet-4-20250514"})
	assert.Equal(t, BackendAnthropic, backend)
	assert.Equal(t, "claude-sonnet-4-20250514", model)

	// Explicit tier model routes to that tier's backend.
	backend, model = d.resolve(Options{Model: "gemini-2.5-flash"})
	assert.Equal(t, BackendGeminiFlash, backend)
	assert.Equal(t, "gemini-2.5-flash", model)

	// No override: routed by tier.
	backend, model = d.resolve(Options{Tier: TierLite})
	assert.Equal(t, BackendGeminiFlashLite, backend)
	assert.Equal(t, "gemini-2.5-flash-lite", model)

	// Empty options default to the advanced tier.
	backend, model = d.resolve(Options{})
	assert.Equal(t, BackendGeminiPro, backend)
	assert.Equal(t, "gemini-2.5-pro", model)
}

func TestBuildCorrectionPromptEmbedsFailure(t *testing.T) {
	prompt := buildCorrectionPrompt("base instructions", `{"broken":`, errString("unexpected end of JSON input"))
	assert.Contains(t, prompt, "base instructions")
	assert.Contains(t, prompt, `{"broken":`)
	assert.Contains(t, prompt, "unexpected end of JSON input")
}

func TestParseAndValidate(t *testing.T) {
	d := &Dispatcher{config: DefaultConfig()}

	var out struct {
		Score float64 `json:"score"`
	}
	assert.NoError(t, d.parseAndValidate(`{"score": 7}`, &out, ""))
	assert.Equal(t, 7.0, out.Score)

	assert.Error(t, d.parseAndValidate(`{"score":`, &out, ""))

	schema := `{"type": "object", "required": ["score"], "properties": {"score": {"type": "number"}}}`
	assert.NoError(t, d.parseAndValidate(`{"score": 3}`, &out, schema))
	assert.Error(t, d.parseAndValidate(`{"other": 3}`, &out, schema), "schema violations count as parse failures")
}
