package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordan/content-forge/internal/types"
)

func builderInput() SystemPromptInput {
	return SystemPromptInput{
		Directive: DirectivePOVFirst,
		Voice: &types.VoiceProfile{
			ID:             "practitioner",
			Name:           "Practitioner",
			Guide:          "Write like an engineer talking to another engineer.",
			ExamplePhrases: []string{"we kept getting paged for"},
		},
		AssetType:     "blog-post",
		EvidenceLevel: types.EvidenceStrong,
		Insights: &types.ProductInsights{
			Name:     "ShipFast",
			Domain:   "devops",
			Category: "deployment tool",
		},
		BannedPhrases: []string{"game-changer", "seamless"},
	}
}

func TestBuildSystemPromptCompositionOrder(t *testing.T) {
	prompt := BuildSystemPrompt(builderInput())

	markers := []string{
		"devops",                  // primary directive, domain substituted
		"we kept getting paged",   // persona angle example phrases
		"engineer talking to",     // voice guide
		"- game-changer",          // banned phrase list
	}
	last := -1
	for _, marker := range markers {
		idx := strings.Index(prompt, marker)
		require.GreaterOrEqual(t, idx, 0, "missing section marker %q", marker)
		assert.Greater(t, idx, last, "section %q out of order", marker)
		last = idx
	}
}

func TestBuildSystemPromptGroundingByEvidenceLevel(t *testing.T) {
	strict := MustGet("generation.json", "grounding-strict")
	evidence := MustGet("generation.json", "grounding-evidence")

	in := builderInput()
	in.EvidenceLevel = types.EvidenceProductOnly
	prompt := BuildSystemPrompt(in)
	assert.Contains(t, prompt, strict)
	assert.NotContains(t, prompt, evidence)

	in.EvidenceLevel = types.EvidencePartial
	prompt = BuildSystemPrompt(in)
	assert.Contains(t, prompt, evidence)
	assert.NotContains(t, prompt, strict)
}

func TestBuildSystemPromptPainFirstDirective(t *testing.T) {
	in := builderInput()
	in.Directive = DirectivePainFirst
	prompt := BuildSystemPrompt(in)

	head := Format(MustGet("generation.json", "system-pain-first"), map[string]string{
		"Domain":   "devops",
		"Name":     "ShipFast",
		"Category": "deployment tool",
	})
	assert.True(t, strings.HasPrefix(prompt, head))
}

func TestBuildSystemPromptOmitsEmptySections(t *testing.T) {
	in := builderInput()
	in.Voice = &types.VoiceProfile{ID: "bare", Name: "Bare"}
	in.BannedPhrases = nil
	prompt := BuildSystemPrompt(in)

	assert.NotContains(t, prompt, MustGet("generation.json", "banned-phrases-header"))
	assert.NotContains(t, prompt, "Write as the voice")
}

func TestFormatInstructionsFallsBackToOnePager(t *testing.T) {
	known := FormatInstructions("blog-post")
	assert.Equal(t, MustGet("generation.json", "format-blog-post"), known)

	unknown := FormatInstructions("hologram")
	assert.Equal(t, MustGet("generation.json", "format-one-pager"), unknown)
}

func TestFormatReplacesPlaceholders(t *testing.T) {
	out := Format("Hello {{.Name}}, welcome to {{.Domain}}. {{.Missing}} stays.", map[string]string{
		"Name":   "ShipFast",
		"Domain": "devops",
	})
	assert.Equal(t, "Hello ShipFast, welcome to devops. {{.Missing}} stays.", out)
}

func TestGetUnknownKey(t *testing.T) {
	_, err := Get("generation.json", "no-such-key")
	assert.Error(t, err)

	_, err = Get("absent.json", "anything")
	assert.Error(t, err)
}
