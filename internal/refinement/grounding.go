package refinement

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jordan/content-forge/internal/llm"
	"github.com/jordan/content-forge/internal/prompts"
	"github.com/jordan/content-forge/internal/types"
)

// GroundingResult reports whether fabricated community references were found
// and, if so, the cleaned content.
type GroundingResult struct {
	FabricationStripped bool     `json:"fabricationStripped"`
	StrippedContent     string   `json:"strippedContent,omitempty"`
	FabricatedPhrases   []string `json:"fabricatedPhrases,omitempty"`
}

type groundingReply struct {
	FabricatedPhrases []string `json:"fabricated_phrases"`
	CleanedContent    string   `json:"cleaned_content"`
}

// GroundingValidator checks ungrounded content for invented community
// references. Content generated with real evidence is grounded by
// construction and is never checked.
type GroundingValidator struct {
	client llm.Client
	log    *logrus.Entry
}

func NewGroundingValidator(client llm.Client, log *logrus.Logger) *GroundingValidator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &GroundingValidator{
		client: client,
		log:    log.WithField("component", "grounding"),
	}
}

// Validate returns the content unchanged for strong or partial evidence with
// no model call. For product-only content it asks the model for fabricated
// community-reference phrases and a cleaned rewrite. Fails open: any error
// returns the content unmodified with nothing stripped.
func (v *GroundingValidator) Validate(ctx context.Context, content string, level types.EvidenceLevel, jobID string) *GroundingResult {
	if level != types.EvidenceProductOnly {
		return &GroundingResult{FabricationStripped: false}
	}

	template, err := prompts.Get("refinement.json", "grounding-validate")
	if err != nil {
		v.log.Warnf("grounding prompt unavailable, passing content through: %v", err)
		return &GroundingResult{FabricationStripped: false}
	}
	prompt := prompts.Format(template, map[string]string{"Content": content})

	var reply groundingReply
	_, err = v.client.GenerateJSON(ctx, prompt, &reply, llm.JSONOptions{
		Options: llm.Options{
			Tier: llm.TierLite,
			Meta: llm.CallMeta{JobID: jobID, Purpose: "grounding-validate"},
		},
	})
	if err != nil {
		v.log.Warnf("grounding validation failed, passing content through: %v", err)
		return &GroundingResult{FabricationStripped: false}
	}

	if len(reply.FabricatedPhrases) == 0 || strings.TrimSpace(reply.CleanedContent) == "" {
		return &GroundingResult{FabricationStripped: false}
	}

	v.log.WithField("phrases", len(reply.FabricatedPhrases)).
		Info("stripped fabricated community references")
	return &GroundingResult{
		FabricationStripped: true,
		StrippedContent:     reply.CleanedContent,
		FabricatedPhrases:   reply.FabricatedPhrases,
	}
}
