package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jordan/content-forge/internal/llm"
	"github.com/jordan/content-forge/internal/prompts"
	"github.com/jordan/content-forge/internal/types"
)

// maxDocChars bounds how much documentation is sent to the extraction call.
const maxDocChars = 24000

// Extractor distills normalized documentation into product insights.
type Extractor struct {
	client llm.Client
	log    *logrus.Entry
}

func NewExtractor(client llm.Client, log *logrus.Logger) *Extractor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Extractor{
		client: client,
		log:    log.WithField("component", "ingestion"),
	}
}

// ExtractInsights asks the model to distill the documentation into
// structured insights: name, domain, category, summary, capabilities,
// audience, differentiators.
func (e *Extractor) ExtractInsights(ctx context.Context, docs, jobID string) (*types.ProductInsights, error) {
	normalized := NormalizeDocs(docs)
	if normalized == "" {
		return nil, fmt.Errorf("no product documentation supplied")
	}

	template, err := prompts.Get("ingestion.json", "extract-insights")
	if err != nil {
		return nil, fmt.Errorf("loading extraction prompt: %w", err)
	}
	prompt := prompts.Format(template, map[string]string{
		"Docs": llm.Truncate(normalized, maxDocChars),
	})

	var insights types.ProductInsights
	_, err = e.client.GenerateJSON(ctx, prompt, &insights, llm.JSONOptions{
		Options: llm.Options{
			Tier: llm.TierStandard,
			Meta: llm.CallMeta{JobID: jobID, Purpose: "extract-insights"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extracting product insights: %w", err)
	}

	if strings.TrimSpace(insights.Name) == "" {
		insights.Name = "the product"
	}
	if strings.TrimSpace(insights.Domain) == "" {
		insights.Domain = "software"
	}
	e.log.WithFields(logrus.Fields{
		"product": insights.Name,
		"domain":  insights.Domain,
	}).Info("extracted product insights")

	return &insights, nil
}

// ContextFacts flattens insights into the fact list used by scoring and
// prompt construction.
func ContextFacts(in *types.ProductInsights) []string {
	if in == nil {
		return nil
	}
	facts := make([]string, 0, len(in.Capabilities)+4)
	if in.Summary != "" {
		facts = append(facts, in.Summary)
	}
	for _, c := range in.Capabilities {
		if strings.TrimSpace(c) != "" {
			facts = append(facts, c)
		}
	}
	for _, d := range in.Differentiators {
		if strings.TrimSpace(d) != "" {
			facts = append(facts, d)
		}
	}
	if in.Audience != "" {
		facts = append(facts, "Audience: "+in.Audience)
	}
	return facts
}
