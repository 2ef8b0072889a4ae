// Package research provides the evidence bundler: asynchronous deep-research
// queries against community sources, evidence classification, and
// competitive context gathering.
package research

import (
	"context"
	"fmt"
	"time"
)

// Source is one cited source returned by a deep-research interaction.
type Source struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Findings is the completed output of one deep-research interaction.
type Findings struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// ResearchTimeoutError indicates a deep-research poll exceeded its total
// timeout. Non-fatal to the containing job; callers degrade to an empty
// evidence bundle.
type ResearchTimeoutError struct {
	InteractionID string
	Elapsed       time.Duration
}

func (e *ResearchTimeoutError) Error() string {
	return fmt.Sprintf("research interaction %s timed out after %s", e.InteractionID, e.Elapsed)
}

// Agent is the async research interface: submit a prompt, then poll the
// interaction to completion.
type Agent interface {
	Submit(ctx context.Context, prompt string) (string, error)
	Poll(ctx context.Context, interactionID string, onProgress func(status string)) (*Findings, error)
}
