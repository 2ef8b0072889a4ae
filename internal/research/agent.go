package research

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jordan/content-forge/internal/llm"
)

// GroundedAgent implements Agent on top of the dispatcher's grounded-search
// mode. Submit starts the interaction in the background; Poll waits for it
// with a configurable interval and total timeout.
type GroundedAgent struct {
	client       llm.Client
	pollInterval time.Duration
	timeout      time.Duration

	mu           sync.Mutex
	interactions map[string]*interaction
}

type interaction struct {
	done     chan struct{}
	findings *Findings
	err      error
	started  time.Time
}

// NewGroundedAgent builds an agent. Zero durations fall back to a 5s poll
// interval and a 5m total timeout.
func NewGroundedAgent(client llm.Client, pollInterval, timeout time.Duration) *GroundedAgent {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &GroundedAgent{
		client:       client,
		pollInterval: pollInterval,
		timeout:      timeout,
		interactions: make(map[string]*interaction),
	}
}

// Submit starts a deep-research interaction and returns its id.
func (a *GroundedAgent) Submit(ctx context.Context, prompt string) (string, error) {
	id := uuid.New().String()
	inter := &interaction{
		done:    make(chan struct{}),
		started: time.Now(),
	}

	a.mu.Lock()
	a.interactions[id] = inter
	a.mu.Unlock()

	go func() {
		defer close(inter.done)
		result, err := a.client.GenerateGrounded(ctx, prompt, llm.Options{
			Tier: llm.TierStandard,
			Meta: llm.CallMeta{Purpose: "deep-research"},
		})
		if err != nil {
			inter.err = err
			return
		}
		inter.findings = findingsFromGrounded(result)
	}()

	return id, nil
}

// Poll waits for the interaction to finish, surfacing intermediate status
// via onProgress, until completion or the configured timeout.
func (a *GroundedAgent) Poll(ctx context.Context, interactionID string, onProgress func(status string)) (*Findings, error) {
	a.mu.Lock()
	inter, ok := a.interactions[interactionID]
	a.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown research interaction: %s", interactionID)
	}

	deadline := time.NewTimer(a.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-inter.done:
			a.forget(interactionID)
			if inter.err != nil {
				return nil, inter.err
			}
			return inter.findings, nil
		case <-ticker.C:
			if onProgress != nil {
				onProgress(fmt.Sprintf("researching (%s elapsed)", time.Since(inter.started).Round(time.Second)))
			}
		case <-deadline.C:
			a.forget(interactionID)
			return nil, &ResearchTimeoutError{InteractionID: interactionID, Elapsed: a.timeout}
		case <-ctx.Done():
			a.forget(interactionID)
			return nil, ctx.Err()
		}
	}
}

func (a *GroundedAgent) forget(id string) {
	a.mu.Lock()
	delete(a.interactions, id)
	a.mu.Unlock()
}

func findingsFromGrounded(result *llm.GroundedResult) *Findings {
	f := &Findings{Text: result.Text}
	for _, citation := range result.Citations {
		f.Sources = append(f.Sources, Source{
			Title:   citation.Title,
			URL:     citation.URL,
			Snippet: citation.Snippet,
		})
	}
	return f
}
