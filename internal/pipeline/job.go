// Package pipeline orchestrates content generation jobs: strategy selection,
// the research and generation phases, scoring, refinement, and variant
// emission.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jordan/content-forge/internal/llm"
	"github.com/jordan/content-forge/internal/store"
	"github.com/jordan/content-forge/internal/types"
)

// maxDraftSnapshot bounds the content snapshot recorded on step events.
const maxDraftSnapshot = 2000

// Tracker serializes all mutations to one job's state. Concurrent
// combination workers of the same job share a tracker; every write goes
// through its mutex and each mutation persists a best-effort snapshot.
type Tracker struct {
	mu    sync.Mutex
	job   *types.Job
	store store.Store
	log   *logrus.Entry
}

// NewJob creates a pending job.
func NewJob() *types.Job {
	now := time.Now().UTC()
	return &types.Job{
		ID:        uuid.New(),
		Status:    types.JobStatusPending,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewTracker(job *types.Job, st store.Store, log *logrus.Entry) *Tracker {
	return &Tracker{job: job, store: st, log: log}
}

// SetStatus transitions the job's lifecycle status. Terminal states are
// never overwritten.
func (t *Tracker) SetStatus(status types.JobStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.job.Terminal() {
		return
	}
	t.job.Status = status
	t.touchAndPersist()
}

// StartStep appends a running step event and makes it the current step.
func (t *Tracker) StartStep(name, model string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.job.Terminal() {
		return
	}
	t.job.StepEvents = append(t.job.StepEvents, types.StepEvent{
		Step:      name,
		Status:    types.StepStatusRunning,
		Model:     model,
		StartedAt: time.Now().UTC(),
	})
	t.job.CurrentStep = name
	t.touchAndPersist()
}

// CompleteStep transitions the most recent running event with the given name
// to complete, attaching a truncated content snapshot and score snapshot. A
// completion with no matching running event appends a standalone complete
// event rather than dropping the record.
func (t *Tracker) CompleteStep(name, draft string, scores *types.ScoreResult) {
	t.completeStep(name, "", draft, scores)
}

// CompleteGeneration records completion of a model-call step, including the
// exact model that served it.
func (t *Tracker) CompleteGeneration(name, model, draft string) {
	t.completeStep(name, model, draft, nil)
}

func (t *Tracker) completeStep(name, model, draft string, scores *types.ScoreResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.job.Terminal() {
		return
	}

	now := time.Now().UTC()
	snapshot := llm.Truncate(draft, maxDraftSnapshot)

	for i := len(t.job.StepEvents) - 1; i >= 0; i-- {
		ev := &t.job.StepEvents[i]
		if ev.Step == name && ev.Status == types.StepStatusRunning {
			ev.Status = types.StepStatusComplete
			ev.CompletedAt = &now
			ev.Draft = snapshot
			if model != "" {
				ev.Model = model
			}
			if scores != nil {
				copied := *scores
				ev.Scores = &copied
				health := scores.Health
				ev.ScorerHealth = &health
			}
			t.touchAndPersist()
			return
		}
	}

	ev := types.StepEvent{
		Step:        name,
		Status:      types.StepStatusComplete,
		Model:       model,
		Draft:       snapshot,
		StartedAt:   now,
		CompletedAt: &now,
	}
	if scores != nil {
		copied := *scores
		ev.Scores = &copied
	}
	t.job.StepEvents = append(t.job.StepEvents, ev)
	t.touchAndPersist()
}

// AdvanceProgress raises progress to the given value. Progress never moves
// backwards, so late-finishing concurrent steps cannot regress it.
func (t *Tracker) AdvanceProgress(to int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.job.Terminal() {
		return
	}
	if to > 100 {
		to = 100
	}
	if to > t.job.Progress {
		t.job.Progress = to
		t.touchAndPersist()
	}
}

// Fail marks the job failed with the error's message. The first failure
// wins.
func (t *Tracker) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.job.Terminal() {
		return
	}
	t.job.Status = types.JobStatusFailed
	t.job.ErrorMessage = err.Error()
	t.job.ErrorStack = fmt.Sprintf("%+v", err)
	t.job.RetryCount++
	t.touchAndPersist()
}

// Complete marks the job completed at full progress.
func (t *Tracker) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.job.Terminal() {
		return
	}
	t.job.Status = types.JobStatusCompleted
	t.job.Progress = 100
	t.job.CurrentStep = ""
	t.touchAndPersist()
}

// Snapshot returns a copy of the job safe to read concurrently.
func (t *Tracker) Snapshot() *types.Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	copied := *t.job
	copied.StepEvents = append([]types.StepEvent(nil), t.job.StepEvents...)
	return &copied
}

// touchAndPersist must be called with the mutex held. Persistence is
// best-effort: storage trouble never fails the job itself.
func (t *Tracker) touchAndPersist() {
	t.job.UpdatedAt = time.Now().UTC()
	if t.store == nil {
		return
	}
	copied := *t.job
	copied.StepEvents = append([]types.StepEvent(nil), t.job.StepEvents...)
	if err := t.store.SaveJob(context.Background(), &copied); err != nil {
		t.log.Warnf("failed to persist job snapshot: %v", err)
	}
}
