package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jordan/content-forge/internal/types"
)

// Memory is an in-process Store used for tests and single-shot CLI runs.
type Memory struct {
	mu       sync.RWMutex
	jobs     map[uuid.UUID]*types.Job
	variants map[uuid.UUID][]*types.Variant
}

func NewMemory() *Memory {
	return &Memory{
		jobs:     make(map[uuid.UUID]*types.Job),
		variants: make(map[uuid.UUID][]*types.Variant),
	}
}

func (m *Memory) SaveJob(_ context.Context, job *types.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *job
	copied.StepEvents = append([]types.StepEvent(nil), job.StepEvents...)
	m.jobs[job.ID] = &copied
	return nil
}

func (m *Memory) GetJob(_ context.Context, id uuid.UUID) (*types.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *job
	copied.StepEvents = append([]types.StepEvent(nil), job.StepEvents...)
	return &copied, nil
}

func (m *Memory) SaveVariant(_ context.Context, variant *types.Variant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *variant
	m.variants[variant.JobID] = append(m.variants[variant.JobID], &copied)
	return nil
}

func (m *Memory) ListVariants(_ context.Context, jobID uuid.UUID) ([]*types.Variant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored := m.variants[jobID]
	out := make([]*types.Variant, len(stored))
	for i, v := range stored {
		copied := *v
		out[i] = &copied
	}
	return out, nil
}

func (m *Memory) Close() {}
