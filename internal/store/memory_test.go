package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordan/content-forge/internal/types"
)

func testJob() *types.Job {
	now := time.Now().UTC()
	return &types.Job{
		ID:        uuid.New(),
		Status:    types.JobStatusResearch,
		Progress:  25,
		CreatedAt: now,
		UpdatedAt: now,
		StepEvents: []types.StepEvent{
			{Step: "extract-insights", Status: types.StepStatusComplete, StartedAt: now},
		},
	}
}

func TestMemorySaveAndGetJob(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	job := testJob()

	require.NoError(t, m.SaveJob(ctx, job))

	got, err := m.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, types.JobStatusResearch, got.Status)
	require.Len(t, got.StepEvents, 1)
}

func TestMemoryGetJobNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.GetJob(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySaveJobUpserts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	job := testJob()

	require.NoError(t, m.SaveJob(ctx, job))
	job.Status = types.JobStatusCompleted
	job.Progress = 100
	require.NoError(t, m.SaveJob(ctx, job))

	got, err := m.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
}

func TestMemoryIsolatesStoredJobFromCaller(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	job := testJob()
	require.NoError(t, m.SaveJob(ctx, job))

	// Mutating the caller's copy after saving must not leak into the store.
	job.Status = types.JobStatusFailed
	job.StepEvents[0].Step = "tampered"

	got, err := m.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusResearch, got.Status)
	assert.Equal(t, "extract-insights", got.StepEvents[0].Step)
}

func TestMemoryListVariantsInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	jobID := uuid.New()

	for _, asset := range []string{"blog-post", "email", "social-post"} {
		require.NoError(t, m.SaveVariant(ctx, &types.Variant{
			ID:        uuid.New(),
			JobID:     jobID,
			AssetType: asset,
			Content:   "content for " + asset,
		}))
	}

	variants, err := m.ListVariants(ctx, jobID)
	require.NoError(t, err)
	require.Len(t, variants, 3)
	assert.Equal(t, "blog-post", variants[0].AssetType)
	assert.Equal(t, "email", variants[1].AssetType)
	assert.Equal(t, "social-post", variants[2].AssetType)

	other, err := m.ListVariants(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}
