// Package store persists jobs and generated variants. The pipeline treats
// storage as a collaborator behind the Store interface; callers choose the
// in-memory implementation for tests and single runs, or Postgres for
// durable deployments.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jordan/content-forge/internal/types"
)

// ErrNotFound is returned when a job or variant does not exist.
var ErrNotFound = errors.New("not found")

// Store persists job state snapshots and emitted variants.
type Store interface {
	// SaveJob upserts a full job snapshot.
	SaveJob(ctx context.Context, job *types.Job) error
	// GetJob returns the latest snapshot for the job, or ErrNotFound.
	GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error)
	// SaveVariant inserts a new variant. Variants are immutable.
	SaveVariant(ctx context.Context, variant *types.Variant) error
	// ListVariants returns all variants emitted by a job, oldest first.
	ListVariants(ctx context.Context, jobID uuid.UUID) ([]*types.Variant, error)
	// Close releases underlying resources.
	Close()
}
