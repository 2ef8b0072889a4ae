package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jordan/content-forge/internal/types"
)

// Postgres persists jobs and variants in PostgreSQL. Step events and
// traceability are stored as JSONB documents so the schema follows the data
// model without migration churn.
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a connection pool and verifies it.
func ConnectPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *Postgres) SaveJob(ctx context.Context, job *types.Job) error {
	events, err := json.Marshal(job.StepEvents)
	if err != nil {
		return fmt.Errorf("failed to marshal step events: %w", err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO jobs (id, status, current_step, progress, step_events, error_message, error_stack, retry_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		 ON CONFLICT (id) DO UPDATE SET
		   status = $2, current_step = $3, progress = $4, step_events = $5,
		   error_message = $6, error_stack = $7, retry_count = $8, updated_at = NOW()`,
		job.ID, job.Status, job.CurrentStep, job.Progress, events,
		job.ErrorMessage, job.ErrorStack, job.RetryCount, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

func (p *Postgres) GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	var (
		job    types.Job
		events []byte
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, status, current_step, progress, step_events, error_message, error_stack, retry_count, created_at, updated_at
		 FROM jobs WHERE id = $1`, id,
	).Scan(&job.ID, &job.Status, &job.CurrentStep, &job.Progress, &events,
		&job.ErrorMessage, &job.ErrorStack, &job.RetryCount, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}
	if len(events) > 0 {
		if err := json.Unmarshal(events, &job.StepEvents); err != nil {
			return nil, fmt.Errorf("failed to unmarshal step events for job %s: %w", id, err)
		}
	}
	return &job, nil
}

func (p *Postgres) SaveVariant(ctx context.Context, variant *types.Variant) error {
	scores, err := json.Marshal(variant.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}
	trace, err := json.Marshal(variant.Traceability)
	if err != nil {
		return fmt.Errorf("failed to marshal traceability: %w", err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO variants (id, job_id, asset_type, voice_id, content, scores, passes_gates, needs_review, traceability, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		variant.ID, variant.JobID, variant.AssetType, variant.VoiceID,
		variant.Content, scores, variant.PassesGates, variant.NeedsReview,
		trace, variant.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save variant %s: %w", variant.ID, err)
	}
	return nil
}

func (p *Postgres) ListVariants(ctx context.Context, jobID uuid.UUID) ([]*types.Variant, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, job_id, asset_type, voice_id, content, scores, passes_gates, needs_review, traceability, created_at
		 FROM variants WHERE job_id = $1 ORDER BY created_at ASC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants for job %s: %w", jobID, err)
	}
	defer rows.Close()

	var variants []*types.Variant
	for rows.Next() {
		var (
			v      types.Variant
			scores []byte
			trace  []byte
		)
		if err := rows.Scan(&v.ID, &v.JobID, &v.AssetType, &v.VoiceID, &v.Content,
			&scores, &v.PassesGates, &v.NeedsReview, &trace, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		if len(scores) > 0 {
			if err := json.Unmarshal(scores, &v.Scores); err != nil {
				return nil, fmt.Errorf("failed to unmarshal scores for variant %s: %w", v.ID, err)
			}
		}
		if len(trace) > 0 {
			if err := json.Unmarshal(trace, &v.Traceability); err != nil {
				return nil, fmt.Errorf("failed to unmarshal traceability for variant %s: %w", v.ID, err)
			}
		}
		variants = append(variants, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate variants: %w", err)
	}
	return variants, nil
}
