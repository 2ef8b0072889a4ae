// Package types defines the shared data model for the content generation engine.
package types

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a generation job.
type JobStatus string

// Job lifecycle states. A job is terminal once Completed or Failed.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusResearch  JobStatus = "research"
	JobStatusGenerate  JobStatus = "generate"
	JobStatusScore     JobStatus = "score"
	JobStatusStore     JobStatus = "store"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// StepStatus represents the state of a single step event.
type StepStatus string

// Step event states.
const (
	StepStatusRunning  StepStatus = "running"
	StepStatusComplete StepStatus = "complete"
)

// StepEvent is one entry in a job's step log. Entries are append-only except
// for the in-place transition from running to complete on the same step name.
type StepEvent struct {
	Step         string        `json:"step"`
	Status       StepStatus    `json:"status"`
	Model        string        `json:"model,omitempty"`
	Draft        string        `json:"draft,omitempty"` // truncated snapshot, max 2000 chars
	Scores       *ScoreResult  `json:"scores,omitempty"`
	ScorerHealth *ScorerHealth `json:"scorerHealth,omitempty"`
	StartedAt    time.Time     `json:"startedAt"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
}

// Job identifies one generation run. Mutated exclusively by the pipeline
// tracker; everything else reads snapshots.
type Job struct {
	ID           uuid.UUID   `json:"id"`
	Status       JobStatus   `json:"status"`
	CurrentStep  string      `json:"currentStep,omitempty"`
	Progress     int         `json:"progress"` // 0-100, monotonically non-decreasing
	StepEvents   []StepEvent `json:"stepEvents"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
	ErrorStack   string      `json:"errorStack,omitempty"`
	RetryCount   int         `json:"retryCount"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Terminal reports whether the job has reached a terminal state.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
