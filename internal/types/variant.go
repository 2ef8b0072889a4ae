package types

import (
	"time"

	"github.com/google/uuid"
)

// GenerationPrompt captures the exact prompts used to produce a variant,
// truncated to bounded lengths for storage.
type GenerationPrompt struct {
	System    string    `json:"system"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}

// Traceability links a variant back to its evidence and prompts so external
// observers can reconstruct provenance without re-running the job.
type Traceability struct {
	PractitionerQuotes []PractitionerQuote `json:"practitionerQuotes,omitempty"`
	EvidenceLevel      EvidenceLevel       `json:"evidenceLevel"`
	GenerationPrompt   GenerationPrompt    `json:"generationPrompt"`
}

// Variant is a stored, scored candidate of generated content for one
// (asset type, voice) pair within a job. Never mutated after creation;
// corrections produce new variants.
type Variant struct {
	ID           uuid.UUID    `json:"id"`
	JobID        uuid.UUID    `json:"jobId"`
	AssetType    string       `json:"assetType"`
	VoiceID      string       `json:"voiceId"`
	Content      string       `json:"content"`
	Scores       ScoreResult  `json:"scores"`
	PassesGates  bool         `json:"passesGates"`
	NeedsReview  bool         `json:"needsManualReview,omitempty"`
	Traceability Traceability `json:"traceability"`
	CreatedAt    time.Time    `json:"createdAt"`
}
