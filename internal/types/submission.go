package types

// Pipeline strategy keys accepted on a submission.
const (
	PipelineStandard         = "standard"
	PipelineOutsideIn        = "outside-in"
	PipelineAdversarial      = "adversarial"
	PipelineMultiPerspective = "multi-perspective"
	PipelineStraightThrough  = "straight-through"
)

// Submission is the caller-supplied request for one generation job. An
// unrecognized pipeline key is not a validation error; the dispatcher falls
// back to the standard strategy.
type Submission struct {
	ProductDocs     string   `json:"productDocs" validate:"required"`
	ExistingContent string   `json:"existingMessaging,omitempty"`
	Prompt          string   `json:"prompt,omitempty"`
	VoiceProfileIDs []string `json:"voiceProfileIds" validate:"required,min=1"`
	AssetTypes      []string `json:"assetTypes" validate:"required,min=1,dive,oneof=landing-page blog-post email social-post one-pager"`
	Model           string   `json:"model,omitempty"`
	Pipeline        string   `json:"pipeline,omitempty"`
}
