package llm

import (
	"context"
	"time"
)

// GenerateGrounded issues a generation call with the web-search capability
// flag. Empty-but-successful replies are a known upstream flakiness of this
// mode: when the reply text and citation list are both empty the call is
// retried up to GroundedEmptyRetries times with a growing delay before the
// empty result is returned as-is.
func (d *Dispatcher) GenerateGrounded(ctx context.Context, prompt string, opts Options) (*GroundedResult, error) {
	if d.gemini == nil {
		return nil, &AuthError{Backend: BackendGeminiFlash}
	}

	backend, model := d.resolve(opts)
	if backend == BackendAnthropic {
		// Grounded search is only wired on the Gemini side.
		backend = BackendGeminiFlash
		model = d.config.GetModel(TierStandard)
	}

	var result *GroundedResult
	for attempt := 1; attempt <= d.config.GroundedEmptyRetries; attempt++ {
		if limiter, ok := d.limiters[backend]; ok {
			if err := limiter.Acquire(ctx); err != nil {
				return nil, err
			}
		}

		var attempts int
		var err error
		result, attempts, err = d.groundedCall(ctx, backend, model, prompt, opts)
		d.report(backend, model, prompt, opts, groundedInner(result), err == nil)
		if err != nil {
			return nil, &ProviderError{Backend: backend, Attempts: attempts, Cause: err}
		}

		if result.Text != "" || len(result.Citations) > 0 {
			return result, nil
		}

		if attempt == d.config.GroundedEmptyRetries {
			break
		}
		delay := time.Duration(attempt) * d.config.GroundedRetryDelay
		d.log.WithField("attempt", attempt).Warn("grounded search returned empty reply, retrying")
		if err := d.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	// Persistent emptiness is not a hard error; callers degrade evidence.
	return result, nil
}

// groundedWithRetry applies the transient retry policy to one grounded call.
func (d *Dispatcher) groundedWithRetry(ctx context.Context, backend Backend, model, prompt string, opts Options) (*GroundedResult, int, error) {
	var result *GroundedResult
	_, attempts, err := d.callWithRetry(ctx, backend, func() (*Result, error) {
		gr, err := d.gemini.generateGrounded(ctx, model, prompt, opts)
		if err != nil {
			return nil, err
		}
		result = gr
		return &gr.Result, nil
	})
	if err != nil {
		return nil, attempts, err
	}
	return result, attempts, nil
}

func groundedInner(r *GroundedResult) *Result {
	if r == nil {
		return nil
	}
	return &r.Result
}
