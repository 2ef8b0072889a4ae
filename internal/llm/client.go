package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Usage holds normalized token accounting for one call.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
	CachedTokens int `json:"cachedTokens,omitempty"`
}

// Result is the normalized outcome of one generation call.
type Result struct {
	Text         string
	Usage        Usage
	Model        string
	FinishReason string
	LatencyMs    int64
}

// Options configures one generation call.
type Options struct {
	SystemPrompt string
	Temperature  *float32
	MaxTokens    int
	// Model is an explicit backend/model override. When empty the call is
	// routed by Tier: advanced for final content, lite/standard for scoring
	// and extraction.
	Model string
	Tier  ModelTier
	Meta  CallMeta
}

// JSONOptions configures a structured-JSON generation call.
type JSONOptions struct {
	Options
	// Schema is an optional JSON schema the reply must validate against.
	Schema string
}

// Citation is one grounded-search source reference.
type Citation struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// GroundedResult is the outcome of a grounded-search generation call.
type GroundedResult struct {
	Result
	Citations []Citation
}

// Client is the abstraction over the generation call dispatcher. Pipeline
// components depend on this interface, never on a concrete provider.
type Client interface {
	// Generate produces text content.
	Generate(ctx context.Context, prompt string, opts Options) (*Result, error)
	// GenerateJSON produces structured output unmarshaled into out, with
	// parse-failure self-correction.
	GenerateJSON(ctx context.Context, prompt string, out any, opts JSONOptions) (*Result, error)
	// GenerateGrounded produces web-search-grounded content with citations.
	GenerateGrounded(ctx context.Context, prompt string, opts Options) (*GroundedResult, error)
	// Close releases provider resources.
	Close() error
}

// provider is the raw per-backend call surface behind routing, rate
// limiting, breaker, and retry.
type provider interface {
	generate(ctx context.Context, model, prompt string, opts Options) (*Result, error)
}

// Dispatcher routes generation calls to backends, enforcing per-backend rate
// limits and retry policy, and reporting telemetry for every call.
type Dispatcher struct {
	config    *Config
	gemini    *geminiProvider
	anthropic *anthropicProvider
	limiters  map[Backend]*rateLimiter
	breakers  map[Backend]*gobreaker.CircuitBreaker
	telemetry *Telemetry
	log       *logrus.Entry

	// sleep and groundedCall are swappable in tests to skip real backoff
	// delays and to stub grounded replies.
	sleep        func(ctx context.Context, d time.Duration) error
	groundedCall func(ctx context.Context, backend Backend, model, prompt string, opts Options) (*GroundedResult, int, error)
}

// NewDispatcher builds a dispatcher from configuration and credentials.
// Backends without a credential stay unconfigured; calls routed to them fail
// with AuthError.
func NewDispatcher(ctx context.Context, cfg *Config, geminiKey, anthropicKey string, telemetry *Telemetry, log *logrus.Logger) (*Dispatcher, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	d := &Dispatcher{
		config:    cfg,
		limiters:  make(map[Backend]*rateLimiter),
		breakers:  make(map[Backend]*gobreaker.CircuitBreaker),
		telemetry: telemetry,
		log:       log.WithField("component", "llm"),
		sleep:     sleepCtx,
	}
	d.groundedCall = d.groundedWithRetry

	if geminiKey != "" {
		gp, err := newGeminiProvider(ctx, geminiKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini provider: %w", err)
		}
		d.gemini = gp
	}
	if anthropicKey != "" {
		d.anthropic = newAnthropicProvider(anthropicKey, cfg.AnthropicModel)
	}

	window := cfg.RateWindow
	if window <= 0 {
		window = time.Minute
	}
	for backend, limit := range cfg.RateLimits {
		d.limiters[backend] = newRateLimiter(limit, window)
		d.breakers[backend] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    string(backend),
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 8
			},
		})
	}

	return d, nil
}

// resolve maps call options to a backend and concrete model name.
func (d *Dispatcher) resolve(opts Options) (Backend, string) {
	if opts.Model != "" {
		if strings.HasPrefix(opts.Model, "claude") {
			return BackendAnthropic, opts.Model
		}
		for tier, model := range d.config.Models {
			if model == opts.Model {
				return backendForTier(tier), model
			}
		}
		return BackendGeminiFlash, opts.Model
	}

	tier := opts.Tier
	if tier == "" {
		tier = TierAdvanced
	}
	return backendForTier(tier), d.config.GetModel(tier)
}

// providerFor returns the provider serving a backend, or an AuthError when
// no credential was configured for it.
func (d *Dispatcher) providerFor(backend Backend) (provider, error) {
	switch backend {
	case BackendAnthropic:
		if d.anthropic == nil {
			return nil, &AuthError{Backend: backend}
		}
		return d.anthropic, nil
	default:
		if d.gemini == nil {
			return nil, &AuthError{Backend: backend}
		}
		return d.gemini, nil
	}
}

// Generate routes, rate limits, retries, and reports one generation call.
func (d *Dispatcher) Generate(ctx context.Context, prompt string, opts Options) (*Result, error) {
	backend, model := d.resolve(opts)

	prov, err := d.providerFor(backend)
	if err != nil {
		return nil, err
	}

	if limiter, ok := d.limiters[backend]; ok {
		if err := limiter.Acquire(ctx); err != nil {
			return nil, err
		}
	}

	result, attempts, err := d.callWithRetry(ctx, backend, func() (*Result, error) {
		return prov.generate(ctx, model, prompt, opts)
	})

	d.report(backend, model, prompt, opts, result, err == nil)

	if err != nil {
		return nil, &ProviderError{Backend: backend, Attempts: attempts, Cause: err}
	}
	return result, nil
}

// callWithRetry retries transient failures with exponential backoff seeded
// at the configured base delay. Non-transient errors propagate immediately.
func (d *Dispatcher) callWithRetry(ctx context.Context, backend Backend, call func() (*Result, error)) (*Result, int, error) {
	maxRetries := d.config.MaxRetries
	baseDelay := d.config.RetryBaseDelay

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= maxRetries; attempt++ {
		attempts++

		result, err := d.execute(backend, call)
		if err == nil {
			return result, attempts, nil
		}
		lastErr = err

		if !isTransient(err) || attempt == maxRetries {
			return nil, attempts, lastErr
		}

		delay := baseDelay << attempt
		d.log.WithFields(logrus.Fields{
			"backend": backend,
			"attempt": attempt + 1,
			"delay":   delay.String(),
		}).Warnf("transient provider error, retrying: %v", err)

		if err := d.sleep(ctx, delay); err != nil {
			return nil, attempts, err
		}
	}

	return nil, attempts, lastErr
}

// execute runs a call through the backend's circuit breaker when one is
// configured.
func (d *Dispatcher) execute(backend Backend, call func() (*Result, error)) (*Result, error) {
	breaker, ok := d.breakers[backend]
	if !ok {
		return call()
	}
	raw, err := breaker.Execute(func() (interface{}, error) {
		return call()
	})
	if err != nil {
		return nil, err
	}
	return raw.(*Result), nil
}

// report sends a telemetry event for a finished call. Fire-and-forget.
func (d *Dispatcher) report(backend Backend, model, prompt string, opts Options, result *Result, success bool) {
	if d.telemetry == nil {
		return
	}
	ev := CallEvent{
		Backend:     backend,
		Model:       model,
		PromptChars: len(prompt),
		SystemChars: len(opts.SystemPrompt),
		Success:     success,
		Meta:        opts.Meta,
		At:          time.Now(),
	}
	if result != nil {
		ev.Usage = result.Usage
		ev.LatencyMs = result.LatencyMs
	}
	d.telemetry.Record(ev)
}

// Close releases provider resources.
func (d *Dispatcher) Close() error {
	if d.gemini != nil {
		return d.gemini.Close()
	}
	return nil
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
