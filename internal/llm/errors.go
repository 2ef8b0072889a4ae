package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ProviderError indicates a remote model call exhausted its retries.
type ProviderError struct {
	Backend  Backend
	Attempts int
	Cause    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed after %d attempts: %v", e.Backend, e.Attempts, e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// AuthError indicates no credential is configured for the requested backend.
type AuthError struct {
	Backend Backend
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("no credential configured for backend %s", e.Backend)
}

// JSONParseError indicates the structured-JSON self-correction loop was
// exhausted without producing parseable output.
type JSONParseError struct {
	Attempts int
	Raw      string
	Cause    error
}

func (e *JSONParseError) Error() string {
	return fmt.Sprintf("structured output unparseable after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *JSONParseError) Unwrap() error { return e.Cause }

// transientSignatures are substrings that mark a provider error as retryable.
var transientSignatures = []string{
	"429",
	"500",
	"503",
	"rate limit",
	"ratelimit",
	"quota",
	"resource exhausted",
	"overloaded",
	"unavailable",
	"internal error",
	"deadline exceeded",
	"timeout",
}

// isTransient reports whether an error looks like a transient provider
// failure, detected by message inspection.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
