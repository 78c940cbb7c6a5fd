package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrorKind classifies a provider failure into the small taxonomy whai's
// driver and terminal output branch on. Everything that doesn't fit a
// specific kind falls back to KindOther.
type ErrorKind string

const (
	KindAuthentication  ErrorKind = "authentication"
	KindInvalidModel    ErrorKind = "invalid_model"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindRateLimit       ErrorKind = "rate_limit"
	KindNetworkOrService ErrorKind = "network_or_service"
	KindOther           ErrorKind = "other"
)

// Error wraps a provider failure with its classification and a sanitized,
// user-facing message. The original error is retained for logging via
// Unwrap.
type Error struct {
	Kind     ErrorKind
	Provider string
	Model    string
	Message  string
	Cause    error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Cause }

// RateLimitError is returned by providers that can parse a concrete
// Retry-After hint out of a 429 response. RetryProvider treats a long wait
// as not worth an automatic retry.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Cause      error
}

func (e *RateLimitError) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return fmt.Sprintf("%s: rate limit reached", e.Provider)
}

func (e *RateLimitError) Unwrap() error { return e.Cause }

// longWaitThreshold is the RetryAfter cutoff beyond which an automatic retry
// is not worth blocking the user for; the driver should surface the error
// instead of silently waiting minutes.
const longWaitThreshold = 60 * time.Second

// IsLongWait reports whether the provider-reported wait is long enough that
// RetryProvider should give up rather than block.
func (e *RateLimitError) IsLongWait() bool {
	return e.RetryAfter > longWaitThreshold
}

// redactPattern matches API-key-shaped tokens: a one-letter provider prefix
// (p, s, r, or u) followed by k, a separator, and at least eight
// alphanumeric characters — e.g. sk-abcdef1234567890.
var redactPattern = regexp.MustCompile(`\b[psru]k[-_][A-Za-z0-9]{8,}\b`)

// sanitize redacts API-key-like substrings from text before it is shown to
// the user or written to a log.
func sanitize(text string) string {
	return redactPattern.ReplaceAllString(text, "<redacted>")
}

// classify turns a raw provider/transport error into a whai Error with a
// concise, actionable message. The rules mirror the provider-agnostic
// taxonomy: look at both the error's own shape (when a provider returns a
// typed error) and its message text, since most SDKs surface HTTP failures
// as plain strings.
func classify(provider, model string, err error) *Error {
	if err == nil {
		return nil
	}

	var rle *RateLimitError
	if errors.As(err, &rle) {
		return &Error{
			Kind:     KindRateLimit,
			Provider: provider,
			Model:    model,
			Message:  fmt.Sprintf("LLM API error: Rate limit reached. provider=%s model=%s. Try again later or switch model/provider.", provider, model),
			Cause:    err,
		}
	}

	text := sanitize(err.Error())
	lower := strings.ToLower(text)
	base := fmt.Sprintf("provider=%s model=%s", provider, model)

	switch {
	case strings.Contains(lower, "authentication") || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key") || strings.Contains(lower, "401"):
		return &Error{
			Kind:     KindAuthentication,
			Provider: provider,
			Model:    model,
			Message:  fmt.Sprintf("LLM API error: Authentication failed. %s. Check your API key and configuration.", base),
			Cause:    err,
		}

	case strings.Contains(lower, "model") && (strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist") || strings.Contains(lower, "unknown model")):
		return &Error{
			Kind:     KindInvalidModel,
			Provider: provider,
			Model:    model,
			Message:  fmt.Sprintf("LLM API error: Model is invalid or unavailable. %s. Choose a valid model with --model.", base),
			Cause:    err,
		}

	case strings.Contains(lower, "permission") || strings.Contains(lower, "403"):
		return &Error{
			Kind:     KindPermissionDenied,
			Provider: provider,
			Model:    model,
			Message:  fmt.Sprintf("LLM API error: Permission denied for this model with the current API key. %s.", base),
			Cause:    err,
		}

	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "429") || strings.Contains(lower, "too many requests"):
		return &Error{
			Kind:     KindRateLimit,
			Provider: provider,
			Model:    model,
			Message:  fmt.Sprintf("LLM API error: Rate limit reached. %s. Try again later or switch model/provider.", base),
			Cause:    err,
		}

	case strings.Contains(lower, "timeout") || strings.Contains(lower, "connection") || strings.Contains(lower, "temporarily unavailable") || strings.Contains(lower, "502") || strings.Contains(lower, "503") || strings.Contains(lower, "overloaded"):
		return &Error{
			Kind:     KindNetworkOrService,
			Provider: provider,
			Model:    model,
			Message:  fmt.Sprintf("LLM API error: Network or service error talking to the provider. %s. Check your connection or try again.", base),
			Cause:    err,
		}

	default:
		return &Error{
			Kind:     KindOther,
			Provider: provider,
			Model:    model,
			Message:  fmt.Sprintf("LLM API error: %s. %s", base, text),
			Cause:    err,
		}
	}
}
