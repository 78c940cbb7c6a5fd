package llm

import (
	"errors"
	"testing"
	"time"
)

func TestIsRetryableRecognizesTransientMessages(t *testing.T) {
	cases := []string{
		"429 Too Many Requests",
		"rate limit exceeded",
		"502 Bad Gateway",
		"connection reset by peer",
		"context deadline exceeded",
	}
	for _, msg := range cases {
		if !isRetryable(errors.New(msg)) {
			t.Errorf("expected %q to be retryable", msg)
		}
	}
}

func TestIsRetryableRejectsPermanentErrors(t *testing.T) {
	if isRetryable(errors.New("invalid api key")) {
		t.Fatalf("expected authentication error to not be retryable")
	}
	if isRetryable(nil) {
		t.Fatalf("expected nil error to not be retryable")
	}
}

func TestIsRetryableRespectsLongRateLimitWait(t *testing.T) {
	short := &RateLimitError{RetryAfter: 5 * time.Second}
	if !isRetryable(short) {
		t.Fatalf("expected short rate-limit wait to be retryable")
	}

	long := &RateLimitError{RetryAfter: 5 * time.Minute}
	if isRetryable(long) {
		t.Fatalf("expected long rate-limit wait to not be retryable")
	}
}

func TestCalculateBackoffHonorsRetryAfterHeader(t *testing.T) {
	r := &RetryProvider{config: DefaultRetryConfig()}
	err := errors.New("429: Retry-After: 7")
	wait := r.calculateBackoff(1, err)
	if wait != 7*time.Second {
		t.Fatalf("expected 7s wait, got %v", wait)
	}
}

func TestCalculateBackoffCapsAtMax(t *testing.T) {
	r := &RetryProvider{config: RetryConfig{MaxAttempts: 5, BaseBackoff: time.Second, MaxBackoff: 4 * time.Second}}
	wait := r.calculateBackoff(10, errors.New("boom"))
	if wait > 4*time.Second {
		t.Fatalf("expected wait capped at 4s, got %v", wait)
	}
}
