package llm

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeRedactsApiKeys(t *testing.T) {
	got := sanitize("failed with key sk-abcdefgh12345678 please rotate it")
	if strings.Contains(got, "sk-abcdefgh12345678") {
		t.Fatalf("expected key redacted, got %q", got)
	}
	if !strings.Contains(got, "<redacted>") {
		t.Fatalf("expected redaction marker, got %q", got)
	}
}

func TestSanitizeLeavesOrdinaryTextAlone(t *testing.T) {
	text := "the quick brown fox"
	if sanitize(text) != text {
		t.Fatalf("expected unchanged text")
	}
}

func TestClassifyAuthentication(t *testing.T) {
	e := classify("openai", "gpt-5", errors.New("401 Unauthorized: invalid api key"))
	if e.Kind != KindAuthentication {
		t.Fatalf("got kind %q", e.Kind)
	}
}

func TestClassifyInvalidModel(t *testing.T) {
	e := classify("openai", "nope", errors.New("model not found: nope"))
	if e.Kind != KindInvalidModel {
		t.Fatalf("got kind %q", e.Kind)
	}
}

func TestClassifyRateLimit(t *testing.T) {
	e := classify("anthropic", "claude", errors.New("429 rate limit exceeded"))
	if e.Kind != KindRateLimit {
		t.Fatalf("got kind %q", e.Kind)
	}
}

func TestClassifyRateLimitErrorType(t *testing.T) {
	e := classify("anthropic", "claude", &RateLimitError{Provider: "anthropic"})
	if e.Kind != KindRateLimit {
		t.Fatalf("got kind %q", e.Kind)
	}
}

func TestClassifyNetworkOrService(t *testing.T) {
	e := classify("gemini", "gemini-pro", errors.New("connection timeout"))
	if e.Kind != KindNetworkOrService {
		t.Fatalf("got kind %q", e.Kind)
	}
}

func TestClassifyFallsBackToOther(t *testing.T) {
	e := classify("openai", "gpt-5", errors.New("something weird happened"))
	if e.Kind != KindOther {
		t.Fatalf("got kind %q", e.Kind)
	}
}

func TestClassifyRedactsMessage(t *testing.T) {
	e := classify("openai", "gpt-5", errors.New("bad request with sk-abcdefgh12345678"))
	if strings.Contains(e.Message, "sk-abcdefgh12345678") {
		t.Fatalf("expected redacted message, got %q", e.Message)
	}
}
