package context

import (
	"strings"
	"testing"
)

func TestApplyBackspacesErasesChars(t *testing.T) {
	got := applyBackspaces("hello\b\b\bp!")
	if got != "help!" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeUnixLogStripsEscapes(t *testing.T) {
	input := "\x1b[31merror\x1b[0m: failed\n"
	got := normalizeUnixLog(input)
	if strings.Contains(got, "\x1b") {
		t.Fatalf("expected escape sequences stripped, got %q", got)
	}
	if !strings.Contains(got, "error") || !strings.Contains(got, "failed") {
		t.Fatalf("expected text preserved, got %q", got)
	}
}

func TestNormalizeUnixLogDropsSpinnerLines(t *testing.T) {
	input := "building\n⠋ \n⠙ \ndone\n"
	got := normalizeUnixLog(input)
	if strings.Contains(got, "⠋") || strings.Contains(got, "⠙") {
		t.Fatalf("expected spinner lines dropped, got %q", got)
	}
	if !strings.Contains(got, "building") || !strings.Contains(got, "done") {
		t.Fatalf("expected surrounding lines kept, got %q", got)
	}
}

func TestNormalizeUnixLogDropsBareContinuationMarkers(t *testing.T) {
	input := "echo hi \\\n%\nsecond line\n"
	got := normalizeUnixLog(input)
	for _, line := range strings.Split(got, "\n") {
		if strings.TrimSpace(line) == "%" || strings.TrimSpace(line) == "\\" {
			t.Fatalf("expected bare marker line dropped, got %q", got)
		}
	}
}
