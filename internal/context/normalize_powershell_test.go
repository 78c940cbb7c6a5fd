package context

import (
	"strings"
	"testing"
)

func TestNormalizePowerShellTranscriptCompactsHeader(t *testing.T) {
	input := strings.Join([]string{
		"**********************",
		"Windows PowerShell transcript start",
		"Start time: 20260101120000",
		"Username: DESKTOP\\user",
		"Machine: DESKTOP (Microsoft Windows NT 10.0)",
		"**********************",
		"PS> Get-Process",
		"**********************",
		"Windows PowerShell transcript end",
		"End time: 20260101120500",
		"**********************",
	}, "\n")

	got := normalizePowerShellTranscript(input)

	if !strings.Contains(got, "--- PowerShell Session ---") {
		t.Fatalf("expected compacted header, got %q", got)
	}
	if !strings.Contains(got, "PS> Get-Process") {
		t.Fatalf("expected body line kept, got %q", got)
	}
	if strings.Contains(got, "transcript end") {
		t.Fatalf("expected footer metadata dropped, got %q", got)
	}
}

func TestNormalizePowerShellTranscriptStripsContinuations(t *testing.T) {
	input := "PS> Get-Process |\n>> Where-Object CPU -gt 10\n"
	got := normalizePowerShellTranscript(input)
	if strings.Contains(got, ">> ") {
		t.Fatalf("expected continuation prefix stripped, got %q", got)
	}
}

func TestNormalizePowerShellTranscriptConvertsCommandTimestamp(t *testing.T) {
	input := "Command start time: 20260101120102\nPS> ls\n"
	got := normalizePowerShellTranscript(input)
	if !strings.Contains(got, "[Command timestamp: 20260101120102]") {
		t.Fatalf("expected converted timestamp, got %q", got)
	}
}
