package llm

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestDebugProviderName(t *testing.T) {
	tests := []struct {
		variant string
		want    string
	}{
		{"", "debug"},
		{"normal", "debug"},
		{"fast", "debug:fast"},
		{"unknown", "debug:unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			p := NewDebugProvider(tt.variant)
			if got := p.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDebugProviderCredential(t *testing.T) {
	p := NewDebugProvider("")
	if got := p.Credential(); got != "none" {
		t.Errorf("Credential() = %q, want %q", got, "none")
	}
}

func TestDebugProviderStreamsMarkdownByDefault(t *testing.T) {
	p := NewDebugProvider("fast")
	stream, err := p.Stream(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	defer stream.Close()

	var text strings.Builder
	gotUsage := false
	for {
		event, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
		switch event.Type {
		case EventTextDelta:
			text.WriteString(event.Text)
		case EventUsage:
			gotUsage = true
		}
	}

	if !strings.Contains(text.String(), "Debug Provider Output") {
		t.Errorf("expected debug markdown, got %q", text.String())
	}
	if !gotUsage {
		t.Error("expected a usage event")
	}
}

func TestDebugProviderEmitsShellToolCall(t *testing.T) {
	p := NewDebugProvider("fast")
	req := Request{
		Messages: []Message{UserText("run echo hi")},
		Tools:    []ToolSpec{{Name: "execute_shell"}},
	}

	stream, err := p.Stream(context.Background(), req)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	defer stream.Close()

	var gotCall *ToolCall
	for {
		event, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
		if event.Type == EventToolCall {
			gotCall = event.Tool
		}
	}

	if gotCall == nil {
		t.Fatal("expected a tool call event")
	}
	if gotCall.Name != "execute_shell" {
		t.Errorf("tool name = %q, want execute_shell", gotCall.Name)
	}
	if !strings.Contains(string(gotCall.Arguments), "echo hi") {
		t.Errorf("arguments = %s, want to contain command", gotCall.Arguments)
	}
}

func TestDebugProviderIgnoresShellPromptWithoutTool(t *testing.T) {
	p := NewDebugProvider("fast")
	req := Request{Messages: []Message{UserText("run echo hi")}}

	stream, err := p.Stream(context.Background(), req)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	defer stream.Close()

	sawToolCall := false
	for {
		event, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
		if event.Type == EventToolCall {
			sawToolCall = true
		}
	}

	if sawToolCall {
		t.Error("expected no tool call when execute_shell is not offered")
	}
}
