package driver

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"testing"

	"github.com/samsaffron/whai/internal/llm"
	"github.com/samsaffron/whai/internal/render"
	"github.com/samsaffron/whai/internal/tools"
)

type scriptedStream struct {
	events []llm.Event
	index  int
}

func (s *scriptedStream) Recv() (llm.Event, error) {
	if s.index >= len(s.events) {
		return llm.Event{}, io.EOF
	}
	e := s.events[s.index]
	s.index++
	return e, nil
}

func (s *scriptedStream) Close() error { return nil }

type scriptedProvider struct {
	turns [][]llm.Event
	calls []llm.Request
}

func (p *scriptedProvider) Name() string       { return "scripted" }
func (p *scriptedProvider) Credential() string { return "test" }
func (p *scriptedProvider) Capabilities() llm.Capabilities {
	return llm.Capabilities{ToolCalls: true}
}

func (p *scriptedProvider) Stream(ctx context.Context, req llm.Request) (llm.Stream, error) {
	p.calls = append(p.calls, req)
	idx := len(p.calls) - 1
	if idx >= len(p.turns) {
		return &scriptedStream{events: []llm.Event{{Type: llm.EventTextDelta, Text: "done"}}}, nil
	}
	return &scriptedStream{events: p.turns[idx]}, nil
}

func newSink() *render.Sink {
	os.Setenv("WHAI_PLAIN", "1")
	return render.New()
}

func TestRunEndsWithNoToolCalls(t *testing.T) {
	provider := &scriptedProvider{
		turns: [][]llm.Event{
			{{Type: llm.EventTextDelta, Text: "hello there"}},
		},
	}
	d := &Driver{
		Provider: provider,
		Model:    "gpt-5-mini",
		Shell:    tools.NewShell(),
		Approval: tools.NewApproval(),
		Sink:     newSink(),
	}

	outcome, err := d.Run(context.Background(), []llm.Message{llm.UserText("hi")}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeDone {
		t.Fatalf("expected OutcomeDone, got %v", outcome)
	}
	if len(provider.calls) != 1 {
		t.Fatalf("expected exactly one turn, got %d", len(provider.calls))
	}
}

func TestRunOmitsTemperatureForGPT5(t *testing.T) {
	provider := &scriptedProvider{
		turns: [][]llm.Event{{{Type: llm.EventTextDelta, Text: "ok"}}},
	}
	temp := float32(0.7)
	d := &Driver{
		Provider:    provider,
		Model:       "gpt-5-mini",
		Temperature: &temp,
		Shell:       tools.NewShell(),
		Approval:    tools.NewApproval(),
		Sink:        newSink(),
	}

	if _, err := d.Run(context.Background(), []llm.Message{llm.UserText("hi")}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.calls[0].Temperature != 0 {
		t.Fatalf("expected temperature omitted for gpt-5 family, got %v", provider.calls[0].Temperature)
	}
}

func TestRunKeepsTemperatureForOtherModels(t *testing.T) {
	provider := &scriptedProvider{
		turns: [][]llm.Event{{{Type: llm.EventTextDelta, Text: "ok"}}},
	}
	temp := float32(0.7)
	d := &Driver{
		Provider:    provider,
		Model:       "claude-sonnet",
		Temperature: &temp,
		Shell:       tools.NewShell(),
		Approval:    tools.NewApproval(),
		Sink:        newSink(),
	}

	if _, err := d.Run(context.Background(), []llm.Message{llm.UserText("hi")}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.calls[0].Temperature != temp {
		t.Fatalf("expected temperature %v preserved, got %v", temp, provider.calls[0].Temperature)
	}
}

func TestRunEndsWhenShellCallMissingCommand(t *testing.T) {
	call := llm.ToolCall{ID: "1", Name: tools.ShellToolName, Arguments: json.RawMessage(`{}`)}
	provider := &scriptedProvider{
		turns: [][]llm.Event{
			{{Type: llm.EventToolCall, Tool: &call}},
		},
	}
	d := &Driver{
		Provider: provider,
		Model:    "claude-sonnet",
		Shell:    tools.NewShell(),
		Approval: tools.NewApproval(),
		Sink:     newSink(),
	}

	outcome, err := d.Run(context.Background(), []llm.Message{llm.UserText("hi")}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeDone {
		t.Fatalf("expected OutcomeDone when the only tool call is missing its argument, got %v", outcome)
	}
	if len(provider.calls) != 1 {
		t.Fatalf("expected loop to terminate after one turn, got %d turns", len(provider.calls))
	}
}

func TestRunReportsUnrecoverableLLMError(t *testing.T) {
	provider := &scriptedProvider{
		turns: [][]llm.Event{
			{{Type: llm.EventError, Err: &llm.Error{Kind: llm.KindAuthentication, Message: "LLM API error: Authentication failed."}}},
		},
	}
	d := &Driver{
		Provider: provider,
		Model:    "claude-sonnet",
		Shell:    tools.NewShell(),
		Approval: tools.NewApproval(),
		Sink:     newSink(),
	}

	outcome, err := d.Run(context.Background(), []llm.Message{llm.UserText("hi")}, nil)
	if outcome != OutcomeError {
		t.Fatalf("expected OutcomeError, got %v", outcome)
	}
	if err == nil {
		t.Fatal("expected a non-nil error")
	}
}

func TestRunDispatchesUnknownToolNameWithoutTerminating(t *testing.T) {
	call := llm.ToolCall{ID: "1", Name: "mystery_tool", Arguments: json.RawMessage(`{}`)}
	provider := &scriptedProvider{
		turns: [][]llm.Event{
			{{Type: llm.EventToolCall, Tool: &call}},
			{{Type: llm.EventTextDelta, Text: "noted"}},
		},
	}
	d := &Driver{
		Provider: provider,
		Model:    "claude-sonnet",
		Shell:    tools.NewShell(),
		Approval: tools.NewApproval(),
		Sink:     newSink(),
	}

	outcome, err := d.Run(context.Background(), []llm.Message{llm.UserText("hi")}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeDone {
		t.Fatalf("expected OutcomeDone after the model's follow-up turn, got %v", outcome)
	}
	if len(provider.calls) != 2 {
		t.Fatalf("expected a second turn carrying the tool-result, got %d calls", len(provider.calls))
	}
}
