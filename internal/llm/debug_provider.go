package llm

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// debugPreset defines streaming rate configuration.
type debugPreset struct {
	ChunkSize int
	Delay     time.Duration
}

var presets = map[string]debugPreset{
	"fast":   {ChunkSize: 50, Delay: 5 * time.Millisecond},
	"normal": {ChunkSize: 20, Delay: 20 * time.Millisecond},
	"slow":   {ChunkSize: 10, Delay: 50 * time.Millisecond},
}

const debugMarkdown = `# Debug Provider Output

This is a synthetic response from the offline debug provider, used to
exercise the terminal renderer without calling a real LLM.

` + "```bash" + `
echo "hello from whai"
` + "```" + `

- no network calls
- no API key required
`

// DebugProvider streams canned content without calling a real LLM, for
// offline testing of the terminal renderer and driver loop. It emits an
// execute_shell tool call when the prompt looks like "run <command>" or
// "shell <command>" and that tool is offered; otherwise it streams
// debugMarkdown.
type DebugProvider struct {
	variant string
	preset  debugPreset
}

// NewDebugProvider creates a debug provider with the named streaming
// variant (fast, normal, slow). Empty string defaults to "normal".
func NewDebugProvider(variant string) *DebugProvider {
	if variant == "" {
		variant = "normal"
	}
	preset, ok := presets[variant]
	if !ok {
		preset = presets["normal"]
	}
	return &DebugProvider{variant: variant, preset: preset}
}

func (d *DebugProvider) Name() string {
	if d.variant == "" || d.variant == "normal" {
		return "debug"
	}
	return "debug:" + d.variant
}

func (d *DebugProvider) Credential() string { return "none" }

func (d *DebugProvider) Capabilities() Capabilities {
	return Capabilities{ToolCalls: true}
}

func (d *DebugProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	return newEventStream(ctx, func(ctx context.Context, ch chan<- Event) error {
		if hasToolResults(req.Messages) {
			return d.streamText(ctx, ch, "Debug: command execution completed.")
		}

		if call := parseShellCommand(getLastUserPrompt(req.Messages), req.Tools); call != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ch <- Event{Type: EventToolCall, Tool: call}:
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ch <- Event{Type: EventUsage, Use: &Usage{InputTokens: 10, OutputTokens: 10}}:
			}
			return nil
		}

		return d.streamText(ctx, ch, debugMarkdown)
	}), nil
}

func (d *DebugProvider) streamText(ctx context.Context, ch chan<- Event, text string) error {
	chunkSize := d.preset.ChunkSize
	delay := d.preset.Delay

	for len(text) > 0 {
		end := chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunk := text[:end]
		text = text[end:]

		select {
		case <-ctx.Done():
			return ctx.Err()
		case ch <- Event{Type: EventTextDelta, Text: chunk}:
		}

		if delay > 0 && len(text) > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case ch <- Event{Type: EventUsage, Use: &Usage{InputTokens: 10, OutputTokens: len(text) / 4}}:
	}
	return nil
}

var debugCallID atomic.Uint64

func nextDebugCallID() string {
	return "debug-call-" + strconv.FormatUint(debugCallID.Add(1), 10)
}

func hasToolResults(msgs []Message) bool {
	for _, msg := range msgs {
		if msg.Role == RoleTool {
			return true
		}
	}
	return false
}

func getLastUserPrompt(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return collectTextParts(msgs[i].Parts)
		}
	}
	return ""
}

// parseShellCommand recognizes a "run <command>" or "shell <command>"
// prompt and turns it into an execute_shell tool call, when that tool is
// offered. Any other prompt falls through to the markdown stream.
func parseShellCommand(prompt string, tools []ToolSpec) *ToolCall {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil
	}

	hasShellTool := false
	for _, t := range tools {
		if t.Name == "execute_shell" {
			hasShellTool = true
			break
		}
	}
	if !hasShellTool {
		return nil
	}

	lower := strings.ToLower(prompt)
	var command string
	switch {
	case strings.HasPrefix(lower, "run "):
		command = strings.TrimSpace(prompt[4:])
	case strings.HasPrefix(lower, "shell "):
		command = strings.TrimSpace(prompt[6:])
	default:
		return nil
	}
	if command == "" {
		return nil
	}

	argsJSON, _ := json.Marshal(map[string]string{"command": command})
	return &ToolCall{ID: nextDebugCallID(), Name: "execute_shell", Arguments: argsJSON}
}
