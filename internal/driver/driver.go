// Package driver implements the Conversation Driver: the turn loop that
// sends a request to an LLM provider, streams its response to the terminal,
// and executes any tool calls it produces, one turn at a time, until one of
// the termination conditions in spec.md §4.7 is reached.
//
// Grounded on the teacher's internal/llm/engine.go runLoop for the overall
// shape (stream, collect tool calls, execute, append, repeat) but trimmed:
// no compaction, no reasoning-token tracking, no parallel tool calls — the
// Approval Gate is interactive, so tool calls within a turn always run
// serially. Streaming-to-terminal and spinner-until-first-chunk behavior is
// grounded on the teacher's internal/tui/chat/streaming.go.
package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samsaffron/whai/internal/llm"
	"github.com/samsaffron/whai/internal/mcp"
	"github.com/samsaffron/whai/internal/render"
	"github.com/samsaffron/whai/internal/session"
	"github.com/samsaffron/whai/internal/tools"
	"github.com/samsaffron/whai/internal/truncate"
)

// maxToolResultTokens bounds a single tool-result before it is appended to
// the message list, per spec.md §4.3.
const maxToolResultTokens = 4000

// gpt5TemperaturePrefix matches the gpt-5 model family, which rejects a
// temperature parameter entirely rather than silently ignoring it.
const gpt5TemperaturePrefix = "gpt-5"

// Outcome reports why the turn loop ended, so the caller (cmd/whai) can pick
// an exit code.
type Outcome int

const (
	// OutcomeDone covers every normal end: no tool calls, all rejected, or
	// every tool call missing its primary argument.
	OutcomeDone Outcome = iota
	OutcomeInterrupted
	OutcomeError
)

// Driver owns one conversation's worth of state: the provider to stream
// from, the tools it may dispatch to, and where to render output.
type Driver struct {
	Provider     llm.Provider
	Model        string
	Temperature  *float32
	Shell        *tools.Shell
	Approval     *tools.Approval
	MCP          *mcp.Manager
	Sink         *render.Sink
	ShellTimeout time.Duration
	SelfLog      *session.Logger
	InvokedAs    string

	// Debug, when set, dumps the raw request and every stream event to
	// stderr via llm.DebugRawRequest/DebugRawEvent, for -v DEBUG runs.
	Debug bool
}

// Run drives the conversation starting from messages (already including the
// system prompt and first user message) until a termination condition
// fires. It returns the final Outcome and, for OutcomeError, the error that
// ended the loop.
func (d *Driver) Run(ctx context.Context, messages []llm.Message, toolSpecs []llm.ToolSpec) (Outcome, error) {
	var turnLog strings.Builder

	for {
		req := d.buildRequest(messages, toolSpecs)

		d.Sink.StartSpinner()
		stream, err := d.Provider.Stream(ctx, req)
		if err != nil {
			d.Sink.StopSpinner()
			return d.reportLLMError(err)
		}

		assistantText, toolCalls, recvErr := d.consumeStream(ctx, stream)
		stream.Close()
		d.Sink.StopSpinner()

		if errors.Is(recvErr, context.Canceled) {
			d.Sink.Warn("Interrupted by user.")
			d.flushSelfLog(turnLog.String())
			return OutcomeInterrupted, nil
		}
		if recvErr != nil {
			d.flushSelfLog(turnLog.String())
			return d.reportLLMError(recvErr)
		}

		if assistantText != "" {
			turnLog.WriteString(assistantText)
		}

		if len(toolCalls) == 0 {
			d.flushSelfLog(turnLog.String())
			return OutcomeDone, nil
		}

		messages = append(messages, buildAssistantMessage(assistantText, toolCalls))

		results, ranAny, err := d.runToolCalls(ctx, toolCalls, &turnLog)
		if err != nil {
			d.flushSelfLog(turnLog.String())
			return OutcomeInterrupted, nil
		}
		messages = append(messages, results...)

		if !ranAny {
			d.flushSelfLog(turnLog.String())
			return OutcomeDone, nil
		}
	}
}

// buildRequest assembles the request for one turn, omitting Temperature
// for the gpt-5 family per its API's rejection of that parameter.
func (d *Driver) buildRequest(messages []llm.Message, toolSpecs []llm.ToolSpec) llm.Request {
	req := llm.Request{
		Model:    d.Model,
		Messages: messages,
		Tools:    toolSpecs,
		Debug:    d.Debug,
		DebugRaw: d.Debug,
	}
	if d.Temperature != nil && !strings.HasPrefix(d.Model, gpt5TemperaturePrefix) {
		req.Temperature = *d.Temperature
	}
	if d.Debug {
		llm.DebugRawRequest(true, d.Provider.Name(), d.Provider.Credential(), req, "Request")
	}
	return req
}

// consumeStream drains one stream to completion, printing text chunks as
// they arrive and buffering tool-call events, which already arrive as
// complete calls from the provider layer (argument reassembly happens
// there, not here).
func (d *Driver) consumeStream(ctx context.Context, stream llm.Stream) (text string, calls []llm.ToolCall, err error) {
	var textBuilder strings.Builder
	first := true

	for {
		select {
		case <-ctx.Done():
			return textBuilder.String(), calls, ctx.Err()
		default:
		}

		event, recvErr := stream.Recv()
		if recvErr == io.EOF {
			return textBuilder.String(), calls, nil
		}
		if recvErr != nil {
			return textBuilder.String(), calls, recvErr
		}
		if d.Debug {
			llm.DebugRawEvent(true, event)
		}

		switch event.Type {
		case llm.EventTextDelta:
			if event.Text == "" {
				continue
			}
			if first {
				d.Sink.StopSpinner()
				first = false
			}
			textBuilder.WriteString(event.Text)
			d.Sink.PrintText(event.Text)
		case llm.EventToolCall:
			if first {
				d.Sink.StopSpinner()
				first = false
			}
			if event.Tool != nil {
				calls = append(calls, *event.Tool)
			}
		case llm.EventError:
			if event.Err != nil {
				return textBuilder.String(), calls, event.Err
			}
		}
	}
}

// runToolCalls executes calls in order, approving each first. It returns
// the tool-result messages to append, whether any call actually ran
// (approved and dispatched, regardless of success), and a non-nil error
// only on interrupt.
func (d *Driver) runToolCalls(ctx context.Context, calls []llm.ToolCall, turnLog *strings.Builder) ([]llm.Message, bool, error) {
	var results []llm.Message
	ranAny := false

	for _, call := range calls {
		select {
		case <-ctx.Done():
			return results, ranAny, ctx.Err()
		default:
		}

		content, ran := d.dispatch(ctx, call, turnLog)
		if ran {
			ranAny = true
		}
		results = append(results, llm.ToolResultMessage(call.ID, call.Name, content))
	}

	return results, ranAny, nil
}

// dispatch routes a single tool call by name, per spec.md §4.7's table, and
// returns its tool-result content plus whether the call was actually
// attempted (false for rejections and missing-argument cases, which count
// toward the "all calls were non-runnable" termination condition).
func (d *Driver) dispatch(ctx context.Context, call llm.ToolCall, turnLog *strings.Builder) (content string, ran bool) {
	switch {
	case call.Name == tools.ShellToolName:
		return d.dispatchShell(ctx, call, turnLog)
	case strings.HasPrefix(call.Name, "mcp_"):
		return d.dispatchMCP(ctx, call)
	default:
		// Not a rejection and not a missing-argument case, so this does not
		// count toward either non-running termination condition: the model
		// gets a corrective tool-result and the loop continues.
		return fmt.Sprintf("Unrecognized tool: %s", call.Name), true
	}
}

func (d *Driver) dispatchShell(ctx context.Context, call llm.ToolCall, turnLog *strings.Builder) (string, bool) {
	var args struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(call.Arguments, &args); err != nil || strings.TrimSpace(args.Command) == "" {
		return "Missing required argument: command", false
	}

	decision := d.Approval.ApproveShell(args.Command)
	if !decision.Approved {
		return tools.RejectedShellResult, false
	}

	d.Sink.PrintCommand(decision.Command)
	fmt.Fprintf(turnLog, "\n$ %s\n", decision.Command)

	result, err := d.Shell.Execute(ctx, decision.Command, d.ShellTimeout)
	if err != nil {
		var toolErr *tools.ToolError
		if errors.As(err, &toolErr) {
			d.Sink.Error(toolErr.Message)
			msg := fmt.Sprintf("Failed to execute command: %s", toolErr.Message)
			out, _ := truncate.Truncate(msg, maxToolResultTokens)
			return out, true
		}
		out, _ := truncate.Truncate(fmt.Sprintf("Failed to execute command: %s", err.Error()), maxToolResultTokens)
		return out, true
	}

	if result.TimedOut {
		secs := int(d.ShellTimeout.Seconds())
		d.Sink.Warn(fmt.Sprintf("command timed out after %ds", secs))
		return tools.TimeoutToolResult(decision.Command, secs), true
	}

	d.Sink.PrintOutput(result.Stdout, result.Stderr, result.ExitCode)
	formatted, _ := truncate.Truncate(tools.FormatResult(decision.Command, result), maxToolResultTokens)
	return formatted, true
}

func (d *Driver) dispatchMCP(ctx context.Context, call llm.ToolCall) (string, bool) {
	if d.MCP == nil {
		return fmt.Sprintf("MCP is not configured; cannot run %s", call.Name), false
	}

	argsPretty := prettyArgs(call.Arguments)
	if !d.Approval.ApproveTool(call.Name, argsPretty, "") {
		return tools.RejectedToolResult, false
	}

	result, err := d.MCP.CallTool(ctx, call.Name, call.Arguments)
	if err != nil {
		d.Sink.Error(err.Error())
		msg := fmt.Sprintf("Failed to execute tool: %s", err.Error())
		out, _ := truncate.Truncate(msg, maxToolResultTokens)
		return out, true
	}

	out, _ := truncate.Truncate(result, maxToolResultTokens)
	return out, true
}

func prettyArgs(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var pretty strings.Builder
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return string(raw)
	}
	return pretty.String()
}

// reportLLMError classifies err, prints the single user-visible line spec.md
// §7 requires, and ends the loop. A context cancellation is reported as an
// interrupt rather than an LLM error.
func (d *Driver) reportLLMError(err error) (Outcome, error) {
	if errors.Is(err, context.Canceled) {
		d.Sink.Warn("Interrupted by user.")
		return OutcomeInterrupted, nil
	}

	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		d.Sink.Error(llmErr.Message)
		return OutcomeError, llmErr
	}

	d.Sink.Error(err.Error())
	return OutcomeError, err
}

// flushSelfLog writes the turn's command/response transcript to the self-log
// when a recording session is active. A no-op Logger (empty path) makes
// this safe to call unconditionally.
func (d *Driver) flushSelfLog(text string) {
	if d.SelfLog == nil || strings.TrimSpace(text) == "" {
		return
	}
	_ = d.SelfLog.Append(session.FormatTurn(d.InvokedAs, text))
}

// buildAssistantMessage renders one assistant turn's text and tool calls as
// a single message with multiple parts, in emission order: text first (if
// any), then each tool call.
func buildAssistantMessage(text string, calls []llm.ToolCall) llm.Message {
	var parts []llm.Part
	if text != "" {
		parts = append(parts, llm.Part{Type: llm.PartText, Text: text})
	}
	for i := range calls {
		call := calls[i]
		parts = append(parts, llm.Part{Type: llm.PartToolCall, ToolCall: &call})
	}
	return llm.Message{Role: llm.RoleAssistant, Parts: parts}
}
