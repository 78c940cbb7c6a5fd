package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIProvider implements Provider against the native OpenAI Chat
// Completions streaming API, for the "openai" provider name specifically.
// Any other configured endpoint (Ollama, LM Studio, a company gateway) goes
// through OpenAICompatProvider's hand-rolled HTTP/SSE client instead, since
// those have no dedicated SDK to wire.
type OpenAIProvider struct {
	client     *openai.Client
	model      string
	effort     string
	credential string
}

const defaultOpenAIBaseURL = "https://api.openai.com/v1"
const defaultOpenAIModel = "gpt-5-mini"

// NewOpenAIProvider builds a native OpenAI provider. apiKey, when non-empty,
// takes precedence over the OPENAI_API_KEY environment variable. A model
// name ending in -high/-medium/-low/-minimal selects a reasoning effort
// level rather than naming a distinct model, the way gpt-5-high does.
func NewOpenAIProvider(apiKey, apiBase, model string) (*OpenAIProvider, error) {
	credential := "api_key"
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
		credential = "env"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai: no api_key configured and OPENAI_API_KEY is unset")
	}

	if model == "" {
		model = defaultOpenAIModel
	}
	actualModel, effort := parseModelEffort(model)

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if apiBase != "" && apiBase != defaultOpenAIBaseURL {
		opts = append(opts, option.WithBaseURL(apiBase))
	}
	client := openai.NewClient(opts...)

	return &OpenAIProvider{client: &client, model: actualModel, effort: effort, credential: credential}, nil
}

// parseModelEffort splits a trailing -high/-medium/-low/-minimal suffix off
// model, the way reasoning-capable models select an effort level through the
// model name rather than a separate parameter.
func parseModelEffort(model string) (string, string) {
	for _, effort := range []string{"high", "medium", "low", "minimal"} {
		suffix := "-" + effort
		if strings.HasSuffix(model, suffix) && len(model) > len(suffix) {
			return strings.TrimSuffix(model, suffix), effort
		}
	}
	return model, ""
}

func (p *OpenAIProvider) Name() string {
	if p.effort != "" {
		return fmt.Sprintf("OpenAI (%s-%s)", p.model, p.effort)
	}
	return fmt.Sprintf("OpenAI (%s)", p.model)
}

func (p *OpenAIProvider) Credential() string { return p.credential }

func (p *OpenAIProvider) Capabilities() Capabilities {
	return Capabilities{ToolCalls: true}
}

// ListModels returns the models visible to this API key.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	page, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("openai: list models: %w", err)
	}

	models := make([]ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		models = append(models, ModelInfo{ID: m.ID, DisplayName: m.ID, Created: m.Created, OwnedBy: m.OwnedBy})
	}
	return models, nil
}

func (p *OpenAIProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	messages := buildOpenAIMessages(req.Messages)
	if len(messages) == 0 {
		return nil, fmt.Errorf("openai: no messages provided")
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if len(req.Tools) > 0 {
		params.Tools = buildOpenAITools(req.Tools)
		if req.ToolChoice.Mode != "" {
			params.ToolChoice = buildOpenAIToolChoice(req.ToolChoice)
		}
		if req.ParallelToolCalls {
			params.ParallelToolCalls = openai.Bool(true)
		}
	}

	effort := p.effort
	if req.ReasoningEffort != "" {
		effort = req.ReasoningEffort
	}
	if effort != "" {
		params.ReasoningEffort = shared.ReasoningEffort(effort)
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(float64(req.Temperature))
	}
	if req.TopP > 0 {
		params.TopP = openai.Float(float64(req.TopP))
	}
	if req.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxOutputTokens))
	}

	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		stream := p.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		toolState := newOpenAIToolState()
		var lastUsage *Usage

		for stream.Next() {
			chunk := stream.Current()
			if chunk.Usage.TotalTokens > 0 {
				lastUsage = &Usage{
					InputTokens:  int(chunk.Usage.PromptTokens),
					OutputTokens: int(chunk.Usage.CompletionTokens),
				}
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta
			if delta.Content != "" {
				events <- Event{Type: EventTextDelta, Text: delta.Content}
			}
			if len(delta.ToolCalls) > 0 {
				for _, call := range toolState.Add(delta.ToolCalls) {
					events <- Event{Type: EventToolCall, Tool: &call}
				}
			}
		}
		if err := stream.Err(); err != nil {
			return classify("openai", model, err)
		}

		if lastUsage != nil {
			events <- Event{Type: EventUsage, Use: lastUsage}
		}
		events <- Event{Type: EventDone}
		return nil
	}), nil
}

func buildOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			if text := collectTextParts(msg.Parts); text != "" {
				out = append(out, openai.SystemMessage(text))
			}
		case RoleUser:
			if text := collectTextParts(msg.Parts); text != "" {
				out = append(out, openai.UserMessage(text))
			}
		case RoleAssistant:
			text, toolCalls := splitOpenAIParts(msg.Parts)
			if len(toolCalls) > 0 {
				out = append(out, openai.ChatCompletionMessageParamUnion{
					OfAssistant: &openai.ChatCompletionAssistantMessageParam{
						Content:   openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(text)},
						ToolCalls: toolCalls,
					},
				})
				continue
			}
			if text != "" {
				out = append(out, openai.AssistantMessage(text))
			}
		case RoleTool:
			for _, part := range msg.Parts {
				if part.Type != PartToolResult || part.ToolResult == nil {
					continue
				}
				out = append(out, openai.ToolMessage(part.ToolResult.Content, part.ToolResult.ID))
			}
		}
	}
	return out
}

func splitOpenAIParts(parts []Part) (string, []openai.ChatCompletionMessageToolCallParam) {
	var textParts []string
	var calls []openai.ChatCompletionMessageToolCallParam
	for _, part := range parts {
		switch part.Type {
		case PartText:
			if part.Text != "" {
				textParts = append(textParts, part.Text)
			}
		case PartToolCall:
			if part.ToolCall == nil {
				continue
			}
			calls = append(calls, openai.ChatCompletionMessageToolCallParam{
				ID: part.ToolCall.ID,
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      part.ToolCall.Name,
					Arguments: string(part.ToolCall.Arguments),
				},
			})
		}
	}
	return strings.Join(textParts, ""), calls
}

func buildOpenAITools(specs []ToolSpec) []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        spec.Name,
				Description: openai.String(spec.Description),
				Parameters:  shared.FunctionParameters(spec.Schema),
			},
		})
	}
	return tools
}

func buildOpenAIToolChoice(choice ToolChoice) openai.ChatCompletionToolChoiceOptionUnionParam {
	switch choice.Mode {
	case ToolChoiceNone:
		return openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("none")}
	case ToolChoiceRequired:
		return openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("required")}
	case ToolChoiceName:
		return openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: choice.Name},
			},
		}
	default:
		return openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("auto")}
	}
}

// openaiToolState reassembles streamed tool-call fragments keyed by the
// SDK's own chunk index, which the Chat Completions streaming format
// guarantees stable per call for as long as that call is open. A call is
// complete, and returned from Add, as soon as its accumulated arguments
// parse as a full JSON value and a name has been seen.
type openaiToolState struct {
	byIndex map[int64]*openaiToolCallState
}

type openaiToolCallState struct {
	id   string
	name string
	args strings.Builder
	done bool
}

func newOpenAIToolState() *openaiToolState {
	return &openaiToolState{byIndex: make(map[int64]*openaiToolCallState)}
}

func (s *openaiToolState) Add(deltas []openai.ChatCompletionChunkChoiceDeltaToolCall) []ToolCall {
	var completed []ToolCall

	for _, d := range deltas {
		state, ok := s.byIndex[d.Index]
		if !ok {
			state = &openaiToolCallState{}
			s.byIndex[d.Index] = state
		}
		if state.done {
			continue
		}
		if d.ID != "" {
			state.id = d.ID
		}
		if d.Function.Name != "" {
			state.name = d.Function.Name
		}
		if d.Function.Arguments != "" {
			state.args.WriteString(d.Function.Arguments)
		}

		if state.name == "" || state.args.Len() == 0 {
			continue
		}
		raw := json.RawMessage(state.args.String())
		if !json.Valid(raw) {
			continue
		}

		state.done = true
		completed = append(completed, ToolCall{ID: state.id, Name: state.name, Arguments: raw})
	}

	return completed
}
