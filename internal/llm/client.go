package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// Gateway is the interface for LLM interactions.
type Gateway interface {
	// Complete performs exactly one completion round trip. The system
	// instruction, when non-empty, is prepended as the provider's system
	// message; tools, when non-empty, are advertised for function calling.
	Complete(ctx context.Context, messages []Message, systemInstruction string, tools []ToolDef) (*Completion, error)

	// CompleteStructured performs one completion constrained to the given
	// JSON schema and returns the raw JSON payload.
	CompleteStructured(ctx context.Context, prompt, schemaName string, schema map[string]any) (json.RawMessage, error)
}

// OpenAICompatClient works with any OpenAI-compatible API (Gemini's
// OpenAI-compat endpoint, OpenAI, Ollama). The zero value is an
// uninitialized client: every call fails with the unavailable kind without
// attempting a request.
type OpenAICompatClient struct {
	client *openai.Client
	model  string
}

// NewClient creates an LLM client for the given provider. An empty API key
// leaves the client handle uninitialized so the service can still start and
// answer with a classified error per request.
func NewClient(baseURL, apiKey, model string) *OpenAICompatClient {
	c := &OpenAICompatClient{model: model}
	if apiKey == "" {
		return c
	}
	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)
	c.client = &client
	return c
}

// Ready reports whether the provider client handle was initialized.
func (c *OpenAICompatClient) Ready() bool {
	return c.client != nil
}

func (c *OpenAICompatClient) Complete(ctx context.Context, messages []Message, systemInstruction string, tools []ToolDef) (*Completion, error) {
	if c.client == nil {
		return nil, newError(KindUnavailable, "provider client is not initialized", nil)
	}
	if len(messages) == 0 {
		return nil, newError(KindUnexpected, "empty message sequence", nil)
	}

	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: convertMessages(messages, systemInstruction),
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}
	if len(completion.Choices) == 0 {
		return nil, newError(KindUnexpected, "no choices returned", nil)
	}

	choice := completion.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return &Completion{Kind: CompletionText, Content: choice.Message.Content}, nil
	}

	// Only the first requested tool call is honored.
	tc := choice.Message.ToolCalls[0]
	var args map[string]any
	if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
		args = map[string]any{"_raw": tc.Function.Arguments}
	}
	id := tc.ID
	if id == "" {
		id = uuid.New().String()
	}
	return &Completion{
		Kind: CompletionToolCall,
		ToolCall: &ToolCall{
			ID:   id,
			Name: tc.Function.Name,
			Args: args,
		},
	}, nil
}

// classify maps a transport error to a gateway error kind. Provider-level
// failures (rate limit, invalid request, auth) arrive as *openai.Error.
func classify(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return newError(KindProvider, fmt.Sprintf("provider returned status %d", apierr.StatusCode), err)
	}
	return newError(KindUnexpected, "completion failed", err)
}

// convertMessages maps the four logical roles onto the provider's binary
// role model: user and tool speak for the requesting party, assistant and
// system for the model party. The collapse is lossy on purpose; changing it
// would alter observed model behavior.
func convertMessages(msgs []Message, systemInstruction string) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if systemInstruction != "" {
		out = append(out, openai.SystemMessage(systemInstruction))
	}
	for _, m := range msgs {
		switch m.Role {
		case RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case RoleTool:
			out = append(out, openai.UserMessage(frameToolResult(m)))
		default: // RoleAssistant, RoleSystem
			out = append(out, openai.AssistantMessage(m.Content))
		}
	}
	return out
}

// frameToolResult renders a tool result as requester-side text, mirroring
// the function-response payload shape the original wire format used.
func frameToolResult(m Message) string {
	payload, err := json.Marshal(map[string]any{
		"name":     m.Name,
		"response": map[string]string{"summary": m.Content},
	})
	if err != nil {
		return m.Content
	}
	return "[tool result] " + string(payload)
}

func convertTools(tools []ToolDef) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: param.NewOpt(t.Description),
				Parameters:  shared.FunctionParameters(t.Parameters),
			},
		})
	}
	return out
}
