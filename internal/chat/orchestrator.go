// Package chat turns a conversation history plus the model's tool-calling
// decision into a finished assistant reply.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/tradelm/tradelm-ai/internal/llm"
	"github.com/tradelm/tradelm-ai/internal/tools"
)

// UnknownToolFallback is returned verbatim when the model asks for a tool
// the registry does not know. A product decision, not error masking.
const UnknownToolFallback = "ERROR: Unknown tool requested."

// Request is the chat payload received from the main backend. History never
// contains NewMessage; the orchestrator combines them.
type Request struct {
	UserID     string        `json:"user_id" validate:"required"`
	UserPlan   string        `json:"user_plan" validate:"required"`
	History    []llm.Message `json:"history"`
	NewMessage llm.Message   `json:"new_message" validate:"required"`
}

// Orchestrator runs the per-request state machine:
// Start → FirstQuery → {ToolDispatch → SecondQuery} → Done.
// It holds no state across requests; every invocation is independent.
type Orchestrator struct {
	gateway  llm.Gateway
	registry *tools.Registry
	persona  *Persona
}

// New creates an Orchestrator. A nil persona selects the default TradeLM
// analyst persona.
func New(gateway llm.Gateway, registry *tools.Registry, persona *Persona) *Orchestrator {
	if persona == nil {
		persona = DefaultPersona()
	}
	return &Orchestrator{gateway: gateway, registry: registry, persona: persona}
}

// Respond executes the state machine and yields the final assistant
// message. At most one tool round trip is performed; chained tool calls are
// not supported. Any gateway error at either query step aborts the request.
func (o *Orchestrator) Respond(ctx context.Context, req Request) (llm.Message, error) {
	msgs := collapseHistory(req.History, req.NewMessage)

	first, err := o.gateway.Complete(ctx, msgs, o.persona.Instruction(req.UserPlan), o.registry.Declarations())
	if err != nil {
		return llm.Message{}, fmt.Errorf("first completion: %w", err)
	}
	if first.Kind == llm.CompletionText {
		return llm.AssistantMessage(first.Content), nil
	}

	tc := first.ToolCall
	result, err := o.registry.Invoke(ctx, tc.Name, tc.Args)
	if err != nil {
		if errors.Is(err, tools.ErrUnknownTool) {
			return llm.AssistantMessage(UnknownToolFallback), nil
		}
		return llm.Message{}, fmt.Errorf("dispatching tool: %w", err)
	}

	// Re-query with the tool result at the tail. No tool declarations this
	// time: the model must answer in text.
	msgs = append(msgs, llm.ToolResultMessage(result.Tool, result.Content))
	second, err := o.gateway.Complete(ctx, msgs, "", nil)
	if err != nil {
		return llm.Message{}, fmt.Errorf("second completion: %w", err)
	}
	if second.Kind != llm.CompletionText {
		return llm.Message{}, fmt.Errorf("model requested a chained tool call; not supported")
	}
	return llm.AssistantMessage(second.Content), nil
}

// collapseHistory builds the provider message sequence: history plus the
// new message, each role collapsed onto the provider's two-sided model.
func collapseHistory(history []llm.Message, newMessage llm.Message) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: collapseRole(m.Role), Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: collapseRole(newMessage.Role), Content: newMessage.Content})
	return msgs
}

// collapseRole maps the four logical roles onto the requesting party or the
// model party. user and tool speak for the requester; everything else for
// the model. Lossy on purpose; see the gateway's wire conversion.
func collapseRole(r llm.Role) llm.Role {
	switch r {
	case llm.RoleUser, llm.RoleTool:
		return llm.RoleUser
	default:
		return llm.RoleAssistant
	}
}
