package llm

// Role represents a chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single message in a conversation.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // For tool result messages
	Name       string     `json:"name,omitempty"`         // Tool name on tool result messages
}

// ToolCall represents a tool invocation requested by the LLM.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"arguments"`
}

// ToolDef declares a tool the LLM may call.
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// CompletionKind discriminates the two outcomes of a completion call.
type CompletionKind int

const (
	CompletionText CompletionKind = iota
	CompletionToolCall
)

// Completion is the result of a single completion round trip: either plain
// assistant text or a request to invoke one tool. If the provider returns
// more than one tool call only the first is carried (documented limitation).
type Completion struct {
	Kind     CompletionKind
	Content  string
	ToolCall *ToolCall
}

// Helper constructors

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolResultMessage builds the synthetic tool-role message appended after a
// tool has been executed.
func ToolResultMessage(toolName, content string) Message {
	return Message{Role: RoleTool, Content: content, Name: toolName}
}
