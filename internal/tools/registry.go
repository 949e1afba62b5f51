package tools

import (
	"context"
	"fmt"

	"github.com/tradelm/tradelm-ai/internal/llm"
)

// Handler executes a tool call and returns the result text.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Tool pairs a declaration with its implementation.
type Tool struct {
	Def     llm.ToolDef
	Handler Handler
}

// Result is the outcome of executing one tool invocation.
type Result struct {
	Tool    string `json:"tool_name"`
	Content string `json:"content"`
}

// Registry holds the callable tools. It is populated at startup and
// read-only afterwards, so concurrent Invoke calls need no locking.
type Registry struct {
	order []string        // registration order, used for declarations
	tools map[string]Tool // tool name → tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Names must be unique within the registry.
func (r *Registry) Register(t Tool) error {
	if t.Def.Name == "" {
		return fmt.Errorf("tool has no name")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %s has no handler", t.Def.Name)
	}
	if _, exists := r.tools[t.Def.Name]; exists {
		return fmt.Errorf("tool %s already registered", t.Def.Name)
	}
	r.order = append(r.order, t.Def.Name)
	r.tools[t.Def.Name] = t
	return nil
}

// Declarations returns all tool declarations in registration order. The
// slice is advertised to the model gateway verbatim.
func (r *Registry) Declarations() []llm.ToolDef {
	defs := make([]llm.ToolDef, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Def)
	}
	return defs
}

// HasTools returns true if any tools are registered.
func (r *Registry) HasTools() bool {
	return len(r.tools) > 0
}

// Invoke dispatches a named tool call with the arguments the model
// supplied. Required parameters are validated against the declared schema
// before the handler runs.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (*Result, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if missing := missingRequired(t.Def.Parameters, args); len(missing) > 0 {
		return nil, &InvalidArgumentsError{Tool: name, Missing: missing}
	}
	content, err := t.Handler(ctx, args)
	if err != nil {
		return nil, &ExecutionError{Tool: name, Err: err}
	}
	return &Result{Tool: name, Content: content}, nil
}

// missingRequired checks the schema's "required" list against the supplied
// arguments.
func missingRequired(schema, args map[string]any) []string {
	required, ok := schema["required"]
	if !ok {
		return nil
	}
	var missing []string
	appendMissing := func(name string) {
		if _, present := args[name]; !present {
			missing = append(missing, name)
		}
	}
	switch req := required.(type) {
	case []string:
		for _, name := range req {
			appendMissing(name)
		}
	case []any:
		for _, v := range req {
			if name, ok := v.(string); ok {
				appendMissing(name)
			}
		}
	}
	return missing
}
