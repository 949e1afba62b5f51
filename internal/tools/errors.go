package tools

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTool is returned when a tool name is not registered. The chat
// orchestrator turns it into a graceful fallback reply instead of an error.
var ErrUnknownTool = errors.New("unknown tool")

// InvalidArgumentsError reports required parameters absent from a tool
// invocation, caught before the handler runs.
type InvalidArgumentsError struct {
	Tool    string
	Missing []string
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("tool %s: missing required arguments: %s", e.Tool, strings.Join(e.Missing, ", "))
}

// ExecutionError wraps a failure from the tool's underlying action.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
