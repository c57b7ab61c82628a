package tools

import "fmt"

// ErrUnknownTool is returned when a call names a tool that is not in the
// registry. Invoke does not return it; it turns it into a structured
// result the model can read and react to.
type ErrUnknownTool struct {
	ToolName string
}

// Error implements the error interface. The text is what the model sees.
func (e *ErrUnknownTool) Error() string {
	return "Unknown tool: " + e.ToolName
}

// ExecutionError wraps a failure raised by a tool handler. Unlike a bad
// tool name or bad arguments, this is not something the model can fix by
// asking again, so the agent loop treats it as fatal.
type ExecutionError struct {
	Tool string
	Err  error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

// Unwrap returns the handler's error.
func (e *ExecutionError) Unwrap() error { return e.Err }
