package agent

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when Run is called on an Agent that is already
// running a goal.
var ErrBusy = errors.New("agent: a run is already in progress")

// GatewayError is a failed model query. The run is aborted and the
// query is not retried.
type GatewayError struct {
	Model string
	Step  int
	Err   error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("llm gateway failed (model %s, step %d): %v", e.Model, e.Step, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// ToolError is a failed tool execution. Err is usually a
// *tools.ExecutionError.
type ToolError struct {
	Tool   string
	CallID string
	Step   int
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed (call %s, step %d): %v", e.Tool, e.CallID, e.Step, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }
