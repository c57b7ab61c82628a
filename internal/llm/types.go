package llm

import (
	"encoding/json"
	"log/slog"
)

// LevelTrace is below Debug, used for wire-level payload logging.
const LevelTrace = slog.Level(-8)

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn of a conversation.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // assistant turns requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // tool turns answering a call
}

// Clone returns a copy of m that shares no slices with it.
func (m Message) Clone() Message {
	if m.ToolCalls != nil {
		calls := make([]ToolCall, len(m.ToolCalls))
		copy(calls, m.ToolCalls)
		m.ToolCalls = calls
	}
	return m
}

// ToolCallFunction is the only call type the agent can dispatch.
const ToolCallFunction = "function"

// ToolCall is a tool invocation requested by the model. Type is the
// provider's call type; empty means a function call.
type ToolCall struct {
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function FunctionCall `json:"function"`
}

// IsFunction reports whether the call names a registered-tool function
// rather than some other provider call type.
func (tc ToolCall) IsFunction() bool {
	return tc.Type == "" || tc.Type == ToolCallFunction
}

// FunctionCall names the tool and carries its arguments exactly as the
// model produced them. Arguments is untrusted serialized JSON and may be
// empty or malformed; parsing is the caller's concern.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// NewToolCall builds a ToolCall, serializing structured arguments.
func NewToolCall(id, name string, args map[string]any) ToolCall {
	return ToolCall{
		ID:       id,
		Function: FunctionCall{Name: name, Arguments: encodeArguments(args)},
	}
}

// Options are sampling parameters applied to a single Chat call.
type Options struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// ChatResponse is the unified response from any LLM provider.
type ChatResponse struct {
	Model        string
	Message      Message
	FinishReason string

	InputTokens  int
	OutputTokens int
}

// encodeArguments renders provider-structured arguments as JSON text.
func encodeArguments(args map[string]any) string {
	if args == nil {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// decodeArguments parses raw argument text into an object for providers
// whose wire format wants structured input. Malformed text becomes an
// empty object.
func decodeArguments(raw string) map[string]any {
	args := map[string]any{}
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}
