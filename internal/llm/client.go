// Package llm provides LLM client implementations.
package llm

import "context"

// Client is the interface that all LLM providers must implement. One
// Chat call produces exactly one assistant turn: free text, requested
// tool calls, or both. Clients never retry on their own; any transport
// or provider failure is returned as an error.
type Client interface {
	// Chat sends the ordered history and the advertised tool
	// definitions and returns the model's next turn.
	Chat(ctx context.Context, model string, messages []Message, tools []map[string]any, opts Options) (*ChatResponse, error)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}
