package llm

import (
	"context"
	"testing"
)

type namedClient struct {
	name  string
	calls int
}

func (n *namedClient) Chat(_ context.Context, model string, _ []Message, _ []map[string]any, _ Options) (*ChatResponse, error) {
	n.calls++
	return &ChatResponse{Model: model, Message: Message{Role: RoleAssistant, Content: n.name}}, nil
}

func (n *namedClient) Ping(context.Context) error { return nil }

func TestMultiClient_Routing(t *testing.T) {
	fallback := &namedClient{name: "fallback"}
	anthropic := &namedClient{name: "anthropic"}

	m := NewMultiClient(fallback)
	m.AddProvider("anthropic", anthropic)
	m.AddModel("claude-test", "anthropic")
	m.AddModel("orphan-model", "missing-provider")

	tests := []struct {
		model string
		want  string
	}{
		{"claude-test", "anthropic"},
		{"gpt-4o-mini", "fallback"},
		{"orphan-model", "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			resp, err := m.Chat(context.Background(), tt.model, nil, nil, Options{})
			if err != nil {
				t.Fatal(err)
			}
			if resp.Message.Content != tt.want {
				t.Errorf("routed to %q, want %q", resp.Message.Content, tt.want)
			}
		})
	}
}

func TestMultiClient_NoFallback(t *testing.T) {
	m := NewMultiClient(nil)
	if _, err := m.Chat(context.Background(), "x", nil, nil, Options{}); err == nil {
		t.Error("expected error with no provider")
	}
	if err := m.Ping(context.Background()); err == nil {
		t.Error("expected Ping error with no fallback")
	}
}
