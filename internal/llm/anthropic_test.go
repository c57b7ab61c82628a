package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConvertToAnthropic(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "You are a research assistant."},
		{Role: RoleUser, Content: "Hello!"},
		{Role: RoleAssistant, Content: "Hi there!"},
		{Role: RoleUser, Content: "What is 17*23?"},
	}

	result, system := convertToAnthropic(messages)

	if system != "You are a research assistant." {
		t.Errorf("expected system prompt extracted, got %q", system)
	}
	if len(result) != 3 {
		t.Fatalf("expected 3 messages (no system), got %d", len(result))
	}
	if result[0].Role != RoleUser {
		t.Errorf("expected first message to be user, got %s", result[0].Role)
	}
}

func TestConvertToAnthropicWithToolCalls(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "Compute things."},
		{
			Role: RoleAssistant,
			ToolCalls: []ToolCall{
				NewToolCall("toolu_1", "calculator", map[string]any{"expression": "17*23"}),
				{ID: "toolu_2", Function: FunctionCall{Name: "calculator", Arguments: "{not json"}},
			},
		},
		{Role: RoleTool, Content: "391", ToolCallID: "toolu_1"},
		{Role: RoleTool, Content: "Error: bad", ToolCallID: "toolu_2"},
	}

	result, _ := convertToAnthropic(messages)

	// user, assistant with tool_use, one user with both tool_results
	if len(result) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(result))
	}

	blocks, ok := result[1].Content.([]anthropicContent)
	if !ok {
		t.Fatal("expected assistant content to be []anthropicContent")
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 tool_use blocks, got %d", len(blocks))
	}
	input, ok := blocks[0].Input.(map[string]any)
	if !ok || input["expression"] != "17*23" {
		t.Errorf("tool_use input = %#v", blocks[0].Input)
	}
	if input, ok := blocks[1].Input.(map[string]any); !ok || len(input) != 0 {
		t.Errorf("malformed arguments should become empty input, got %#v", blocks[1].Input)
	}

	results, ok := result[2].Content.([]anthropicContent)
	if !ok {
		t.Fatal("expected tool results to be []anthropicContent")
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 tool_result blocks, got %d", len(results))
	}
	if results[0].ToolUseID != "toolu_1" || results[1].ToolUseID != "toolu_2" {
		t.Errorf("tool_result ids = %q, %q", results[0].ToolUseID, results[1].ToolUseID)
	}
	if result[2].Role != RoleUser {
		t.Errorf("tool results must be sent as user, got %s", result[2].Role)
	}
}

func TestConvertToolsToAnthropic(t *testing.T) {
	tools := []map[string]any{
		{
			"type": "function",
			"function": map[string]any{
				"name":        "calculator",
				"description": "Evaluate arithmetic",
				"parameters":  map[string]any{"type": "object"},
			},
		},
		{"type": "function"}, // no function body, skipped
	}

	got := convertToolsToAnthropic(tools)
	if len(got) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(got))
	}
	if got[0].Name != "calculator" || got[0].Description != "Evaluate arithmetic" {
		t.Errorf("unexpected tool: %+v", got[0])
	}
	if convertToolsToAnthropic(nil) != nil {
		t.Error("expected nil for no tools")
	}
}

func TestConvertFromAnthropic(t *testing.T) {
	resp := &anthropicResponse{
		Role:  "assistant",
		Model: "claude-test",
		Content: []anthropicContent{
			{Type: "text", Text: "Let me compute."},
			{Type: "tool_use", ID: "toolu_9", Name: "calculator", Input: map[string]any{"expression": "2+2"}},
		},
		StopReason: "tool_use",
		Usage:      anthropicUsage{InputTokens: 10, OutputTokens: 5},
	}

	got := convertFromAnthropic(resp)
	if got.Message.Content != "Let me compute." {
		t.Errorf("content = %q", got.Message.Content)
	}
	if len(got.Message.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d", len(got.Message.ToolCalls))
	}
	tc := got.Message.ToolCalls[0]
	if tc.ID != "toolu_9" || tc.Function.Name != "calculator" {
		t.Errorf("tool call = %+v", tc)
	}
	if tc.Function.Arguments != `{"expression":"2+2"}` {
		t.Errorf("arguments = %q", tc.Function.Arguments)
	}
	if got.FinishReason != "tool_use" || got.InputTokens != 10 || got.OutputTokens != 5 {
		t.Errorf("metadata = %+v", got)
	}
}

func TestAnthropicChat_Wire(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "sk-test" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"role":"assistant","model":"claude-test","content":[{"type":"text","text":"4"}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":1}}`)
	}))
	defer srv.Close()

	c := NewAnthropicClient(srv.URL, "sk-test", nil)
	resp, err := c.Chat(context.Background(), "claude-test",
		[]Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "2+2?"}},
		nil, Options{Temperature: 0.2, TopP: 1.0})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content != "4" {
		t.Errorf("content = %q", resp.Message.Content)
	}
	if captured["system"] != "sys" {
		t.Errorf("system = %v", captured["system"])
	}
	if captured["temperature"] != 0.2 {
		t.Errorf("temperature = %v", captured["temperature"])
	}
	if _, ok := captured["top_p"]; ok {
		t.Error("top_p of 1.0 should not be sent")
	}
}

func TestAnthropicChat_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, 529)
	}))
	defer srv.Close()

	c := NewAnthropicClient(srv.URL, "sk-test", nil)
	if _, err := c.Chat(context.Background(), "m", []Message{{Role: RoleUser, Content: "hi"}}, nil, Options{}); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}
