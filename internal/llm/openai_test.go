package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConvertToOpenAI(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "17*23?"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Function: FunctionCall{Name: "calculator"}}}},
		{Role: RoleTool, Content: "391", ToolCallID: "call_1"},
	}

	got := convertToOpenAI(messages)
	if len(got) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(got))
	}
	if got[2].Content != nil {
		t.Errorf("tool-only assistant turn should have null content, got %q", *got[2].Content)
	}
	if got[2].ToolCalls[0].Type != "function" {
		t.Errorf("tool call type = %q", got[2].ToolCalls[0].Type)
	}
	if got[2].ToolCalls[0].Function.Arguments != "{}" {
		t.Errorf("empty arguments should be sent as {}, got %q", got[2].ToolCalls[0].Function.Arguments)
	}
	if got[3].ToolCallID != "call_1" || got[3].Content == nil || *got[3].Content != "391" {
		t.Errorf("tool turn = %+v", got[3])
	}
}

func TestConvertFromOpenAI_NoChoices(t *testing.T) {
	if _, err := convertFromOpenAI(&openaiResponse{}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestConvertFromOpenAI_KeepsNonFunctionCalls(t *testing.T) {
	var wire openaiResponse
	body := `{"model":"m","choices":[{"finish_reason":"tool_calls","message":{"role":"assistant","content":null,
		"tool_calls":[{"id":"c1","type":"custom","custom":{"name":"grep","input":"x"}},
		{"id":"c2","type":"function","function":{"name":"calculator","arguments":"{}"}}]}}]}`
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		t.Fatal(err)
	}

	resp, err := convertFromOpenAI(&wire)
	if err != nil {
		t.Fatal(err)
	}
	calls := resp.Message.ToolCalls
	if len(calls) != 2 {
		t.Fatalf("tool calls = %d, want 2", len(calls))
	}
	if calls[0].ID != "c1" || calls[0].Type != "custom" || calls[0].IsFunction() {
		t.Errorf("custom call = %+v", calls[0])
	}
	if calls[1].Type != "" || !calls[1].IsFunction() {
		t.Errorf("function call = %+v", calls[1])
	}

	// Sent back, each call keeps its type.
	out := convertToOpenAI([]Message{resp.Message})
	if out[0].ToolCalls[0].Type != "custom" || out[0].ToolCalls[1].Type != "function" {
		t.Errorf("round-tripped types = %q, %q", out[0].ToolCalls[0].Type, out[0].ToolCalls[1].Type)
	}
}

func TestOpenAIChat_Wire(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"model": "gpt-test",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": null,
					"tool_calls": [{"id": "call_a", "type": "function", "function": {"name": "calculator", "arguments": "{\"expression\":\"17*23\"}"}}]
				}
			}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 7}
		}`)
	}))
	defer srv.Close()

	tools := []map[string]any{{"type": "function", "function": map[string]any{"name": "calculator"}}}
	c := NewOpenAIClient(srv.URL, "sk-test", nil)
	resp, err := c.Chat(context.Background(), "gpt-test",
		[]Message{{Role: RoleUser, Content: "17*23?"}}, tools, Options{Temperature: 0.2, TopP: 1})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if captured["tool_choice"] != "auto" {
		t.Errorf("tool_choice = %v", captured["tool_choice"])
	}
	if captured["temperature"] != 0.2 || captured["top_p"] != 1.0 {
		t.Errorf("sampling = %v / %v", captured["temperature"], captured["top_p"])
	}

	if resp.Message.Content != "" {
		t.Errorf("content = %q", resp.Message.Content)
	}
	if len(resp.Message.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d", len(resp.Message.ToolCalls))
	}
	tc := resp.Message.ToolCalls[0]
	if tc.ID != "call_a" || tc.Function.Arguments != `{"expression":"17*23"}` {
		t.Errorf("tool call = %+v", tc)
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 7 || resp.FinishReason != "tool_calls" {
		t.Errorf("metadata = %+v", resp)
	}
}

func TestOpenAIChat_NoToolsOmitsToolChoice(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"hi"}}]}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "", nil)
	resp, err := c.Chat(context.Background(), "m", []Message{{Role: RoleUser, Content: "hi"}}, nil, Options{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content != "hi" {
		t.Errorf("content = %q", resp.Message.Content)
	}
	if _, ok := captured["tool_choice"]; ok {
		t.Error("tool_choice should be omitted without tools")
	}
}

func TestOpenAIChat_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}},
		{"undecodable", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "<html>not json</html>")
		}},
		{"no choices", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"choices":[]}`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewOpenAIClient(srv.URL, "k", nil)
			if _, err := c.Chat(context.Background(), "m", []Message{{Role: RoleUser, Content: "x"}}, nil, Options{}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestOpenAIPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	if err := NewOpenAIClient(srv.URL, "good", nil).Ping(context.Background()); err != nil {
		t.Errorf("Ping with good key: %v", err)
	}
	if err := NewOpenAIClient(srv.URL, "bad", nil).Ping(context.Background()); err == nil {
		t.Error("Ping with bad key should fail")
	}
}
