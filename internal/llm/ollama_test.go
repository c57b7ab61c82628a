package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseTextToolCalls(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantName string
		wantArgs string
		wantN    int
	}{
		{"plain text", "The answer is 4.", "", "", 0},
		{"single object", `{"name":"calculator","arguments":{"expression":"2+2"}}`, "calculator", `{"expression":"2+2"}`, 1},
		{"array", `[{"name":"fetch_url","arguments":{"url":"https://x"}},{"name":"calculator","arguments":{}}]`, "fetch_url", `{"url":"https://x"}`, 2},
		{"tagged", "<tool_call>\n{\"name\":\"web_search\",\"arguments\":{\"query\":\"go\"}}\n</tool_call>", "web_search", `{"query":"go"}`, 1},
		{"tagged unclosed", `<tool_call>{"name":"web_search","arguments":{"query":"go"}}`, "web_search", `{"query":"go"}`, 1},
		{"string arguments", `{"name":"calculator","arguments":"{\"expression\":\"1+1\"}"}`, "calculator", `{"expression":"1+1"}`, 1},
		{"object without name", `{"foo":"bar"}`, "", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTextToolCalls(tt.content)
			if len(got) != tt.wantN {
				t.Fatalf("got %d calls, want %d", len(got), tt.wantN)
			}
			if tt.wantN == 0 {
				return
			}
			if got[0].Function.Name != tt.wantName {
				t.Errorf("name = %q, want %q", got[0].Function.Name, tt.wantName)
			}
			if got[0].Function.Arguments != tt.wantArgs {
				t.Errorf("arguments = %q, want %q", got[0].Function.Arguments, tt.wantArgs)
			}
		})
	}
}

func TestConvertToOllama_ArgumentsAsObject(t *testing.T) {
	msgs := convertToOllama([]Message{{
		Role:      RoleAssistant,
		ToolCalls: []ToolCall{{ID: "c1", Function: FunctionCall{Name: "calculator", Arguments: `{"expression":"3*3"}`}}},
	}})

	raw, err := json.Marshal(msgs[0])
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		ToolCalls []struct {
			Function struct {
				Arguments map[string]any `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("arguments should serialize as an object: %v", err)
	}
	if decoded.ToolCalls[0].Function.Arguments["expression"] != "3*3" {
		t.Errorf("arguments = %v", decoded.ToolCalls[0].Function.Arguments)
	}
}

func TestOllamaChat_Wire(t *testing.T) {
	var captured ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode: %v", err)
		}
		io.WriteString(w, `{
			"model": "qwen",
			"done": true,
			"done_reason": "stop",
			"message": {"role": "assistant", "content": "", "tool_calls": [{"function": {"name": "calculator", "arguments": {"expression": "17*23"}}}]},
			"prompt_eval_count": 20,
			"eval_count": 4
		}`)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, nil)
	resp, err := c.Chat(context.Background(), "qwen", []Message{{Role: RoleUser, Content: "17*23"}}, nil, Options{Temperature: 0.2, TopP: 0.9})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if captured.Stream {
		t.Error("requests must not stream")
	}
	if captured.Options.Temperature != 0.2 || captured.Options.TopP != 0.9 {
		t.Errorf("options = %+v", captured.Options)
	}
	if len(resp.Message.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d", len(resp.Message.ToolCalls))
	}
	// Ollama supplies no call IDs.
	if resp.Message.ToolCalls[0].ID != "" {
		t.Errorf("unexpected ID %q", resp.Message.ToolCalls[0].ID)
	}
	if resp.Message.ToolCalls[0].Function.Arguments != `{"expression": "17*23"}` {
		t.Errorf("arguments = %q", resp.Message.ToolCalls[0].Function.Arguments)
	}
	if resp.InputTokens != 20 || resp.OutputTokens != 4 {
		t.Errorf("tokens = %d/%d", resp.InputTokens, resp.OutputTokens)
	}
}

func TestOllamaChat_TextToolCallRecovered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"model":"m","done":true,"message":{"role":"assistant","content":"{\"name\":\"calculator\",\"arguments\":{\"expression\":\"1+1\"}}"}}`)
	}))
	defer srv.Close()

	resp, err := NewOllamaClient(srv.URL, nil).Chat(context.Background(), "m", []Message{{Role: RoleUser, Content: "x"}}, nil, Options{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content != "" {
		t.Errorf("content should be cleared, got %q", resp.Message.Content)
	}
	if len(resp.Message.ToolCalls) != 1 || resp.Message.ToolCalls[0].Function.Name != "calculator" {
		t.Errorf("tool calls = %+v", resp.Message.ToolCalls)
	}
}
