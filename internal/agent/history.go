package agent

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/nugget/agentic/internal/llm"
)

// openCalls tracks the calls of one assistant turn while the tool turns
// that follow it are matched up. A nil *openCalls has no calls.
type openCalls struct {
	idx       int // position of the assistant turn in the output
	requested map[string]bool
	answered  map[string]bool
}

func newOpenCalls(idx int, calls []llm.ToolCall) *openCalls {
	o := &openCalls{
		idx:       idx,
		requested: make(map[string]bool, len(calls)),
		answered:  make(map[string]bool, len(calls)),
	}
	for _, tc := range calls {
		o.requested[tc.ID] = true
	}
	return o
}

// answer marks id answered and reports whether it was an open request.
func (o *openCalls) answer(id string) bool {
	if o == nil || !o.requested[id] || o.answered[id] {
		return false
	}
	o.answered[id] = true
	return true
}

// unanswered returns the requested IDs that got no tool turn.
func (o *openCalls) unanswered() []string {
	if o == nil {
		return nil
	}
	var ids []string
	for id := range o.requested {
		if !o.answered[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// prune drops the unanswered calls from the assistant turn at o.idx.
func (o *openCalls) prune(turns []llm.Message) {
	if o == nil {
		return
	}
	var kept []llm.ToolCall
	for _, tc := range turns[o.idx].ToolCalls {
		if o.answered[tc.ID] {
			kept = append(kept, tc)
		}
	}
	turns[o.idx].ToolCalls = kept
}

// sendable returns the remembered turns a provider will accept. Tool
// turns answer the nearest preceding assistant turn. A tool turn with no
// matching request there (its request was evicted) is dropped, and an
// assistant turn keeps only the calls that were answered. Calls go
// unanswered when a tool failure aborted an earlier run.
func sendable(turns []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(turns))
	var open *openCalls
	for _, t := range turns {
		if t.Role == llm.RoleTool {
			if open.answer(t.ToolCallID) {
				out = append(out, t)
			}
			continue
		}
		open.prune(out)
		open = nil
		out = append(out, t)
		if t.Role == llm.RoleAssistant && len(t.ToolCalls) > 0 {
			open = newOpenCalls(len(out)-1, t.ToolCalls)
		}
	}
	open.prune(out)
	return out
}

// unansweredCallIDs collects the IDs of remembered calls that never got
// a tool turn.
func unansweredCallIDs(turns []llm.Message) map[string]bool {
	pending := make(map[string]bool)
	var open *openCalls
	for _, t := range turns {
		if t.Role == llm.RoleTool {
			open.answer(t.ToolCallID)
			continue
		}
		for _, id := range open.unanswered() {
			pending[id] = true
		}
		open = nil
		if t.Role == llm.RoleAssistant && len(t.ToolCalls) > 0 {
			open = newOpenCalls(0, t.ToolCalls)
		}
	}
	for _, id := range open.unanswered() {
		pending[id] = true
	}
	return pending
}

// normalizeCallIDs gives every call an ID that is unique within the turn
// and not held by a still unanswered earlier call, so each tool result
// maps to exactly one request. Other IDs are kept verbatim, including
// ones reused from answered turns. Providers that omit IDs (Ollama) get
// call_<uuid> IDs.
func normalizeCallIDs(calls []llm.ToolCall, pending map[string]bool, logger *slog.Logger) []llm.ToolCall {
	used := make(map[string]bool, len(pending)+len(calls))
	for id := range pending {
		used[id] = true
	}
	for i := range calls {
		id := calls[i].ID
		if id != "" && !used[id] {
			used[id] = true
			continue
		}
		fresh := "call_" + uuid.NewString()
		if id != "" {
			logger.Warn("duplicate tool call id replaced", "id", id, "replacement", fresh)
		}
		calls[i].ID = fresh
		used[fresh] = true
	}
	return calls
}
