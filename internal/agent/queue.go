package agent

import "github.com/nugget/agentic/internal/llm"

// callQueue hands out one turn's tool calls first in, first out.
type callQueue struct {
	calls []llm.ToolCall
}

func newCallQueue(calls []llm.ToolCall) *callQueue {
	q := &callQueue{calls: make([]llm.ToolCall, len(calls))}
	copy(q.calls, calls)
	return q
}

func (q *callQueue) pop() (llm.ToolCall, bool) {
	if len(q.calls) == 0 {
		return llm.ToolCall{}, false
	}
	tc := q.calls[0]
	q.calls = q.calls[1:]
	return tc, true
}

func (q *callQueue) len() int { return len(q.calls) }
