// Package agent implements the core agent loop.
package agent

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nugget/agentic/internal/llm"
	"github.com/nugget/agentic/internal/memory"
	"github.com/nugget/agentic/internal/prompts"
	"github.com/nugget/agentic/internal/tools"
)

// DefaultMaxSteps is the step budget used when Config.MaxSteps is unset.
const DefaultMaxSteps = 8

// UnsupportedCallType is the tool result recorded for a call the agent
// cannot dispatch.
const UnsupportedCallType = "Unsupported tool call type"

// State is a position in the loop's state machine.
type State int

const (
	StateAwaitingModel State = iota
	StateExecutingTools
	StateDone
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "AWAITING_MODEL"
	case StateExecutingTools:
		return "EXECUTING_TOOLS"
	case StateDone:
		return "DONE"
	case StateExhausted:
		return "EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}

// Config is fixed for the lifetime of an Agent.
type Config struct {
	Model       string
	MaxSteps    int // gateway queries per Run
	Temperature float64
	TopP        float64
	MaxTokens   int // 0 leaves the provider default

	MaxTurns     int
	Eviction     memory.EvictionPolicy
	SystemPrompt string // empty selects prompts.BaseSystemPrompt
}

// DefaultConfig returns the stock settings for model.
func DefaultConfig(model string) Config {
	return Config{
		Model:       model,
		MaxSteps:    DefaultMaxSteps,
		Temperature: 0.2,
		TopP:        1.0,
		MaxTurns:    memory.DefaultMaxTurns,
		Eviction:    memory.EvictOldest,
	}
}

// Result describes how a Run ended.
type Result struct {
	Content      string
	State        State
	Steps        int // gateway queries made
	ToolCalls    int // tool invocations made
	InputTokens  int
	OutputTokens int
}

// Agent drives one conversation. It owns its memory exclusively; an
// Agent runs one goal at a time, and separate Agents share nothing
// mutable.
type Agent struct {
	cfg     Config
	llm     llm.Client
	tools   *tools.Registry
	memory  *memory.Store
	logger  *slog.Logger
	running atomic.Bool
}

// New creates an Agent and seeds its memory with the system prompt.
func New(cfg Config, client llm.Client, registry *tools.Registry, logger *slog.Logger) *Agent {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.TopP <= 0 {
		cfg.TopP = 1.0
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = prompts.BaseSystemPrompt()
	}
	if registry == nil {
		registry = tools.NewRegistry(logger)
	}
	if logger == nil {
		logger = slog.Default()
	}

	mem := memory.NewStore(cfg.MaxTurns, cfg.Eviction)
	mem.Append(llm.Message{Role: llm.RoleSystem, Content: cfg.SystemPrompt})

	return &Agent{
		cfg:    cfg,
		llm:    client,
		tools:  registry,
		memory: mem,
		logger: logger,
	}
}

// Run pursues goal and returns the final answer, or the max-steps
// fallback when the budget runs out first.
func (a *Agent) Run(ctx context.Context, goal string) (string, error) {
	res, err := a.Process(ctx, goal)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

// Process is Run with the run's accounting. Gateway failures come back
// as *GatewayError, tool failures as *ToolError; neither is retried.
// A call made while another is in flight returns ErrBusy.
func (a *Agent) Process(ctx context.Context, goal string) (*Result, error) {
	if !a.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer a.running.Store(false)

	start := time.Now()
	a.logger.Info("agent run started",
		"model", a.cfg.Model,
		"max_steps", a.cfg.MaxSteps,
		"eviction", a.memory.Policy().String(),
		"goal_len", len(goal),
	)

	a.memory.Append(llm.Message{Role: llm.RoleUser, Content: goal})

	res := &Result{State: StateAwaitingModel}
	defs := a.tools.Definitions()
	opts := llm.Options{
		Temperature: a.cfg.Temperature,
		TopP:        a.cfg.TopP,
		MaxTokens:   a.cfg.MaxTokens,
	}

	for res.State == StateAwaitingModel {
		if res.Steps >= a.cfg.MaxSteps {
			res.State = StateExhausted
			res.Content = prompts.MaxStepsFallback
			break
		}
		res.Steps++

		snapshot := a.memory.Snapshot()
		history := sendable(snapshot)
		a.logger.Debug("querying model",
			"step", res.Steps,
			"messages", len(history),
			"tools", len(defs),
		)

		resp, err := a.llm.Chat(ctx, a.cfg.Model, history, defs, opts)
		if err != nil {
			a.logger.Error("model query failed", "step", res.Steps, "error", err)
			return nil, &GatewayError{Model: a.cfg.Model, Step: res.Steps, Err: err}
		}
		res.InputTokens += resp.InputTokens
		res.OutputTokens += resp.OutputTokens

		turn := resp.Message.Clone()
		turn.Role = llm.RoleAssistant
		turn.ToolCallID = ""
		turn.ToolCalls = normalizeCallIDs(turn.ToolCalls, unansweredCallIDs(snapshot), a.logger)
		a.memory.Append(turn)

		if len(turn.ToolCalls) == 0 {
			res.State = StateDone
			res.Content = turn.Content
			break
		}

		res.State = StateExecutingTools
		n, err := a.executeTools(ctx, res.Steps, turn.ToolCalls)
		res.ToolCalls += n
		if err != nil {
			return nil, err
		}
		res.State = StateAwaitingModel
	}

	a.logger.Info("agent run completed",
		"state", res.State,
		"steps", res.Steps,
		"tool_calls", res.ToolCalls,
		"input_tokens", res.InputTokens,
		"output_tokens", res.OutputTokens,
		"memory_turns", a.memory.Len(),
		"memory_tokens", a.memory.EstimateTokens(),
		"memory", a.MemoryStats(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}

// executeTools runs one turn's calls strictly in the order the model
// listed them, appending each result before the next call starts. Calls
// of a type other than function are answered without running anything.
func (a *Agent) executeTools(ctx context.Context, step int, calls []llm.ToolCall) (int, error) {
	q := newCallQueue(calls)
	executed := 0
	for {
		tc, ok := q.pop()
		if !ok {
			return executed, nil
		}

		if !tc.IsFunction() {
			a.logger.Warn("unsupported tool call type",
				"step", step,
				"type", tc.Type,
				"call_id", tc.ID,
			)
			a.memory.Append(llm.Message{
				Role:       llm.RoleTool,
				Content:    UnsupportedCallType,
				ToolCallID: tc.ID,
			})
			continue
		}

		callStart := time.Now()
		result, err := a.tools.Invoke(ctx, tc.Function.Name, tc.Function.Arguments)
		executed++
		if err != nil {
			a.logger.Error("tool execution failed",
				"step", step,
				"tool", tc.Function.Name,
				"call_id", tc.ID,
				"error", err,
			)
			return executed, &ToolError{Tool: tc.Function.Name, CallID: tc.ID, Step: step, Err: err}
		}

		content := tools.Encode(result)
		a.logger.Debug("tool executed",
			"step", step,
			"tool", tc.Function.Name,
			"call_id", tc.ID,
			"result_len", len(content),
			"remaining", q.len(),
			"elapsed", time.Since(callStart).Round(time.Millisecond),
		)

		a.memory.Append(llm.Message{
			Role:       llm.RoleTool,
			Content:    content,
			ToolCallID: tc.ID,
		})
	}
}

// History returns a copy of the conversation as currently remembered.
func (a *Agent) History() []llm.Message {
	return a.memory.Snapshot()
}

// MemoryStats returns current memory statistics.
func (a *Agent) MemoryStats() map[string]any {
	return a.memory.Stats()
}

// Config returns the agent's effective configuration.
func (a *Agent) Config() Config {
	return a.cfg
}
