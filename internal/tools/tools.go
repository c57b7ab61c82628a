// Package tools defines the tool registry the agent advertises to its
// model and dispatches tool calls through.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Handler executes a tool. Returning a string records it verbatim;
// any other value is recorded as JSON (see Encode). A non-nil error is
// a tool execution failure.
type Handler func(ctx context.Context, args Args) (any, error)

// Tool represents a callable tool.
type Tool struct {
	Name        string
	Description string
	Schema      Schema
	Handler     Handler
}

// Spec is the advertised shape of a tool.
type Spec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Registry holds available tools in registration order.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*Tool
	order  []string
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]*Tool),
		logger: logger,
	}
}

// Register adds a tool. Names must be unique and non-empty, the handler
// must be set, and declared defaults must fit their parameter kinds.
func (r *Registry) Register(t *Tool) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("register tool: empty name")
	}
	if t.Handler == nil {
		return fmt.Errorf("register tool %s: nil handler", t.Name)
	}
	if err := t.Schema.validate(); err != nil {
		return fmt.Errorf("register tool %s: %w", t.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("register tool %s: already registered", t.Name)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Get returns a tool by name, or nil.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Lookup returns a tool by name or an *ErrUnknownTool.
func (r *Registry) Lookup(name string) (*Tool, error) {
	if t := r.Get(name); t != nil {
		return t, nil
	}
	return nil, &ErrUnknownTool{ToolName: name}
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ListSpecs returns the name, description, and parameter schema of
// every tool in registration order.
func (r *Registry) ListSpecs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		specs = append(specs, Spec{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Schema.JSON(),
		})
	}
	return specs
}

// Definitions returns the tools as function definitions in the
// OpenAI-compatible shape every llm.Client accepts.
func (r *Registry) Definitions() []map[string]any {
	specs := r.ListSpecs()
	defs := make([]map[string]any, 0, len(specs))
	for _, s := range specs {
		defs = append(defs, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        s.Name,
				"description": s.Description,
				"parameters":  s.Parameters,
			},
		})
	}
	return defs
}

// Invoke runs the named tool with raw, model-supplied argument text.
//
// Problems the model can correct come back as a structured result with
// an "error" key and a nil error: an unknown tool name, or a required
// argument that is still missing after coercion. Argument text that is
// not a JSON object is treated as no arguments. Only a failing handler
// produces an error, always an *ExecutionError.
func (r *Registry) Invoke(ctx context.Context, name, raw string) (any, error) {
	t, err := r.Lookup(name)
	if err != nil {
		var unknown *ErrUnknownTool
		if errors.As(err, &unknown) {
			r.logger.Warn("unknown tool requested", "tool", name)
			return map[string]any{"error": unknown.Error()}, nil
		}
		return nil, err
	}

	decoded, err := decodeObject(raw)
	if err != nil {
		r.logger.Warn("malformed tool arguments, using none",
			"tool", name,
			"error", err,
			"raw", truncate(raw, 200),
		)
		decoded = map[string]any{}
	}

	args, dropped := t.Schema.Coerce(decoded)
	if len(dropped) > 0 {
		r.logger.Debug("dropped tool arguments", "tool", name, "dropped", dropped)
	}

	for _, p := range t.Schema.Params {
		if p.Required && !args.Has(p.Name) {
			r.logger.Warn("tool call missing required argument", "tool", name, "arg", p.Name)
			return map[string]any{"error": "Missing required argument: " + p.Name}, nil
		}
	}

	r.logger.Debug("executing tool", "tool", name, "args", args.Map())

	result, err := r.call(ctx, t, args)
	if err != nil {
		return nil, &ExecutionError{Tool: name, Err: err}
	}
	return result, nil
}

// call runs the handler. A panicking handler is reported as an error.
func (r *Registry) call(ctx context.Context, t *Tool, args Args) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("tool handler panicked", "tool", t.Name, "panic", p)
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	return t.Handler(ctx, args)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
