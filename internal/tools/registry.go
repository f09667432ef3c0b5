package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"pagechat/internal/ai"
)

// toolEventCallbackKey is the context key for tool event callbacks
type toolEventCallbackKey struct{}

// ToolEventInfo describes a tool execution event
type ToolEventInfo struct {
	ToolName  string
	EventType string // "start", "complete", "error"
	Args      map[string]any
	Result    string
	Error     string
	Duration  time.Duration
}

// ToolEventCallback is called during tool execution to notify listeners
type ToolEventCallback func(event ToolEventInfo)

// WithToolEventCallback returns a context with a tool event callback attached
func WithToolEventCallback(ctx context.Context, cb ToolEventCallback) context.Context {
	return context.WithValue(ctx, toolEventCallbackKey{}, cb)
}

func notify(ctx context.Context, ev ToolEventInfo) {
	if cb, _ := ctx.Value(toolEventCallbackKey{}).(ToolEventCallback); cb != nil {
		cb(ev)
	}
}

// ExecutionResult wraps a tool result with call metadata
type ExecutionResult struct {
	ToolCall ai.ToolCall
	Result   *Result
	Err      error
	Duration time.Duration
}

// Registry manages available tools and their execution
type Registry struct {
	tools  map[string]Tool
	order  []string
	logger *log.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(t Tool) error {
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	r.tools[t.Name()] = t
	r.order = append(r.order, t.Name())
	return nil
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns the model-facing tool definitions in registration order.
func (r *Registry) Definitions() []ai.Tool {
	defs := make([]ai.Tool, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, ai.Tool{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// Execute runs a single tool call. Unknown tools and tool failures produce
// an error result whose Content is fit to hand back to the model.
func (r *Registry) Execute(ctx context.Context, call ai.ToolCall) *ExecutionResult {
	start := time.Now()
	res := &ExecutionResult{ToolCall: call}

	notify(ctx, ToolEventInfo{ToolName: call.Name, EventType: "start", Args: call.Args})

	tool, ok := r.tools[call.Name]
	if !ok {
		res.Result = NewErrorResult("tool_not_found", fmt.Sprintf("tool '%s' not found", call.Name))
		res.Err = fmt.Errorf("tool %q not found", call.Name)
	} else {
		res.Result, res.Err = tool.Execute(ctx, call.Args)
		if res.Err != nil && res.Result == nil {
			res.Result = NewErrorResult("execution_failed", fmt.Sprintf("tool '%s' failed: %v", call.Name, res.Err))
		}
	}
	res.Duration = time.Since(start)

	if res.Err != nil {
		r.logger.Warn("tool execution failed", "tool", call.Name, "err", res.Err, "elapsed", res.Duration)
		notify(ctx, ToolEventInfo{ToolName: call.Name, EventType: "error", Error: res.Err.Error(), Duration: res.Duration})
		return res
	}

	r.logger.Debug("tool executed", "tool", call.Name, "elapsed", res.Duration)
	notify(ctx, ToolEventInfo{ToolName: call.Name, EventType: "complete", Result: res.Result.Content, Duration: res.Duration})
	return res
}
