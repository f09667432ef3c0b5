// Package tools holds the callable capabilities offered to the chat model.
package tools

import "context"

// Tool defines the interface for executable tools
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any // JSON schema object
	Execute(ctx context.Context, args map[string]any) (*Result, error)
}

// Result represents the result of a tool execution
type Result struct {
	Success bool   `json:"success"`
	Content string `json:"content"` // text handed back to the model
	Error   string `json:"error,omitempty"`

	// Artifact carries structured output for callers, never sent to the model.
	Artifact any `json:"-"`
}

// NewErrorResult creates a failed result of the given kind.
func NewErrorResult(kind, message string) *Result {
	return &Result{
		Success: false,
		Error:   kind + ": " + message,
		Content: "Error: " + message,
	}
}

func getStringArg(args map[string]any, key, defaultVal string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultVal
}
