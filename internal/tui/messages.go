package tui

import (
	"time"

	"pagechat/internal/agent"
	"pagechat/internal/tools"
)

// ToolActivityInfo represents the state of a tool execution
type ToolActivityInfo struct {
	Name     string
	Status   string // "running", "complete", "error"
	Error    string
	Duration time.Duration
}

// TurnDoneMsg carries the outcome of one agent turn.
type TurnDoneMsg struct {
	Reply *agent.Reply
	Err   error
}

// ToolEventMsg wraps a tool execution lifecycle event
type ToolEventMsg struct {
	tools.ToolEventInfo
}

// StateMsg reports an agent state transition.
type StateMsg struct {
	State agent.State
}

// ThinkingTickMsg drives the KITT scanner animation in the chat view.
type ThinkingTickMsg struct{}
