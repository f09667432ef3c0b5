// Package agent runs grounded conversations over the ingested page.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"pagechat/internal/ai"
	"pagechat/internal/tools"
	"pagechat/vecgo"
)

// DefaultMaxToolIterations bounds tool rounds per user turn.
const DefaultMaxToolIterations = 3

// ErrEmptyMessage is returned by Send for blank input.
var ErrEmptyMessage = errors.New("empty message")

// State is the agent's position in a turn.
type State int

const (
	AwaitingUser State = iota
	ModelThinking
	ToolPending
	Responding
)

func (s State) String() string {
	switch s {
	case AwaitingUser:
		return "awaiting_user"
	case ModelThinking:
		return "model_thinking"
	case ToolPending:
		return "tool_pending"
	case Responding:
		return "responding"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config tunes a conversation.
type Config struct {
	Model             string // empty uses the provider's configured model
	MaxTokens         int
	MaxToolIterations int
}

// Reply is the outcome of one user turn.
type Reply struct {
	Content   string
	Turns     []ai.ChatMessage // every turn appended to history, user turn first
	Retrieved []vecgo.Result   // injected chunks followed by chunks fetched through tools
	Steps     int              // model calls made
	Usage     ai.Usage
	Duration  time.Duration
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the agent logger.
func WithLogger(l *log.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithStateHook registers fn to observe every state transition.
func WithStateHook(fn func(State)) Option {
	return func(a *Agent) { a.onState = fn }
}

// Agent holds one conversation. Turns are processed one at a time.
type Agent struct {
	provider ai.Provider
	injector *Injector
	registry *tools.Registry
	cfg      Config
	logger   *log.Logger
	onState  func(State)

	turn    sync.Mutex // held for the duration of Send
	mu      sync.RWMutex
	state   State
	history []ai.ChatMessage
}

// New creates an agent. registry may be nil, in which case no tools are offered.
func New(provider ai.Provider, injector *Injector, registry *tools.Registry, cfg Config, opts ...Option) *Agent {
	if cfg.MaxToolIterations < 0 {
		cfg.MaxToolIterations = 0
	}
	a := &Agent{
		provider: provider,
		injector: injector,
		registry: registry,
		cfg:      cfg,
		state:    AwaitingUser,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = log.Default()
	}
	return a
}

// Send runs one user turn to completion. On failure history is restored to
// its state before the call and the agent is left awaiting the user. Model
// failures are reported as *ai.ModelServiceError.
func (a *Agent) Send(ctx context.Context, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	a.turn.Lock()
	defer a.turn.Unlock()

	start := time.Now()
	history := a.History()
	checkpoint := len(history)
	history = append(history, ai.ChatMessage{Role: ai.RoleUser, Content: text})

	a.setState(ModelThinking)
	defer a.setState(AwaitingUser)

	inj, err := a.injector.Inject(ctx, history)
	if err != nil {
		a.logger.Error("context injection failed", "err", err)
		return nil, err
	}

	reply := &Reply{Retrieved: append([]vecgo.Result(nil), inj.Results...)}
	var defs []ai.Tool
	if a.registry != nil {
		defs = a.registry.Definitions()
	}

	for iteration := 0; ; {
		offered := defs
		if iteration >= a.cfg.MaxToolIterations {
			offered = nil
		}

		resp, err := a.provider.GenerateResponse(ctx, &ai.GenerateRequest{
			Messages:  a.injector.Messages(inj, history),
			Model:     a.cfg.Model,
			Tools:     offered,
			MaxTokens: a.cfg.MaxTokens,
		})
		reply.Steps++
		if err != nil {
			a.logger.Error("model call failed", "provider", a.provider.Name(), "step", reply.Steps, "err", err)
			return nil, a.modelError(err)
		}
		reply.Usage.Add(resp.Usage)

		if len(resp.ToolCalls) == 0 || len(offered) == 0 {
			a.setState(Responding)
			history = append(history, ai.ChatMessage{Role: ai.RoleAssistant, Content: resp.Content})
			reply.Content = resp.Content
			break
		}

		a.setState(ToolPending)
		history = append(history, ai.ChatMessage{Role: ai.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			res := a.registry.Execute(ctx, call)
			history = append(history, ai.ChatMessage{
				Role:       ai.RoleTool,
				Content:    formatToolResult(res),
				ToolCallID: call.ID,
			})
			if res.Result != nil {
				if found, ok := res.Result.Artifact.([]vecgo.Result); ok {
					reply.Retrieved = append(reply.Retrieved, found...)
				}
			}
		}
		iteration++
		a.setState(ModelThinking)
	}

	reply.Turns = append([]ai.ChatMessage(nil), history[checkpoint:]...)
	reply.Duration = time.Since(start)

	a.mu.Lock()
	a.history = history
	a.mu.Unlock()

	a.logger.Debug("turn complete", "steps", reply.Steps, "retrieved", len(reply.Retrieved), "elapsed", reply.Duration)
	return reply, nil
}

// History returns a copy of the conversation so far.
func (a *Agent) History() []ai.ChatMessage {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]ai.ChatMessage(nil), a.history...)
}

// State returns the current turn state.
func (a *Agent) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Reset clears the conversation. It waits for an in-flight turn to finish.
func (a *Agent) Reset() {
	a.turn.Lock()
	defer a.turn.Unlock()

	a.mu.Lock()
	a.history = nil
	a.state = AwaitingUser
	a.mu.Unlock()
}

func (a *Agent) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
	if a.onState != nil {
		a.onState(s)
	}
}

func (a *Agent) modelError(err error) error {
	var mse *ai.ModelServiceError
	if errors.As(err, &mse) {
		return mse
	}
	return &ai.ModelServiceError{
		Provider:   a.provider.Name(),
		Model:      a.cfg.Model,
		StatusCode: ai.StatusCode(err),
		Err:        err,
	}
}

// formatToolResult renders a tool outcome for the model.
func formatToolResult(res *tools.ExecutionResult) string {
	if res.Result == nil {
		if res.Err != nil {
			return fmt.Sprintf("Tool '%s' failed: %v", res.ToolCall.Name, res.Err)
		}
		return fmt.Sprintf("Tool '%s' executed but returned no result", res.ToolCall.Name)
	}
	if res.Result.Content == "" && !res.Result.Success {
		return fmt.Sprintf("Tool '%s' failed: %s", res.ToolCall.Name, res.Result.Error)
	}
	return res.Result.Content
}
