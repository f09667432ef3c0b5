package agent

import (
	"context"
	"errors"
	"fmt"

	"pagechat/internal/ai"
	"pagechat/vecgo"
)

// ErrNoUserMessage is returned when there is no user turn to retrieve for.
var ErrNoUserMessage = errors.New("no user message in history")

// Policy controls how the grounding instruction relates to the agent's own
// system prompt.
type Policy string

const (
	// PolicyReplace sends the grounding instruction as the only system message.
	PolicyReplace Policy = "replace"
	// PolicyPrepend places the grounding instruction ahead of the base prompt.
	PolicyPrepend Policy = "prepend"
)

// Retriever fetches serialized context for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (string, []vecgo.Result, error)
}

// Injection is the system instruction built for one user turn.
type Injection struct {
	Query        string
	SystemPrompt string
	Results      []vecgo.Result
}

// Injector retrieves context for the latest user message and turns it into
// the system instruction for the next model call.
type Injector struct {
	retriever  Retriever
	policy     Policy
	basePrompt string
}

// NewInjector creates an injector. An empty policy means PolicyReplace.
func NewInjector(retriever Retriever, policy Policy, basePrompt string) *Injector {
	if policy == "" {
		policy = PolicyReplace
	}
	return &Injector{retriever: retriever, policy: policy, basePrompt: basePrompt}
}

// Policy returns the injection policy in use.
func (i *Injector) Policy() Policy { return i.policy }

// Inject retrieves context for the most recent user message in history.
func (i *Injector) Inject(ctx context.Context, history []ai.ChatMessage) (Injection, error) {
	query, ok := lastUserMessage(history)
	if !ok {
		return Injection{}, ErrNoUserMessage
	}

	contextText, results, err := i.retriever.Retrieve(ctx, query)
	if err != nil {
		return Injection{}, fmt.Errorf("inject context: %w", err)
	}

	prompt := GroundingPrompt(contextText)
	if i.policy == PolicyPrepend {
		prompt = joinSections(prompt, i.basePrompt)
	}

	return Injection{Query: query, SystemPrompt: prompt, Results: results}, nil
}

// Messages builds the message list for a model call: the injected system
// message followed by history with any earlier system messages dropped.
func (i *Injector) Messages(inj Injection, history []ai.ChatMessage) []ai.ChatMessage {
	msgs := make([]ai.ChatMessage, 0, len(history)+1)
	msgs = append(msgs, ai.ChatMessage{Role: ai.RoleSystem, Content: inj.SystemPrompt})
	for _, m := range history {
		if m.Role == ai.RoleSystem {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func lastUserMessage(history []ai.ChatMessage) (string, bool) {
	for j := len(history) - 1; j >= 0; j-- {
		if history[j].Role == ai.RoleUser {
			return history[j].Content, true
		}
	}
	return "", false
}
