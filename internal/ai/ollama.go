package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/ollama/ollama/api"

	"pagechat/internal/config"
)

// DefaultOllamaHost is used when no base URL is configured.
const DefaultOllamaHost = "http://localhost:11434"

// OllamaProvider implements Provider on a local Ollama server.
type OllamaProvider struct {
	client    *api.Client
	model     string
	maxTokens int
	retry     RetryPolicy
	logger    *log.Logger
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(cfg config.ChatConfig, logger *log.Logger) (*OllamaProvider, error) {
	client, err := NewOllamaClient(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	return &OllamaProvider{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		retry:     DefaultRetryPolicy(cfg.MaxRetries),
		logger:    logger,
	}, nil
}

// NewOllamaClient builds an API client for baseURL, defaulting to the local
// server.
func NewOllamaClient(baseURL string, timeout time.Duration) (*api.Client, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaHost
	}
	uri, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL %q: %w", baseURL, err)
	}
	httpClient := http.DefaultClient
	if timeout > 0 {
		httpClient = &http.Client{Timeout: timeout}
	}
	return api.NewClient(uri, httpClient), nil
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

func (p *OllamaProvider) GenerateResponse(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.maxTokens
	}

	messages, err := convertOllamaMessages(req.Messages)
	if err != nil {
		return nil, &ModelServiceError{Provider: p.Name(), Model: model, Err: err}
	}

	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   new(bool), // false
		Tools:    convertOllamaTools(req.Tools),
	}
	if maxTokens > 0 {
		chatReq.Options = map[string]any{"num_predict": maxTokens}
	}

	var out *GenerateResponse
	err = Retry(ctx, p.retry, func() error {
		out = &GenerateResponse{}
		return p.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
			out.Content += resp.Message.Content
			if resp.Done {
				out.Usage = Usage{
					PromptTokens:     resp.PromptEvalCount,
					CompletionTokens: resp.EvalCount,
					TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
				}
			}
			for _, tc := range resp.Message.ToolCalls {
				argsBytes, err := json.Marshal(tc.Function.Arguments)
				if err != nil {
					return fmt.Errorf("failed to marshal arguments of %s: %w", tc.Function.Name, err)
				}
				out.ToolCalls = append(out.ToolCalls, ToolCall{
					ID:   "call_" + uuid.NewString(),
					Name: tc.Function.Name,
					Args: parseArguments(string(argsBytes)),
				})
			}
			return nil
		})
	}, func(err error, wait time.Duration) {
		p.logger.Warn("chat failed, retrying", "provider", p.Name(), "model", model, "wait", wait, "err", err)
	})
	if err != nil {
		return nil, &ModelServiceError{Provider: p.Name(), Model: model, StatusCode: StatusCode(err), Err: err}
	}

	return out, nil
}

// convertOllamaMessages maps the conversation onto Ollama messages. Tool
// results are named after the assistant call they answer.
func convertOllamaMessages(msgs []ChatMessage) ([]api.Message, error) {
	callNames := make(map[string]string)
	out := make([]api.Message, 0, len(msgs))
	for _, m := range msgs {
		msg := api.Message{
			Role:    m.Role,
			Content: m.Content,
		}
		if len(m.ToolCalls) > 0 {
			calls, err := ollamaToolCalls(m.ToolCalls)
			if err != nil {
				return nil, err
			}
			msg.ToolCalls = calls
			for _, tc := range m.ToolCalls {
				callNames[tc.ID] = tc.Name
			}
		}
		if m.Role == RoleTool {
			msg.ToolName = callNames[m.ToolCallID]
		}
		out = append(out, msg)
	}
	return out, nil
}

// ollamaToolCalls decodes calls through the wire format, which is stable
// across versions of the api package's argument type.
func ollamaToolCalls(calls []ToolCall) ([]api.ToolCall, error) {
	type wireFunction struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	type wireCall struct {
		Function wireFunction `json:"function"`
	}

	wire := make([]wireCall, len(calls))
	for i, tc := range calls {
		args := tc.Args
		if args == nil {
			args = map[string]any{}
		}
		wire[i] = wireCall{Function: wireFunction{Name: tc.Name, Arguments: args}}
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool calls: %w", err)
	}
	var out []api.ToolCall
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to encode tool calls: %w", err)
	}
	return out, nil
}

func convertOllamaTools(tools []Tool) []api.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]api.Tool, 0, len(tools))
	for _, t := range tools {
		props := api.NewToolPropertiesMap()
		if properties, ok := t.Parameters["properties"].(map[string]any); ok {
			for name, raw := range properties {
				schema, _ := raw.(map[string]any)
				typ, _ := schema["type"].(string)
				desc, _ := schema["description"].(string)
				props.Set(name, api.ToolProperty{
					Type:        api.PropertyType{typ},
					Description: desc,
				})
			}
		}

		out = append(out, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters: api.ToolFunctionParameters{
					Type:       "object",
					Properties: props,
					Required:   requiredParams(t.Parameters["required"]),
				},
			},
		})
	}
	return out
}

func requiredParams(v any) []string {
	switch r := v.(type) {
	case []string:
		return r
	case []any:
		out := make([]string, 0, len(r))
		for _, s := range r {
			if str, ok := s.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
