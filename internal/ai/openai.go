package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"

	"pagechat/internal/config"
)

// OpenAIProvider implements Provider on the OpenAI chat completions API or
// any server compatible with it.
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	maxTokens int
	retry     RetryPolicy
	logger    *log.Logger
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(cfg config.ChatConfig, logger *log.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("API key is required for OpenAI provider")
	}
	if logger == nil {
		logger = log.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		retry:     DefaultRetryPolicy(cfg.MaxRetries),
		logger:    logger,
	}, nil
}

func (o *OpenAIProvider) Name() string {
	return "openai"
}

func (o *OpenAIProvider) GenerateResponse(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = o.maxTokens
	}

	messages, err := o.convertMessages(req.Messages)
	if err != nil {
		return nil, &ModelServiceError{Provider: o.Name(), Model: model, Err: err}
	}

	oaReq := openai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
		Tools:     o.convertTools(req.Tools),
	}

	var resp openai.ChatCompletionResponse
	err = Retry(ctx, o.retry, func() error {
		var callErr error
		resp, callErr = o.client.CreateChatCompletion(ctx, oaReq)
		return callErr
	}, func(err error, wait time.Duration) {
		o.logger.Warn("chat completion failed, retrying", "provider", o.Name(), "model", model, "wait", wait, "err", err)
	})
	if err != nil {
		return nil, &ModelServiceError{Provider: o.Name(), Model: model, StatusCode: StatusCode(err), Err: err}
	}

	if len(resp.Choices) == 0 {
		return nil, &ModelServiceError{Provider: o.Name(), Model: model, Err: errors.New("no choices in response")}
	}

	choice := resp.Choices[0].Message
	out := &GenerateResponse{
		Content: choice.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	for _, tc := range choice.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: parseArguments(tc.Function.Arguments),
		})
	}

	return out, nil
}

func (o *OpenAIProvider) convertMessages(msgs []ChatMessage) ([]openai.ChatCompletionMessage, error) {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		msg := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			args, err := json.Marshal(tc.Args)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal arguments of %s: %w", tc.Name, err)
			}
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(args),
				},
			})
		}
		out[i] = msg
	}
	return out, nil
}

func (o *OpenAIProvider) convertTools(tools []Tool) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, len(tools))
	for i, t := range tools {
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return out
}

// parseArguments decodes a JSON arguments object. Malformed arguments yield
// an empty map so the tool reports the missing parameters to the model.
func parseArguments(raw string) map[string]any {
	args := make(map[string]any)
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return make(map[string]any)
	}
	return args
}
