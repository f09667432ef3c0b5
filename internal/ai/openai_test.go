package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagechat/internal/config"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewOpenAIProvider(config.ChatConfig{
		Provider:   "openai",
		Model:      "gpt-test",
		APIKey:     "sk-test",
		BaseURL:    srv.URL + "/v1",
		MaxTokens:  256,
		MaxRetries: 2,
		Timeout:    5 * time.Second,
	}, log.New(io.Discard))
	require.NoError(t, err)
	p.retry.InitialInterval = time.Millisecond
	p.retry.MaxInterval = 5 * time.Millisecond
	return p
}

func TestOpenAIProvider_GenerateResponse(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body["model"])
		assert.EqualValues(t, 256, body["max_tokens"])
		tools := body["tools"].([]any)
		require.Len(t, tools, 1)
		fn := tools[0].(map[string]any)["function"].(map[string]any)
		assert.Equal(t, "retrieve_context", fn["name"])

		msgs := body["messages"].([]any)
		require.Len(t, msgs, 4)
		assistant := msgs[2].(map[string]any)
		call := assistant["tool_calls"].([]any)[0].(map[string]any)
		assert.Equal(t, `{"query":"agents"}`, call["function"].(map[string]any)["arguments"])
		assert.Equal(t, "call_1", msgs[3].(map[string]any)["tool_call_id"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-test",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_2",
						"type": "function",
						"function": {"name": "retrieve_context", "arguments": "{\"query\":\"memory\"}"}
					}]
				}
			}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	})

	resp, err := p.GenerateResponse(context.Background(), &GenerateRequest{
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: "sys"},
			{Role: RoleUser, Content: "what are agents?"},
			{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Name: "retrieve_context", Args: map[string]any{"query": "agents"}}}},
			{Role: RoleTool, Content: "(Source: ..., Content: ...)", ToolCallID: "call_1"},
		},
		Tools: []Tool{{
			Name:        "retrieve_context",
			Description: "Retrieve context",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{"query": map[string]any{"type": "string"}}},
		}},
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_2", resp.ToolCalls[0].ID)
	assert.Equal(t, "memory", resp.ToolCalls[0].Args["query"])
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestOpenAIProvider_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": {"message": "slow down", "type": "rate_limit"}}`))
			return
		}
		w.Write([]byte(`{"choices": [{"index": 0, "message": {"role": "assistant", "content": "hello"}}]}`))
	})

	resp, err := p.GenerateResponse(context.Background(), &GenerateRequest{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.EqualValues(t, 2, calls.Load())
}

func TestOpenAIProvider_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "bad request", "type": "invalid_request_error"}}`))
	})

	_, err := p.GenerateResponse(context.Background(), &GenerateRequest{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}},
	})

	var mse *ModelServiceError
	require.ErrorAs(t, err, &mse)
	assert.Equal(t, http.StatusBadRequest, mse.StatusCode)
	assert.Equal(t, "openai", mse.Provider)
	assert.EqualValues(t, 1, calls.Load())
}

func TestOpenAIProvider_RetryBudget(t *testing.T) {
	var calls atomic.Int32
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := p.GenerateResponse(context.Background(), &GenerateRequest{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}},
	})

	var mse *ModelServiceError
	require.ErrorAs(t, err, &mse)
	assert.Equal(t, http.StatusInternalServerError, mse.StatusCode)
	assert.EqualValues(t, 3, calls.Load(), "one attempt plus two retries")
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(config.ChatConfig{Model: "gpt-test"}, nil)
	assert.Error(t, err)
}

func TestParseArguments(t *testing.T) {
	assert.Equal(t, "x", parseArguments(`{"query":"x"}`)["query"])
	assert.Empty(t, parseArguments(`not json`))
	assert.Empty(t, parseArguments(""))
}
