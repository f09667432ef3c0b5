package ai

import (
	"context"
	"sync"
)

// MockProvider is a test provider that records calls and returns queued responses
type MockProvider struct {
	name      string
	responses []MockResponse
	calls     []MockCall
	mu        sync.Mutex
	respIndex int
}

// MockResponse represents a queued response for the mock provider
type MockResponse struct {
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
	Error     error
}

// MockCall records a request passed to GenerateResponse
type MockCall struct {
	Request *GenerateRequest
}

// NewMockProvider creates a new mock provider for testing
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{name: name}
}

// Name returns the provider name
func (m *MockProvider) Name() string {
	return m.name
}

// GenerateResponse records the call and returns the next queued response.
// The request is copied so later mutation by the caller is not observed.
func (m *MockProvider) GenerateResponse(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := *req
	snapshot.Messages = append([]ChatMessage(nil), req.Messages...)
	snapshot.Tools = append([]Tool(nil), req.Tools...)
	m.calls = append(m.calls, MockCall{Request: &snapshot})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if m.respIndex < len(m.responses) {
		resp := m.responses[m.respIndex]
		m.respIndex++

		if resp.Error != nil {
			return nil, resp.Error
		}

		return &GenerateResponse{
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
			Usage:     resp.Usage,
		}, nil
	}

	return &GenerateResponse{
		Content: "Mock response",
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: 5,
			TotalTokens:      15,
		},
	}, nil
}

// AddResponse queues a response
func (m *MockProvider) AddResponse(content string, toolCalls []ToolCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, MockResponse{
		Content:   content,
		ToolCalls: toolCalls,
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: 5,
			TotalTokens:      15,
		},
	})
}

// AddErrorResponse queues an error
func (m *MockProvider) AddErrorResponse(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, MockResponse{Error: err})
}

// GetCalls returns all recorded calls
func (m *MockProvider) GetCalls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall{}, m.calls...)
}

// GetCallCount returns the number of times GenerateResponse was called
func (m *MockProvider) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Reset clears all recorded calls and queued responses
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.responses = nil
	m.respIndex = 0
}

// LastCall returns the most recent call, or nil if no calls have been made
func (m *MockProvider) LastCall() *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return &m.calls[len(m.calls)-1]
}
