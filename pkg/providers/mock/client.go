package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/inercia/go-aisuite/pkg/llm"
)

// Client implements the llm.Client and llm.ModelLister interfaces for testing
type Client struct {
	mu sync.Mutex

	modelInfo     llm.ModelInfo
	responses     []llm.ChatResponse
	responseIndex int
	errors        []error
	errorIndex    int
	callLog       []llm.ChatRequest
	models        []string
	latency       time.Duration
}

// NewClient creates a new mock LLM client for testing
func NewClient(modelName, provider string) (*Client, error) {
	return &Client{
		modelInfo: llm.ModelInfo{
			Name:      modelName,
			Provider:  provider,
			MaxTokens: 4096,
		},
		models: []string{modelName},
	}, nil
}

// ChatCompletion returns pre-configured responses or errors
func (m *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	m.callLog = append(m.callLog, req)
	latency := m.latency
	m.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.errorIndex < len(m.errors) {
		err := m.errors[m.errorIndex]
		m.errorIndex++
		return nil, err
	}

	if m.responseIndex < len(m.responses) {
		resp := m.responses[m.responseIndex]
		m.responseIndex++
		return &resp, nil
	}

	return m.echoResponse(req), nil
}

// echoResponse answers with the text of the last message
func (m *Client) echoResponse(req llm.ChatRequest) *llm.ChatResponse {
	var last string
	if len(req.Messages) > 0 {
		last = req.Messages[len(req.Messages)-1].GetText()
	}

	text := fmt.Sprintf("mock response to: %s", last)
	resp := llm.NewChatResponse(text)
	resp.ID = fmt.Sprintf("mock-resp-%d", time.Now().UnixNano())
	resp.Model = req.Model
	if resp.Model == "" {
		resp.Model = m.modelInfo.Name
	}
	resp.Usage = llm.Usage{
		PromptTokens:     len(strings.Fields(last)),
		CompletionTokens: len(strings.Fields(text)),
		TotalTokens:      len(strings.Fields(last)) + len(strings.Fields(text)),
	}
	return resp
}

// ListModels returns the configured model names
func (m *Client) ListModels(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	models := make([]string, len(m.models))
	copy(models, m.models)
	return models, nil
}

func (m *Client) GetModelInfo() llm.ModelInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modelInfo
}

func (m *Client) Close() error {
	return nil
}

// Test helper methods

// AddResponse adds a response to be returned by subsequent calls
func (m *Client) AddResponse(response llm.ChatResponse) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response)
	return m
}

// AddError adds an error to be returned by subsequent calls
func (m *Client) AddError(err error) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, err)
	return m
}

// GetCallLog returns all requests made to this mock client
func (m *Client) GetCallLog() []llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]llm.ChatRequest, len(m.callLog))
	copy(calls, m.callLog)
	return calls
}

// GetLastCall returns the most recent request made to this mock client
func (m *Client) GetLastCall() *llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.callLog) == 0 {
		return nil
	}
	last := m.callLog[len(m.callLog)-1]
	return &last
}

// Reset clears all responses, errors, and call logs
func (m *Client) Reset() *Client {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses = nil
	m.responseIndex = 0
	m.errors = nil
	m.errorIndex = 0
	m.callLog = nil
	return m
}

// Convenience methods for common test scenarios

// WithSimpleResponse adds a simple text response
func (m *Client) WithSimpleResponse(content string) *Client {
	resp := llm.NewChatResponse(content)
	resp.ID = fmt.Sprintf("mock-simple-%d", time.Now().UnixNano())
	resp.Model = m.GetModelInfo().Name
	return m.AddResponse(*resp)
}

// WithError adds an error response
func (m *Client) WithError(code, message, errorType string) *Client {
	return m.AddError(&llm.Error{
		Code:    code,
		Message: message,
		Type:    errorType,
	})
}

// WithModels sets the names returned by ListModels
func (m *Client) WithModels(names ...string) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = names
	return m
}

// WithLatency configures simulated latency for requests
func (m *Client) WithLatency(duration time.Duration) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = duration
	return m
}
