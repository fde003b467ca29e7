// Client interfaces
package llm

import (
	"context"
)

// Client defines the core interface that all LLM clients must implement
type Client interface {
	// ChatCompletion performs a chat completion request
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// GetModelInfo returns information about the default model of the client
	GetModelInfo() ModelInfo

	// Close cleans up any resources used by the client
	Close() error
}

// ModelLister is implemented by clients that can enumerate the models of their provider
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}
