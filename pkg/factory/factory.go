package factory

import (
	"fmt"
	"strings"

	"github.com/inercia/go-aisuite/pkg/llm"
)

// Factory creates LLM clients based on configuration
type Factory struct{}

// New creates a new client factory
func New() *Factory {
	return &Factory{}
}

// CreateClient creates an LLM client based on the configuration.
// An empty provider selects llm.DefaultProvider; the model may be left empty
// for providers that have a default.
func (f *Factory) CreateClient(config llm.ClientConfig) (llm.Client, error) {
	provider := config.Provider
	if provider == "" {
		provider = llm.DefaultProvider
	}
	provider = strings.ToLower(provider)

	constructor, exists := GetProvider(provider)
	if !exists {
		return nil, &llm.Error{
			Code:    "unsupported_provider",
			Message: fmt.Sprintf("unsupported provider: %s (available: %s)", provider, strings.Join(ListProviders(), ", ")),
			Type:    llm.ErrorTypeValidation,
		}
	}

	return constructor(config)
}
