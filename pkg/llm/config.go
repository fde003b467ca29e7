// Configuration types and response format specifications
package llm

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	DefaultProvider    = "gemini"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// Environment variables read by GetLLMFromEnv and the Gemini provider
const (
	EnvGeminiAPIKey  = "GEMINI_API_KEY"
	EnvGeminiModel   = "GEMINI_MODEL"
	EnvGeminiTimeout = "GEMINI_TIMEOUT"
)

// ClientConfig holds configuration for creating LLM clients
type ClientConfig struct {
	Provider string         `json:"provider"` // gemini, mock
	Model    string         `json:"model"`
	APIKey   string         `json:"api_key,omitempty"`
	Timeout  time.Duration  `json:"timeout,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"` // Provider-specific configs

	// Logger receives debug logs for every vendor call. Nil discards them.
	Logger *slog.Logger `json:"-"`
}

// GetLogger returns the configured logger or one that discards everything
func (c ClientConfig) GetLogger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// ClientConfigFromMap builds a ClientConfig from an open option map.
// Recognized keys are apiKey (or api_key), model, provider and timeout
// (a duration string or a number of seconds). Any other key is kept in Extra.
func ClientConfigFromMap(options map[string]any) (ClientConfig, error) {
	var config ClientConfig

	for key, value := range options {
		switch key {
		case "apiKey", "api_key":
			s, ok := value.(string)
			if !ok {
				return ClientConfig{}, NewConfigurationError("invalid_option", fmt.Sprintf("option %q must be a string, got %T", key, value))
			}
			config.APIKey = s
		case "model":
			s, ok := value.(string)
			if !ok {
				return ClientConfig{}, NewConfigurationError("invalid_option", fmt.Sprintf("option %q must be a string, got %T", key, value))
			}
			config.Model = s
		case "provider":
			s, ok := value.(string)
			if !ok {
				return ClientConfig{}, NewConfigurationError("invalid_option", fmt.Sprintf("option %q must be a string, got %T", key, value))
			}
			config.Provider = s
		case "timeout":
			d, err := parseTimeout(value)
			if err != nil {
				return ClientConfig{}, NewConfigurationError("invalid_option", fmt.Sprintf("option %q: %v", key, err))
			}
			config.Timeout = d
		default:
			if config.Extra == nil {
				config.Extra = make(map[string]any)
			}
			config.Extra[key] = value
		}
	}

	return config, nil
}

func parseTimeout(value any) (time.Duration, error) {
	switch v := value.(type) {
	case time.Duration:
		return v, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		return time.ParseDuration(v)
	default:
		return 0, fmt.Errorf("unsupported timeout type %T", value)
	}
}

// ResolveAPIKey returns the explicit key if set, otherwise the value of envVar
func ResolveAPIKey(explicit, envVar string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv(envVar)
}

// ResponseFormat specifies the desired response format for structured outputs
type ResponseFormat struct {
	Type       ResponseFormatType `json:"type"`
	JSONSchema *JSONSchema        `json:"json_schema,omitempty"`
}

// ResponseFormatType defines the type of response format
type ResponseFormatType string

const (
	// ResponseFormatText indicates plain text response (default)
	ResponseFormatText ResponseFormatType = "text"
	// ResponseFormatJSON indicates JSON object response without strict schema
	ResponseFormatJSON ResponseFormatType = "json_object"
	// ResponseFormatJSONSchema indicates JSON response with schema validation
	ResponseFormatJSONSchema ResponseFormatType = "json_schema"
)

// JSONSchema represents a JSON Schema specification for structured outputs
type JSONSchema struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Schema      any    `json:"schema"`
}

// parseTimeoutFromEnv parses timeout from environment variable with fallback to default
func parseTimeoutFromEnv(envVar string, defaultTimeout time.Duration) time.Duration {
	if timeoutStr := os.Getenv(envVar); timeoutStr != "" {
		if timeoutSecs, err := strconv.Atoi(timeoutStr); err == nil && timeoutSecs > 0 {
			return time.Duration(timeoutSecs) * time.Second
		}
	}
	return defaultTimeout
}

// GetLLMFromEnv builds a Gemini ClientConfig from GEMINI_API_KEY, GEMINI_MODEL and GEMINI_TIMEOUT.
// The API key may be empty; client construction reports it.
func GetLLMFromEnv() ClientConfig {
	model := DefaultGeminiModel
	if customModel := os.Getenv(EnvGeminiModel); customModel != "" {
		model = customModel
	}

	return ClientConfig{
		Provider: DefaultProvider,
		Model:    model,
		APIKey:   os.Getenv(EnvGeminiAPIKey),
		Timeout:  parseTimeoutFromEnv(EnvGeminiTimeout, 30*time.Second),
	}
}
