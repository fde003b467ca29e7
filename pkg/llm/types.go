// Core request and response types
package llm

import (
	"fmt"
	"time"
)

// Finish reasons reported in Choice.FinishReason
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonContentFilter = "content_filter"
)

// ChatRequest represents a chat completion request (provider-agnostic)
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`

	GenerationOptions
}

// GenerationOptions holds the optional generation parameters forwarded to the vendor.
// Nil or empty fields are not sent. Extra carries vendor-specific settings keyed by
// the vendor's own field names; a named field always wins over the same key in Extra.
type GenerationOptions struct {
	Temperature       *float32        `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TopP              *float32        `json:"top_p,omitempty" yaml:"top_p,omitempty"`
	TopK              *float32        `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	MaxTokens         *int            `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	CandidateCount    *int            `json:"candidate_count,omitempty" yaml:"candidate_count,omitempty"`
	StopSequences     []string        `json:"stop_sequences,omitempty" yaml:"stop_sequences,omitempty"`
	Seed              *int            `json:"seed,omitempty" yaml:"seed,omitempty"`
	PresencePenalty   *float32        `json:"presence_penalty,omitempty" yaml:"presence_penalty,omitempty"`
	FrequencyPenalty  *float32        `json:"frequency_penalty,omitempty" yaml:"frequency_penalty,omitempty"`
	SystemInstruction string          `json:"system_instruction,omitempty" yaml:"system_instruction,omitempty"`
	ResponseFormat    *ResponseFormat `json:"response_format,omitempty" yaml:"-"`
	Extra             map[string]any  `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// ChatResponse represents a chat completion response (provider-agnostic)
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage,omitempty"`
}

// Choice represents a single response choice
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewChatResponse creates a response with a single assistant choice holding text.
// This is the normalized shape every provider returns.
func NewChatResponse(text string) *ChatResponse {
	return &ChatResponse{
		ID: fmt.Sprintf("chatcmpl-%d", time.Now().UnixNano()),
		Choices: []Choice{
			{
				Index:        0,
				Message:      NewTextMessage(RoleAssistant, text),
				FinishReason: FinishReasonStop,
			},
		},
	}
}

// GetText returns the text of the first choice, or an empty string when there is none
func (r ChatResponse) GetText() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.GetText()
}

// IsComplete checks if this choice represents a complete response
func (c Choice) IsComplete() bool {
	return c.FinishReason == FinishReasonStop || c.FinishReason == FinishReasonLength
}
