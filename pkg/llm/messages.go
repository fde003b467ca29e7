// Message types and functionality
package llm

import (
	"fmt"
)

// Message represents a single chat message
type Message struct {
	Role     MessageRole      `json:"role"`
	Content  []MessageContent `json:"content"`
	Metadata map[string]any   `json:"metadata,omitempty"`
}

// MessageRole defines the role of a message sender
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// NewTextMessage creates a new Message with a single TextContent item
func NewTextMessage(role MessageRole, text string) Message {
	return Message{
		Role:    role,
		Content: []MessageContent{NewTextContent(text)},
	}
}

// GetText extracts text from the first TextContent item
// Returns empty string if no TextContent is found
func (m Message) GetText() string {
	for _, content := range m.Content {
		if textContent, ok := content.(*TextContent); ok {
			return textContent.GetText()
		}
	}
	return ""
}

// SetText sets the message content to a single TextContent item
// This replaces all existing content with the new text content
func (m *Message) SetText(text string) {
	m.Content = []MessageContent{NewTextContent(text)}
}

// AddContent adds a MessageContent item to the message
func (m *Message) AddContent(content MessageContent) {
	m.Content = append(m.Content, content)
}

// SetMetadata sets a metadata key-value pair
func (m *Message) SetMetadata(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// Validate validates all content items in the message
func (m Message) Validate() error {
	for i, content := range m.Content {
		if err := content.Validate(); err != nil {
			return fmt.Errorf("content item %d validation failed: %w", i, err)
		}
	}
	return nil
}

// MessageTexts returns the text of every message, in order, ignoring roles
func MessageTexts(messages []Message) []string {
	texts := make([]string, 0, len(messages))
	for _, msg := range messages {
		texts = append(texts, msg.GetText())
	}
	return texts
}
