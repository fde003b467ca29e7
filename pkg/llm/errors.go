// Error types and handling
package llm

import (
	"errors"
	"fmt"
)

// Error types shared by all providers
const (
	// ErrorTypeConfiguration is used when a client cannot be built from its configuration
	ErrorTypeConfiguration = "configuration_error"
	// ErrorTypeProviderCall is used when a call into the vendor client fails
	ErrorTypeProviderCall = "provider_call_error"
	// ErrorTypeValidation is used for requests rejected before reaching the vendor
	ErrorTypeValidation = "validation_error"
)

// Error represents a standardized LLM error
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	StatusCode int    `json:"status_code,omitempty"`

	// Op is the provider operation that failed, e.g. "chat_completions_create"
	Op string `json:"op,omitempty"`
	// Err is the underlying cause, usually the vendor SDK error
	Err error `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause so errors.Is/As can reach vendor errors
func (e *Error) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates an error for a client that cannot be constructed
func NewConfigurationError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Type:    ErrorTypeConfiguration,
	}
}

// NewProviderCallError wraps a vendor failure with the operation name.
// The detail, when not empty, is appended to the message for diagnosability.
func NewProviderCallError(op string, cause error, detail string) *Error {
	causeMsg := "<nil>"
	if cause != nil {
		causeMsg = cause.Error()
	}

	msg := fmt.Sprintf("Error in %s: %s", op, causeMsg)
	if detail != "" {
		msg += " " + detail
	}

	return &Error{
		Code:    "api_error",
		Message: msg,
		Type:    ErrorTypeProviderCall,
		Op:      op,
		Err:     cause,
	}
}

// IsConfigurationError reports whether err (or any error it wraps) is a configuration error
func IsConfigurationError(err error) bool {
	var llmErr *Error
	return errors.As(err, &llmErr) && llmErr.Type == ErrorTypeConfiguration
}

// IsProviderCallError reports whether err (or any error it wraps) is a provider call error
func IsProviderCallError(err error) bool {
	var llmErr *Error
	return errors.As(err, &llmErr) && llmErr.Type == ErrorTypeProviderCall
}
