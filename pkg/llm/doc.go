// Package llm provides the provider-agnostic contract for chat completion clients.
//
// This package defines the interface every provider adapter implements, along with
// the uniform request, response, configuration and error types they exchange.
//
// The main components include:
//
// - Client interface: chat completion, model information and cleanup
// - ModelLister interface: optional model enumeration
// - ChatRequest / GenerationOptions: model, messages and generation parameters
// - ChatResponse: the normalized response, one or more choices holding a message
// - ClientConfig: credentials, default model, timeout and logger
// - Error: configuration and provider call errors with the failing operation
//
// Provider implementations are located in separate packages under /pkg/providers/
// to maintain clean separation of concerns and avoid import cycles.
package llm
