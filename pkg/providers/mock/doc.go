// Package mock provides a scripted llm.Client for testing code built on go-aisuite.
//
// Responses and errors are queued with AddResponse/AddError (or the With*
// helpers) and returned in order; once the queues are empty the client echoes
// the last message back. Every request is recorded and can be inspected with
// GetCallLog and GetLastCall.
//
// The mock client needs no credentials and performs no network I/O, which makes
// it the default choice for unit tests and for trying the CLI offline.
package mock
