// Package factory provides provider registration and factory functionality for go-aisuite.
//
// This package keeps a name-keyed registry of provider constructors and creates
// clients from an llm.ClientConfig. Importing it registers the built-in providers:
// "gemini" (also "genai" and "google") and "mock".
//
// Example usage:
//
//	f := factory.New()
//	client, err := f.CreateClient(llm.ClientConfig{
//	    Provider: "gemini",
//	    Model:    "gemini-2.5-flash",
//	})
package factory
