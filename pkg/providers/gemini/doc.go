// Package gemini provides an LLM client for Google Gemini models.
//
// This provider implements the llm.Client interface on top of the official
// Google Gen AI library (google.golang.org/genai). It is a thin adapter: every
// operation is a single call to the vendor client, with no retries, caching
// or batching, and every vendor failure is returned as an *llm.Error carrying
// the operation name.
//
// Operations:
//   - ChatCompletion: message texts (roles dropped) sent as one user content
//   - GenerateContent: vendor contents plus any attached files
//   - UploadFile: uploads a local file and returns the raw *genai.File
//   - ListModels: names of the models available to the API key
//
// The API key is read from llm.ClientConfig.APIKey or from GEMINI_API_KEY.
//
// Usage:
//
//	client, err := gemini.NewClient(llm.ClientConfig{Model: "gemini-2.5-flash"})
//	if err != nil {
//	    return err
//	}
//	resp, err := client.ChatCompletion(ctx, llm.ChatRequest{
//	    Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "Hello")},
//	})
package gemini
