package factory

import (
	"github.com/inercia/go-aisuite/pkg/llm"
	"github.com/inercia/go-aisuite/pkg/providers/gemini"
	"github.com/inercia/go-aisuite/pkg/providers/mock"
)

func init() {
	// Register the gemini provider and the names it is commonly known by
	geminiConstructor := func(config llm.ClientConfig) (llm.Client, error) {
		client, err := gemini.NewClient(config)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	RegisterProvider("gemini", geminiConstructor)
	RegisterProvider("genai", geminiConstructor)
	RegisterProvider("google", geminiConstructor)

	// Register the mock provider
	RegisterProvider("mock", func(config llm.ClientConfig) (llm.Client, error) {
		client, err := mock.NewClient(config.Model, "mock")
		if err != nil {
			return nil, err
		}
		return client, nil
	})
}
