package gemini

import (
	"context"
	"errors"
	"iter"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/genai"

	"github.com/inercia/go-aisuite/pkg/llm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// keep-alive connections left by the integration tests
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// fakeModels records GenerateContent calls and returns canned results
type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	models []*genai.Model
	allErr error

	calls []generateCall
}

type generateCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, generateCall{model: model, contents: contents, config: config})
	return f.resp, f.err
}

func (f *fakeModels) All(_ context.Context) iter.Seq2[*genai.Model, error] {
	return func(yield func(*genai.Model, error) bool) {
		for _, m := range f.models {
			if !yield(m, nil) {
				return
			}
		}
		if f.allErr != nil {
			yield(nil, f.allErr)
		}
	}
}

type fakeFiles struct {
	file  *genai.File
	err   error
	paths []string
}

func (f *fakeFiles) UploadFromPath(_ context.Context, path string, _ *genai.UploadFileConfig) (*genai.File, error) {
	f.paths = append(f.paths, path)
	return f.file, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content:      genai.NewContentFromText(text, genai.RoleModel),
				FinishReason: genai.FinishReasonStop,
			},
		},
	}
}

func partTexts(content *genai.Content) []string {
	var texts []string
	for _, part := range content.Parts {
		texts = append(texts, part.Text)
	}
	return texts
}

func ptr[T any](v T) *T {
	return &v
}

func TestNewClient(t *testing.T) {
	t.Run("explicit API key does not read the environment", func(t *testing.T) {
		t.Setenv(llm.EnvGeminiAPIKey, "")

		client, err := NewClient(llm.ClientConfig{APIKey: "explicit-key"})
		require.NoError(t, err)
		require.NotNil(t, client)
		assert.Equal(t, llm.DefaultGeminiModel, client.GetModelInfo().Name)
		assert.Empty(t, client.AttachedFiles())
	})

	t.Run("API key from environment", func(t *testing.T) {
		t.Setenv(llm.EnvGeminiAPIKey, "env-key")

		client, err := NewClient(llm.ClientConfig{Model: "gemini-1.5-pro"})
		require.NoError(t, err)
		assert.Equal(t, "gemini-1.5-pro", client.GetModelInfo().Name)
	})

	t.Run("missing API key is a configuration error", func(t *testing.T) {
		t.Setenv(llm.EnvGeminiAPIKey, "")

		constructed := false
		orig := newGenaiClient
		newGenaiClient = func(ctx context.Context, cc *genai.ClientConfig) (*genai.Client, error) {
			constructed = true
			return orig(ctx, cc)
		}
		t.Cleanup(func() { newGenaiClient = orig })

		client, err := NewClient(llm.ClientConfig{})
		require.Error(t, err)
		assert.Nil(t, client)
		assert.True(t, llm.IsConfigurationError(err))
		assert.False(t, llm.IsProviderCallError(err))
		assert.Contains(t, err.Error(), llm.EnvGeminiAPIKey)
		assert.False(t, constructed, "vendor client must not be created without a key")
	})

	t.Run("vendor client creation failure", func(t *testing.T) {
		orig := newGenaiClient
		newGenaiClient = func(context.Context, *genai.ClientConfig) (*genai.Client, error) {
			return nil, errors.New("bad backend")
		}
		t.Cleanup(func() { newGenaiClient = orig })

		_, err := NewClient(llm.ClientConfig{APIKey: "k"})
		require.Error(t, err)
		assert.True(t, llm.IsConfigurationError(err))
		assert.Contains(t, err.Error(), "bad backend")
	})

	t.Run("timeout is passed to the vendor client", func(t *testing.T) {
		var got *genai.ClientConfig
		orig := newGenaiClient
		newGenaiClient = func(ctx context.Context, cc *genai.ClientConfig) (*genai.Client, error) {
			got = cc
			return orig(ctx, cc)
		}
		t.Cleanup(func() { newGenaiClient = orig })

		_, err := NewClient(llm.ClientConfig{APIKey: "k", Timeout: 42})
		require.NoError(t, err)
		require.NotNil(t, got.HTTPOptions.Timeout)
		assert.EqualValues(t, 42, *got.HTTPOptions.Timeout)
		assert.Equal(t, genai.BackendGeminiAPI, got.Backend)
	})
}

func TestChatCompletion(t *testing.T) {
	t.Parallel()

	t.Run("forwards message texts and drops roles", func(t *testing.T) {
		t.Parallel()
		models := &fakeModels{resp: textResponse("hello")}
		client := newClient("gemini-2.5-flash", models, &fakeFiles{}, nil)

		resp, err := client.ChatCompletion(context.Background(), llm.ChatRequest{
			Model: "gemini-2.5-pro",
			Messages: []llm.Message{
				llm.NewTextMessage(llm.RoleUser, "hi"),
				llm.NewTextMessage(llm.RoleAssistant, "yo"),
			},
		})
		require.NoError(t, err)

		require.Len(t, models.calls, 1)
		call := models.calls[0]
		assert.Equal(t, "gemini-2.5-pro", call.model)
		require.Len(t, call.contents, 1)
		assert.Equal(t, []string{"hi", "yo"}, partTexts(call.contents[0]))
		assert.Equal(t, genai.RoleUser, call.contents[0].Role)

		require.Len(t, resp.Choices, 1)
		assert.Equal(t, "hello", resp.Choices[0].Message.GetText())
		assert.Equal(t, llm.RoleAssistant, resp.Choices[0].Message.Role)
	})

	t.Run("empty model uses the client default", func(t *testing.T) {
		t.Parallel()
		models := &fakeModels{resp: textResponse("ok")}
		client := newClient("gemini-2.0-flash", models, &fakeFiles{}, nil)

		_, err := client.ChatCompletion(context.Background(), llm.ChatRequest{
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "x")},
		})
		require.NoError(t, err)
		assert.Equal(t, "gemini-2.0-flash", models.calls[0].model)
	})

	t.Run("generation options reach the vendor config", func(t *testing.T) {
		t.Parallel()
		models := &fakeModels{resp: textResponse("ok")}
		client := newClient("", models, &fakeFiles{}, nil)

		_, err := client.ChatCompletion(context.Background(), llm.ChatRequest{
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "x")},
			GenerationOptions: llm.GenerationOptions{
				Temperature: ptr(float32(0.2)),
				MaxTokens:   ptr(128),
			},
		})
		require.NoError(t, err)

		config := models.calls[0].config
		require.NotNil(t, config)
		require.NotNil(t, config.Temperature)
		assert.InDelta(t, 0.2, *config.Temperature, 1e-6)
		assert.Equal(t, int32(128), config.MaxOutputTokens)
	})

	t.Run("vendor failure is wrapped with the operation", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("boom")
		client := newClient("", &fakeModels{err: cause}, &fakeFiles{}, nil)

		resp, err := client.ChatCompletion(context.Background(), llm.ChatRequest{
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "x")},
		})
		require.Error(t, err)
		assert.Nil(t, resp)
		assert.True(t, llm.IsProviderCallError(err))
		assert.Contains(t, err.Error(), "chat_completions_create")
		assert.Contains(t, err.Error(), "boom")
		assert.ErrorIs(t, err, cause)

		var llmErr *llm.Error
		require.ErrorAs(t, err, &llmErr)
		assert.Equal(t, OpChatCompletionsCreate, llmErr.Op)
	})

	t.Run("nil vendor response is an error", func(t *testing.T) {
		t.Parallel()
		client := newClient("", &fakeModels{}, &fakeFiles{}, nil)

		_, err := client.ChatCompletion(context.Background(), llm.ChatRequest{
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "x")},
		})
		require.Error(t, err)
		assert.True(t, llm.IsProviderCallError(err))
	})

	t.Run("unknown extra option is rejected before calling the vendor", func(t *testing.T) {
		t.Parallel()
		models := &fakeModels{resp: textResponse("ok")}
		client := newClient("", models, &fakeFiles{}, nil)

		_, err := client.ChatCompletion(context.Background(), llm.ChatRequest{
			Messages:          []llm.Message{llm.NewTextMessage(llm.RoleUser, "x")},
			GenerationOptions: llm.GenerationOptions{Extra: map[string]any{"notAField": 1}},
		})
		require.Error(t, err)
		assert.True(t, llm.IsProviderCallError(err))
		assert.Contains(t, err.Error(), "chat_completions_create")
		assert.Empty(t, models.calls)
	})
}

func TestGenerateContent(t *testing.T) {
	t.Parallel()

	t.Run("no attached files forwards contents unchanged", func(t *testing.T) {
		t.Parallel()
		models := &fakeModels{resp: textResponse("done")}
		client := newClient("", models, &fakeFiles{}, nil)

		contents := genai.Text("x")
		resp, err := client.GenerateContent(context.Background(), "gemini-2.5-flash", contents, llm.GenerationOptions{})
		require.NoError(t, err)
		assert.Equal(t, "done", resp.GetText())

		require.Len(t, models.calls, 1)
		require.Len(t, models.calls[0].contents, 1)
		assert.Same(t, contents[0], models.calls[0].contents[0])
	})

	t.Run("attached files are appended without touching the caller slice", func(t *testing.T) {
		t.Parallel()
		models := &fakeModels{resp: textResponse("done")}
		client := newClient("", models, &fakeFiles{}, nil)
		client.AttachFile(&genai.File{Name: "files/a", URI: "https://example.com/files/a", MIMEType: "text/plain"})
		client.AttachFile(nil)

		contents := make([]*genai.Content, 1, 4)
		contents[0] = genai.NewContentFromText("x", genai.RoleUser)

		_, err := client.GenerateContent(context.Background(), "", contents, llm.GenerationOptions{})
		require.NoError(t, err)

		assert.Len(t, contents, 1)
		assert.Nil(t, contents[:2][1], "caller backing array must not be written")

		sent := models.calls[0].contents
		require.Len(t, sent, 2)
		assert.Same(t, contents[0], sent[0])
		require.Len(t, sent[1].Parts, 1)
		require.NotNil(t, sent[1].Parts[0].FileData)
		assert.Equal(t, "https://example.com/files/a", sent[1].Parts[0].FileData.FileURI)
		assert.Equal(t, "text/plain", sent[1].Parts[0].FileData.MIMEType)
	})

	t.Run("failure embeds the forwarded options", func(t *testing.T) {
		t.Parallel()
		client := newClient("", &fakeModels{err: errors.New("invalid argument")}, &fakeFiles{}, nil)

		_, err := client.GenerateContent(context.Background(), "", genai.Text("x"), llm.GenerationOptions{
			Temperature: ptr(float32(0.5)),
			Extra:       map[string]any{"responseMimeType": "text/plain"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "generate_content")
		assert.Contains(t, err.Error(), "invalid argument")
		assert.Contains(t, err.Error(), `"temperature":0.5`)
		assert.Contains(t, err.Error(), "responseMimeType")
	})
}

func TestUploadFile(t *testing.T) {
	t.Parallel()

	t.Run("returns the vendor handle and does not attach it", func(t *testing.T) {
		t.Parallel()
		handle := &genai.File{Name: "files/abc", URI: "https://example.com/files/abc", MIMEType: "application/pdf"}
		files := &fakeFiles{file: handle}
		client := newClient("", &fakeModels{}, files, nil)

		got, err := client.UploadFile(context.Background(), "/tmp/report.pdf")
		require.NoError(t, err)
		assert.Same(t, handle, got)
		assert.Equal(t, []string{"/tmp/report.pdf"}, files.paths)
		assert.Empty(t, client.AttachedFiles())
	})

	t.Run("failure names the file", func(t *testing.T) {
		t.Parallel()
		client := newClient("", &fakeModels{}, &fakeFiles{err: os.ErrNotExist}, nil)

		_, err := client.UploadFile(context.Background(), "/missing.txt")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upload_file")
		assert.Contains(t, err.Error(), "/missing.txt")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestListModels(t *testing.T) {
	t.Parallel()

	t.Run("returns names in order", func(t *testing.T) {
		t.Parallel()
		client := newClient("", &fakeModels{models: []*genai.Model{{Name: "a"}, {Name: "b"}}}, &fakeFiles{}, nil)

		names, err := client.ListModels(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, names)
	})

	t.Run("iteration error is wrapped", func(t *testing.T) {
		t.Parallel()
		client := newClient("", &fakeModels{
			models: []*genai.Model{{Name: "a"}},
			allErr: genai.APIError{Code: 401, Message: "API key not valid"},
		}, &fakeFiles{}, nil)

		names, err := client.ListModels(context.Background())
		require.Error(t, err)
		assert.Nil(t, names)
		assert.Contains(t, err.Error(), "list_models")

		var llmErr *llm.Error
		require.ErrorAs(t, err, &llmErr)
		assert.Equal(t, 401, llmErr.StatusCode)
		assert.Equal(t, "authentication_error", llmErr.Code)
	})
}

func TestNormalizeResponse(t *testing.T) {
	t.Parallel()
	client := newClient("gemini-2.5-flash", &fakeModels{}, &fakeFiles{}, nil)

	resp := textResponse("hello")
	resp.ResponseID = "resp-1"
	resp.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     3,
		CandidatesTokenCount: 2,
		TotalTokenCount:      5,
	}

	normalized := client.normalizeResponse("gemini-2.5-flash", resp)
	require.Len(t, normalized.Choices, 1)
	assert.Equal(t, "hello", normalized.Choices[0].Message.GetText())
	assert.Equal(t, llm.FinishReasonStop, normalized.Choices[0].FinishReason)
	assert.Equal(t, "resp-1", normalized.ID)
	assert.Equal(t, "gemini-2.5-flash", normalized.Model)
	assert.Equal(t, llm.Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5}, normalized.Usage)

	truncated := textResponse("partial")
	truncated.Candidates[0].FinishReason = genai.FinishReasonMaxTokens
	assert.Equal(t, llm.FinishReasonLength, client.normalizeResponse("m", truncated).Choices[0].FinishReason)

	empty := client.normalizeResponse("m", &genai.GenerateContentResponse{})
	require.Len(t, empty.Choices, 1)
	assert.Equal(t, "", empty.Choices[0].Message.GetText())
}

func TestBuildGenerateConfig(t *testing.T) {
	t.Parallel()

	t.Run("named options win over extra", func(t *testing.T) {
		t.Parallel()
		config, err := buildGenerateConfig(llm.GenerationOptions{
			Temperature:       ptr(float32(0.9)),
			TopK:              ptr(float32(40)),
			Seed:              ptr(7),
			StopSequences:     []string{"END"},
			SystemInstruction: "be brief",
			Extra: map[string]any{
				"temperature":      0.1,
				"responseMimeType": "text/plain",
				"labels":           map[string]string{"team": "core"},
			},
		})
		require.NoError(t, err)

		assert.InDelta(t, 0.9, *config.Temperature, 1e-6)
		assert.InDelta(t, 40, *config.TopK, 1e-6)
		assert.Equal(t, int32(7), *config.Seed)
		assert.Equal(t, []string{"END"}, config.StopSequences)
		assert.Equal(t, "text/plain", config.ResponseMIMEType)
		assert.Equal(t, map[string]string{"team": "core"}, config.Labels)
		require.NotNil(t, config.SystemInstruction)
		assert.Equal(t, []string{"be brief"}, partTexts(config.SystemInstruction))
	})

	t.Run("json schema response format", func(t *testing.T) {
		t.Parallel()
		schema := map[string]any{"type": "object"}
		config, err := buildGenerateConfig(llm.GenerationOptions{
			ResponseFormat: llm.NewJSONSchemaResponseFormat("thing", "", schema),
		})
		require.NoError(t, err)
		assert.Equal(t, "application/json", config.ResponseMIMEType)
		assert.Equal(t, schema, config.ResponseJsonSchema)
	})

	t.Run("empty options give an empty config", func(t *testing.T) {
		t.Parallel()
		config, err := buildGenerateConfig(llm.GenerationOptions{})
		require.NoError(t, err)
		assert.Equal(t, &genai.GenerateContentConfig{}, config)
	})

	t.Run("unknown extra key", func(t *testing.T) {
		t.Parallel()
		_, err := buildGenerateConfig(llm.GenerationOptions{Extra: map[string]any{"bogus": true}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bogus")
	})
}

func TestGetModelInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		model     string
		maxTokens int
	}{
		{"gemini-2.5-flash", 1048576},
		{"gemini-1.5-pro-latest", 2097152},
		{"gemini-1.0-pro", 32768},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			t.Parallel()
			info := newClient(tt.model, &fakeModels{}, &fakeFiles{}, nil).GetModelInfo()
			assert.Equal(t, tt.model, info.Name)
			assert.Equal(t, "gemini", info.Provider)
			assert.Equal(t, tt.maxTokens, info.MaxTokens)
		})
	}
}
