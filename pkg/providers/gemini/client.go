package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/inercia/go-aisuite/pkg/llm"
)

// Operation names reported in provider call errors
const (
	OpChatCompletionsCreate = "chat_completions_create"
	OpGenerateContent       = "generate_content"
	OpUploadFile            = "upload_file"
	OpListModels            = "list_models"
)

const providerName = "gemini"

// modelsService is the part of genai.Models used by the client
type modelsService interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	All(ctx context.Context) iter.Seq2[*genai.Model, error]
}

// filesService is the part of genai.Files used by the client
type filesService interface {
	UploadFromPath(ctx context.Context, path string, config *genai.UploadFileConfig) (*genai.File, error)
}

// newGenaiClient builds the vendor client. Replaced in tests.
var newGenaiClient = genai.NewClient

// safeIntToInt32 safely converts int to int32
func safeIntToInt32(val int) int32 {
	if val > 2147483647 {
		return 2147483647
	}
	if val < -2147483648 {
		return -2147483648
	}
	return int32(val)
}

// modelCapabilities defines the capabilities for a model pattern
type modelCapabilities struct {
	pattern        *regexp.Regexp
	maxTokens      int
	supportsVision bool
	supportsFiles  bool
}

// modelCapabilitiesList defines capabilities for different Gemini models
// Models are matched in order, first match wins
var modelCapabilitiesList = []modelCapabilities{
	{
		pattern:        regexp.MustCompile(`gemini-(2\.5|3)`),
		maxTokens:      1048576,
		supportsVision: true,
		supportsFiles:  true,
	},
	{
		pattern:        regexp.MustCompile(`gemini-2\.0`),
		maxTokens:      1048576,
		supportsVision: true,
		supportsFiles:  true,
	},
	// Gemini 1.5 Pro models (2M context)
	{
		pattern:        regexp.MustCompile(`gemini-1\.5-pro`),
		maxTokens:      2097152,
		supportsVision: true,
		supportsFiles:  true,
	},
	{
		pattern:        regexp.MustCompile(`gemini-1\.5-flash`),
		maxTokens:      1048576,
		supportsVision: true,
		supportsFiles:  true,
	},
}

// Client adapts the Google generative-content API to the llm.Client contract.
//
// A Client is not safe for concurrent use while AttachFile is being called.
type Client struct {
	model  string
	models modelsService
	files  filesService
	logger *slog.Logger

	// attachedFiles are sent along with every GenerateContent call
	attachedFiles []*genai.File
}

// NewClient creates a new Gemini client using the official Google Gen AI library.
//
// The API key is taken from config.APIKey or, when empty, from GEMINI_API_KEY.
// Without a key a configuration error is returned and no vendor client is created.
func NewClient(config llm.ClientConfig) (*Client, error) {
	apiKey := llm.ResolveAPIKey(config.APIKey, llm.EnvGeminiAPIKey)
	if apiKey == "" {
		return nil, llm.NewConfigurationError("missing_api_key",
			"Gemini API key is missing. Please provide it in the config or set the GEMINI_API_KEY environment variable.")
	}

	genaiConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.Timeout > 0 {
		timeout := config.Timeout
		genaiConfig.HTTPOptions.Timeout = &timeout
	}

	genaiClient, err := newGenaiClient(context.Background(), genaiConfig)
	if err != nil {
		return nil, &llm.Error{
			Code:    "client_creation_error",
			Message: fmt.Sprintf("Failed to create genai client: %v", err),
			Type:    llm.ErrorTypeConfiguration,
			Err:     err,
		}
	}

	return newClient(config.Model, genaiClient.Models, genaiClient.Files, config.GetLogger()), nil
}

func newClient(model string, models modelsService, files filesService, logger *slog.Logger) *Client {
	if model == "" {
		model = llm.DefaultGeminiModel
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		model:         model,
		models:        models,
		files:         files,
		logger:        logger.With("provider", providerName),
		attachedFiles: []*genai.File{},
	}
}

// ChatCompletion sends the text of every message, in order, as the parts of a single
// user content. Message roles are not forwarded.
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	model := c.resolveModel(req.Model)

	config, err := buildGenerateConfig(req.GenerationOptions)
	if err != nil {
		return nil, c.wrapError(OpChatCompletionsCreate, err, "")
	}

	texts := llm.MessageTexts(req.Messages)
	parts := make([]*genai.Part, 0, len(texts))
	for _, text := range texts {
		parts = append(parts, genai.NewPartFromText(text))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	c.logger.DebugContext(ctx, "generating content", "op", OpChatCompletionsCreate, "model", model, "messages", len(texts))

	resp, err := c.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, c.wrapError(OpChatCompletionsCreate, err, "")
	}
	if resp == nil {
		return nil, c.wrapError(OpChatCompletionsCreate, errEmptyResponse, "")
	}

	return c.normalizeResponse(model, resp), nil
}

// GenerateContent generates from vendor contents. Attached files are sent after the
// caller's contents; the contents slice passed in is never modified.
func (c *Client) GenerateContent(ctx context.Context, model string, contents []*genai.Content, opts llm.GenerationOptions) (*llm.ChatResponse, error) {
	model = c.resolveModel(model)

	config, err := buildGenerateConfig(opts)
	if err != nil {
		return nil, c.wrapError(OpGenerateContent, err, describeOptions(opts))
	}

	request := c.withAttachedFiles(contents)

	c.logger.DebugContext(ctx, "generating content", "op", OpGenerateContent, "model", model,
		"contents", len(request), "attached_files", len(c.attachedFiles))

	resp, err := c.models.GenerateContent(ctx, model, request, config)
	if err != nil {
		return nil, c.wrapError(OpGenerateContent, err, describeOptions(opts))
	}
	if resp == nil {
		return nil, c.wrapError(OpGenerateContent, errEmptyResponse, describeOptions(opts))
	}

	return c.normalizeResponse(model, resp), nil
}

// UploadFile uploads a local file and returns the vendor handle as is.
// The file is not attached to later requests; see AttachFile.
func (c *Client) UploadFile(ctx context.Context, filePath string) (*genai.File, error) {
	c.logger.DebugContext(ctx, "uploading file", "op", OpUploadFile, "path", filePath)

	file, err := c.files.UploadFromPath(ctx, filePath, nil)
	if err != nil {
		return nil, c.wrapError(OpUploadFile, err, fmt.Sprintf("(file: %s)", filePath))
	}
	return file, nil
}

// AttachFile adds a previously uploaded file to every following GenerateContent call
func (c *Client) AttachFile(file *genai.File) {
	if file == nil {
		return
	}
	c.attachedFiles = append(c.attachedFiles, file)
}

// AttachedFiles returns a copy of the files attached to GenerateContent calls
func (c *Client) AttachedFiles() []*genai.File {
	files := make([]*genai.File, len(c.attachedFiles))
	copy(files, c.attachedFiles)
	return files
}

// ListModels returns the names of the models available to the API key, in vendor order
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	c.logger.DebugContext(ctx, "listing models", "op", OpListModels)

	var names []string
	for model, err := range c.models.All(ctx) {
		if err != nil {
			return nil, c.wrapError(OpListModels, err, "")
		}
		names = append(names, model.Name)
	}
	return names, nil
}

var errEmptyResponse = errors.New("empty response from Gemini")

func (c *Client) resolveModel(model string) string {
	if model == "" {
		return c.model
	}
	return model
}

// withAttachedFiles returns a new slice holding contents followed by one content per attached file
func (c *Client) withAttachedFiles(contents []*genai.Content) []*genai.Content {
	if len(c.attachedFiles) == 0 {
		return contents
	}

	result := make([]*genai.Content, 0, len(contents)+len(c.attachedFiles))
	result = append(result, contents...)
	for _, file := range c.attachedFiles {
		result = append(result, genai.NewContentFromURI(file.URI, file.MIMEType, genai.RoleUser))
	}
	return result
}

// normalizeResponse reshapes a vendor response into a single-choice llm.ChatResponse
func (c *Client) normalizeResponse(model string, resp *genai.GenerateContentResponse) *llm.ChatResponse {
	normalized := llm.NewChatResponse(resp.Text())

	normalized.Model = model
	if resp.ModelVersion != "" {
		normalized.Model = resp.ModelVersion
	}
	if resp.ResponseID != "" {
		normalized.ID = resp.ResponseID
	} else {
		normalized.ID = fmt.Sprintf("gemini-%s", time.Now().Format(time.RFC3339Nano))
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		normalized.Choices[0].FinishReason = convertFinishReason(resp.Candidates[0].FinishReason)
	}

	if usage := resp.UsageMetadata; usage != nil {
		normalized.Usage = llm.Usage{
			PromptTokens:     int(usage.PromptTokenCount),
			CompletionTokens: int(usage.CandidatesTokenCount),
			TotalTokens:      int(usage.TotalTokenCount),
		}
	}

	return normalized
}

func convertFinishReason(reason genai.FinishReason) string {
	switch {
	case reason == genai.FinishReasonMaxTokens:
		return llm.FinishReasonLength
	case strings.Contains(string(reason), "SAFETY"):
		return llm.FinishReasonContentFilter
	default:
		return llm.FinishReasonStop
	}
}

// buildGenerateConfig maps generation options onto the vendor config.
// Extra is decoded first using the vendor's JSON field names, then the named options
// are applied on top. Unknown Extra keys are rejected.
func buildGenerateConfig(opts llm.GenerationOptions) (*genai.GenerateContentConfig, error) {
	config := &genai.GenerateContentConfig{}

	if len(opts.Extra) > 0 {
		data, err := json.Marshal(opts.Extra)
		if err != nil {
			return nil, fmt.Errorf("invalid extra options: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(config); err != nil {
			return nil, fmt.Errorf("invalid extra options: %w", err)
		}
	}

	if opts.Temperature != nil {
		config.Temperature = opts.Temperature
	}
	if opts.TopP != nil {
		config.TopP = opts.TopP
	}
	if opts.TopK != nil {
		config.TopK = opts.TopK
	}
	if opts.MaxTokens != nil {
		config.MaxOutputTokens = safeIntToInt32(*opts.MaxTokens)
	}
	if opts.CandidateCount != nil {
		config.CandidateCount = safeIntToInt32(*opts.CandidateCount)
	}
	if len(opts.StopSequences) > 0 {
		config.StopSequences = opts.StopSequences
	}
	if opts.Seed != nil {
		seed := safeIntToInt32(*opts.Seed)
		config.Seed = &seed
	}
	if opts.PresencePenalty != nil {
		config.PresencePenalty = opts.PresencePenalty
	}
	if opts.FrequencyPenalty != nil {
		config.FrequencyPenalty = opts.FrequencyPenalty
	}
	if opts.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(opts.SystemInstruction, genai.RoleUser)
	}

	if rf := opts.ResponseFormat; rf != nil {
		switch rf.Type {
		case llm.ResponseFormatJSON:
			config.ResponseMIMEType = "application/json"
		case llm.ResponseFormatJSONSchema:
			config.ResponseMIMEType = "application/json"
			if rf.JSONSchema != nil && rf.JSONSchema.Schema != nil {
				config.ResponseJsonSchema = rf.JSONSchema.Schema
			}
		}
	}

	return config, nil
}

// describeOptions renders the forwarded options for error messages
func describeOptions(opts llm.GenerationOptions) string {
	data, err := json.Marshal(opts)
	if err != nil {
		return fmt.Sprintf("with options: %+v", opts)
	}
	return "with options: " + string(data)
}

// wrapError converts a vendor failure into a provider call error for op
func (c *Client) wrapError(op string, err error, detail string) *llm.Error {
	llmErr := llm.NewProviderCallError(op, err, detail)

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		llmErr.StatusCode = apiErr.Code
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		llmErr.StatusCode = apiErrPtr.Code
	}
	llmErr.Code = classifyError(err, llmErr.StatusCode)
	if llmErr.StatusCode == 0 {
		llmErr.StatusCode = statusForCode(llmErr.Code)
	}

	c.logger.Warn("gemini call failed", "op", op, "code", llmErr.Code, "error", err)
	return llmErr
}

// classifyError derives an error code from the HTTP status or, failing that, the message
func classifyError(err error, status int) string {
	switch status {
	case 401:
		return "authentication_error"
	case 429:
		return "rate_limit_error"
	case 403:
		return "quota_error"
	}

	if err == nil {
		return "api_error"
	}
	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "API key") ||
		strings.Contains(errMsg, "authentication") ||
		strings.Contains(errMsg, "unauthorized") ||
		strings.Contains(errMsg, "401"):
		return "authentication_error"
	case strings.Contains(errMsg, "rate limit") ||
		strings.Contains(errMsg, "429"):
		return "rate_limit_error"
	case strings.Contains(errMsg, "quota") ||
		strings.Contains(errMsg, "403"):
		return "quota_error"
	default:
		return "api_error"
	}
}

func statusForCode(code string) int {
	switch code {
	case "authentication_error":
		return 401
	case "rate_limit_error":
		return 429
	case "quota_error":
		return 403
	default:
		return 0
	}
}

// GetModelInfo returns the capabilities of the default model
func (c *Client) GetModelInfo() llm.ModelInfo {
	caps := modelCapabilities{
		maxTokens:      32768,
		supportsVision: true,
		supportsFiles:  true,
	}

	for _, modelCaps := range modelCapabilitiesList {
		if modelCaps.pattern.MatchString(c.model) {
			caps = modelCaps
			break
		}
	}

	return llm.ModelInfo{
		Name:           c.model,
		Provider:       providerName,
		MaxTokens:      caps.maxTokens,
		SupportsVision: caps.supportsVision,
		SupportsFiles:  caps.supportsFiles,
	}
}

func (c *Client) Close() error {
	// The genai client doesn't provide a Close method, so we don't need to do anything
	return nil
}
