package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"
)

const (
	GeminiName = "gemini"

	// DefaultGeminiModel is used when no model is configured.
	DefaultGeminiModel = "gemini-2.5-flash"

	jsonMIMEType = "application/json"
)

// GeminiConfig holds configuration for the Gemini generator.
type GeminiConfig struct {
	APIKey     string
	Model      string       // "gemini-2.5-flash" (default)
	HTTPClient *http.Client // Optional (tests)
	BaseURL    string       // Optional (tests)
}

// GeminiGenerator wraps a genai.Client to implement Generator.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini API client and wraps it.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return NewGeminiGeneratorFromClient(client, cfg.Model), nil
}

// NewGeminiGeneratorFromClient wraps an existing genai.Client.
// client: genai.Client from google.golang.org/genai (Gemini API or Vertex AI)
// model: the model to use; empty selects DefaultGeminiModel
func NewGeminiGeneratorFromClient(client *genai.Client, model string) *GeminiGenerator {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiGenerator{
		client: client,
		model:  model,
	}
}

// Name returns the provider identifier.
func (g *GeminiGenerator) Name() string {
	return GeminiName
}

// Model returns the default model.
func (g *GeminiGenerator) Model() string {
	return g.model
}

// GenerateJSON implements Generator.GenerateJSON.
func (g *GeminiGenerator) GenerateJSON(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: jsonMIMEType,
	}
	if len(req.Schema) > 0 {
		var schema any
		if err := json.Unmarshal(req.Schema, &schema); err != nil {
			return nil, fmt.Errorf("invalid response schema: %w", err)
		}
		config.ResponseJsonSchema = schema
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return nil, errors.New("no candidates returned")
	}

	result := &GenerateResult{
		Text:          resp.Text(),
		ExecutionTime: time.Since(start),
		FinishReason:  string(resp.Candidates[0].FinishReason),
		Provider:      GeminiName,
		ModelUsed:     model,
	}
	if resp.ModelVersion != "" {
		result.ModelUsed = resp.ModelVersion
	}
	if usage := resp.UsageMetadata; usage != nil {
		result.PromptTokens = int(usage.PromptTokenCount)
		result.CompletionTokens = int(usage.CandidatesTokenCount)
		result.TotalTokens = int(usage.TotalTokenCount)
	}

	return result, nil
}

// Verify that GeminiGenerator implements Generator
var _ Generator = (*GeminiGenerator)(nil)
