// Package extract turns raw text plus a target schema into structured JSON
// using a hosted generation service.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jackzampolin/textjson/internal/prompts"
	"github.com/jackzampolin/textjson/internal/providers"
)

// Request is the inbound extraction request.
type Request struct {
	TextContent  string          `json:"text_content"`
	TargetSchema json.RawMessage `json:"target_schema"`
}

// GeneratorFactory builds the remote generation client for an API key.
// It must be free of observable side effects: concurrent callers may each
// build one and all but the first are discarded.
type GeneratorFactory func(ctx context.Context, apiKey, model string) (providers.Generator, error)

// GeminiFactory builds Gemini generators with provider defaults.
func GeminiFactory(ctx context.Context, apiKey, model string) (providers.Generator, error) {
	return providers.NewGeminiGenerator(ctx, providers.GeminiConfig{
		APIKey: apiKey,
		Model:  model,
	})
}

// Config holds extractor configuration.
type Config struct {
	// APIKey is the effective key; empty means extraction is unavailable.
	APIKey string
	// Model is the generation model; empty uses the provider default.
	Model string
	// NewGenerator defaults to GeminiFactory.
	NewGenerator GeneratorFactory
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Extractor builds prompts and performs schema-constrained extraction.
// Safe for concurrent use; the only shared state is the immutable config and
// a lazily built generator.
type Extractor struct {
	apiKey       string
	model        string
	newGenerator GeneratorFactory
	logger       *slog.Logger

	generator atomic.Pointer[generatorHandle]
}

type generatorHandle struct {
	g providers.Generator
}

// New creates an Extractor. It never fails: a missing key is reported by
// Extract, not at construction.
func New(cfg Config) *Extractor {
	if cfg.NewGenerator == nil {
		cfg.NewGenerator = GeminiFactory
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Extractor{
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		newGenerator: cfg.NewGenerator,
		logger:       cfg.Logger,
	}
}

// NewWithGenerator creates an Extractor around an existing generator.
func NewWithGenerator(apiKey string, g providers.Generator, logger *slog.Logger) *Extractor {
	e := New(Config{APIKey: apiKey, Logger: logger})
	e.generator.Store(&generatorHandle{g: g})
	return e
}

// Configured reports whether an API key is available.
func (e *Extractor) Configured() bool {
	return e.apiKey != ""
}

// Model returns the configured model name.
func (e *Extractor) Model() string {
	return e.model
}

// Prompt renders the prompt that Extract would send. No network access.
func (e *Extractor) Prompt(req Request) (string, error) {
	return prompts.Build(req.TextContent, req.TargetSchema)
}

// Extract sends the prompt and schema to the generation service and returns
// the JSON document it produced.
func (e *Extractor) Extract(ctx context.Context, req Request) (json.RawMessage, error) {
	if !e.Configured() {
		return nil, &Error{Kind: KindConfiguration, Err: ErrNotConfigured}
	}

	prompt, err := e.Prompt(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	g, err := e.loadGenerator(ctx)
	if err != nil {
		return nil, &Error{Kind: KindRemote, Op: "failed to create client", Err: err}
	}

	logger := e.loggerFor(ctx).With("provider", g.Name(), "prompt_hash", prompts.HashText(prompt)[:12])

	result, err := g.GenerateJSON(ctx, &providers.GenerateRequest{
		Prompt: prompt,
		Schema: req.TargetSchema,
		Model:  e.model,
	})
	if err != nil {
		logger.Error("generation failed", "error", err)
		return nil, &Error{Kind: KindRemote, Op: "generation failed", Err: err}
	}

	var parsed json.RawMessage
	if len(result.Parsed) > 0 && json.Valid(result.Parsed) {
		parsed = result.Parsed
	} else {
		parsed, err = providers.ParseStructuredJSON(result.Text)
		if err != nil {
			logger.Error("model returned non-JSON output", "error", err, "finish_reason", result.FinishReason)
			return nil, &Error{Kind: KindParse, Op: "invalid JSON in model response", Err: err}
		}
	}

	logger.Info("extraction complete",
		"model", result.ModelUsed,
		"prompt_tokens", result.PromptTokens,
		"completion_tokens", result.CompletionTokens,
		"execution_time", result.ExecutionTime,
	)
	e.checkConformance(logger, req.TargetSchema, parsed)

	return parsed, nil
}

type loggerKey struct{}

// WithLogger attaches a request-scoped logger that Extract uses in place of
// the extractor's own.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func (e *Extractor) loggerFor(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return e.logger
}

// loadGenerator returns the shared generator, building it on first use.
// Racing callers may each build one; the first stored wins.
func (e *Extractor) loadGenerator(ctx context.Context) (providers.Generator, error) {
	if h := e.generator.Load(); h != nil {
		return h.g, nil
	}

	g, err := e.newGenerator(ctx, e.apiKey, e.model)
	if err != nil {
		return nil, err
	}
	e.generator.CompareAndSwap(nil, &generatorHandle{g: g})
	return e.generator.Load().g, nil
}

// checkConformance logs whether the result matches the target schema.
// The result is returned either way.
func (e *Extractor) checkConformance(logger *slog.Logger, schema, parsed json.RawMessage) {
	err := providers.ValidateStructuredJSON(schema, parsed)
	switch {
	case err == nil:
	case errors.Is(err, providers.ErrSchemaNotCompilable):
		logger.Debug("target schema not usable for validation", "error", err)
	default:
		logger.Warn("extraction result does not conform to target schema", "error", err)
	}
}
