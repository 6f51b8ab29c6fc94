// Package providers wraps the hosted generation service behind a small
// interface so the extraction client can be tested without the network.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrMissingAPIKey is returned when a provider is constructed without credentials.
var ErrMissingAPIKey = errors.New("API key is required")

// Generator produces JSON output constrained by a schema from a single prompt.
// Implementations make exactly one round trip per call and never retry.
type Generator interface {
	// Name returns the provider identifier (e.g., "gemini").
	Name() string

	// GenerateJSON sends the prompt and declares that the response must be
	// JSON conforming to req.Schema.
	GenerateJSON(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)
}

// GenerateRequest is a schema-constrained generation request.
type GenerateRequest struct {
	// Prompt is sent verbatim as the user content.
	Prompt string

	// Schema is the caller's target schema, forwarded as the response schema.
	Schema json.RawMessage

	// Model overrides the generator default when set.
	Model string
}

// GenerateResult is the provider response.
type GenerateResult struct {
	// Text is the raw model output.
	Text string

	// Parsed is set when the provider already decoded the output.
	// Callers prefer it over Text.
	Parsed json.RawMessage

	// Token counts
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int

	ExecutionTime time.Duration
	FinishReason  string

	// Provider info
	Provider  string
	ModelUsed string
}
