package providers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

const MockName = "mock"

// ErrMockFailure is returned by MockGenerator when ShouldFail is set and Err is nil.
var ErrMockFailure = errors.New("mock generator configured to fail")

// MockGenerator is a Generator for testing.
type MockGenerator struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	Err          error // Returned when ShouldFail is set (defaults to ErrMockFailure)
	ResponseText string
	ResponseJSON json.RawMessage // Returned as GenerateResult.Parsed when set

	// State
	requestCount atomic.Int64
	mu           sync.Mutex
	lastRequest  *GenerateRequest
}

// NewMockGenerator creates a mock that answers with the given raw text.
func NewMockGenerator(responseText string) *MockGenerator {
	return &MockGenerator{ResponseText: responseText}
}

// Name returns the provider identifier.
func (m *MockGenerator) Name() string {
	return MockName
}

// GenerateJSON returns the configured response.
func (m *MockGenerator) GenerateJSON(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()
	m.requestCount.Add(1)

	m.mu.Lock()
	copied := *req
	m.lastRequest = &copied
	m.mu.Unlock()

	if m.ShouldFail {
		if m.Err != nil {
			return nil, m.Err
		}
		return nil, ErrMockFailure
	}

	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return &GenerateResult{
		Text:             m.ResponseText,
		Parsed:           m.ResponseJSON,
		PromptTokens:     len(req.Prompt) / 4, // Rough estimate
		CompletionTokens: len(m.ResponseText) / 4,
		TotalTokens:      (len(req.Prompt) + len(m.ResponseText)) / 4,
		ExecutionTime:    time.Since(start),
		FinishReason:     "STOP",
		Provider:         MockName,
		ModelUsed:        req.Model,
	}, nil
}

// RequestCount returns the number of requests made.
func (m *MockGenerator) RequestCount() int64 {
	return m.requestCount.Load()
}

// LastRequest returns a copy of the most recent request, or nil.
func (m *MockGenerator) LastRequest() *GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Reset resets the request counter.
func (m *MockGenerator) Reset() {
	m.requestCount.Store(0)
}

// Verify interface
var _ Generator = (*MockGenerator)(nil)
