package providers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMockGenerator(t *testing.T) {
	t.Run("returns text", func(t *testing.T) {
		m := NewMockGenerator(`{"name":"Alice"}`)

		result, err := m.GenerateJSON(context.Background(), &GenerateRequest{
			Prompt: "extract",
			Schema: json.RawMessage(`{"name":"string"}`),
			Model:  "test-model",
		})
		if err != nil {
			t.Fatalf("GenerateJSON() error = %v", err)
		}
		if result.Text != `{"name":"Alice"}` {
			t.Errorf("Text = %q", result.Text)
		}
		if result.Parsed != nil {
			t.Errorf("Parsed = %s, want nil", result.Parsed)
		}
		if result.Provider != MockName {
			t.Errorf("Provider = %q, want %q", result.Provider, MockName)
		}
		if m.RequestCount() != 1 {
			t.Errorf("RequestCount = %d, want 1", m.RequestCount())
		}
		if last := m.LastRequest(); last == nil || last.Prompt != "extract" {
			t.Errorf("LastRequest = %+v", last)
		}
	})

	t.Run("returns parsed", func(t *testing.T) {
		m := &MockGenerator{ResponseJSON: json.RawMessage(`{"ok":true}`)}
		result, err := m.GenerateJSON(context.Background(), &GenerateRequest{Prompt: "p"})
		if err != nil {
			t.Fatalf("GenerateJSON() error = %v", err)
		}
		if string(result.Parsed) != `{"ok":true}` {
			t.Errorf("Parsed = %s", result.Parsed)
		}
	})

	t.Run("should fail", func(t *testing.T) {
		m := &MockGenerator{ShouldFail: true}
		_, err := m.GenerateJSON(context.Background(), &GenerateRequest{})
		if !errors.Is(err, ErrMockFailure) {
			t.Errorf("error = %v, want ErrMockFailure", err)
		}
	})

	t.Run("custom error", func(t *testing.T) {
		boom := errors.New("upstream 500")
		m := &MockGenerator{ShouldFail: true, Err: boom}
		_, err := m.GenerateJSON(context.Background(), &GenerateRequest{})
		if !errors.Is(err, boom) {
			t.Errorf("error = %v, want %v", err, boom)
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		m := &MockGenerator{Latency: time.Second}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := m.GenerateJSON(ctx, &GenerateRequest{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})

	t.Run("concurrent requests", func(t *testing.T) {
		m := NewMockGenerator("{}")
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				m.GenerateJSON(context.Background(), &GenerateRequest{Prompt: "p"})
			}()
		}
		wg.Wait()

		if m.RequestCount() != 10 {
			t.Errorf("RequestCount = %d, want 10", m.RequestCount())
		}
		m.Reset()
		if m.RequestCount() != 0 {
			t.Errorf("RequestCount after Reset = %d, want 0", m.RequestCount())
		}
	})
}
