package testutil

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/areknoster/hypert"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// generativeLanguageScope authorizes OAuth calls to the Gemini API.
const generativeLanguageScope = "https://www.googleapis.com/auth/generative-language"

// ShouldUpdate returns true if tests should update cached HTTP responses.
// Set UPDATE_TESTS=true to record against the live API.
func ShouldUpdate() bool {
	return os.Getenv("UPDATE_TESTS") == "true"
}

// HypertClientConfig configures hypert client creation.
type HypertClientConfig struct {
	TestDataDir string
	SubDir      string // Optional subdirectory for organizing test data
}

func (c HypertClientConfig) dir() string {
	if c.SubDir != "" {
		return filepath.Join(c.TestDataDir, c.SubDir)
	}
	return c.TestDataDir
}

// HasRecordings reports whether replay fixtures exist for config.
func HasRecordings(config HypertClientConfig) bool {
	entries, err := os.ReadDir(config.dir())
	return err == nil && len(entries) > 0
}

// SkipWithoutRecordings skips t when running in replay mode with no fixtures,
// or under -short.
func SkipWithoutRecordings(t *testing.T, config HypertClientConfig) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping recorded API test in short mode")
	}
	if !ShouldUpdate() && !HasRecordings(config) {
		t.Skipf("no recordings in %s; run with UPDATE_TESTS=true to record", config.dir())
	}
}

// NewHypertClient creates an HTTP client that replays recorded responses, or
// records live ones when UPDATE_TESTS=true.
func NewHypertClient(t *testing.T, config HypertClientConfig) *http.Client {
	t.Helper()
	return NewHypertClientMode(t, config, ShouldUpdate())
}

// NewHypertClientMode is NewHypertClient with the record mode chosen by the
// caller. Requests are named by path and body hash, so a replayed request
// must match its recording byte for byte.
func NewHypertClientMode(t *testing.T, config HypertClientConfig, record bool) *http.Client {
	t.Helper()

	namingScheme, err := hypert.NewContentHashNamingScheme(config.dir())
	if err != nil {
		t.Fatalf("failed to create naming scheme: %v", err)
	}

	return hypert.TestClient(t, record,
		hypert.WithNamingScheme(namingScheme),
		hypert.WithRequestSanitizer(hypert.ComposedRequestSanitizer(
			hypert.DefaultRequestSanitizer(),
			hypert.HeadersSanitizer("X-Goog-Api-Key"),
		)),
		hypert.WithRequestValidator(hypert.ComposedRequestValidator(
			hypert.PathValidator(),
			hypert.QueryParamsValidator(),
			hypert.MethodValidator(),
		)),
	)
}

// adcKeyPlaceholder satisfies the key check when recording with application
// default credentials; adcTransport removes it from outgoing requests.
const adcKeyPlaceholder = "adc"

// adcTransport sends OAuth-authenticated Gemini requests without an API key
// and bills them to the credentials' quota project.
type adcTransport struct {
	base      http.RoundTripper
	projectID string
}

func (t *adcTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Del("X-Goog-Api-Key")
	if t.projectID != "" {
		req.Header.Set("X-Goog-User-Project", t.projectID)
	}
	return t.base.RoundTrip(req)
}

// GeminiRecording returns the HTTP client and API key for a recorded Gemini
// test. When recording without GEMINI_API_KEY, application default
// credentials are used instead of a key. Replay uses a placeholder key.
func GeminiRecording(t *testing.T, config HypertClientConfig) (*http.Client, string) {
	t.Helper()

	client := NewHypertClient(t, config)
	if !ShouldUpdate() {
		return client, "replay-key"
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return client, key
	}

	ctx := context.Background()
	creds, err := google.FindDefaultCredentials(ctx, generativeLanguageScope)
	if err != nil {
		t.Fatalf("failed to get default credentials: %v", err)
	}
	return NewADCClient(ctx, client, creds.TokenSource, creds.ProjectID), adcKeyPlaceholder
}

// NewADCClient wraps base so requests carry an OAuth bearer token from ts
// instead of an API key, billed to projectID when set.
func NewADCClient(ctx context.Context, base *http.Client, ts oauth2.TokenSource, projectID string) *http.Client {
	oauthClient := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), ts)
	return &http.Client{
		Transport: &adcTransport{base: oauthClient.Transport, projectID: projectID},
	}
}
