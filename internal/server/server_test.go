package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jackzampolin/textjson/internal/config"
	"github.com/jackzampolin/textjson/internal/extract"
	"github.com/jackzampolin/textjson/internal/providers"
	"github.com/jackzampolin/textjson/internal/testutil"
)

func newTestServer(t *testing.T, ext *extract.Extractor) *Server {
	t.Helper()
	srv, err := New(Config{
		Port:      "0",
		Extractor: ext,
		StaticFS:  fstest.MapFS{"index.html": {Data: []byte("<html>ui</html>")}},
		Logger:    testutil.DiscardLogger(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func do(h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const aliceRequest = `{"text_content": "Alice, age unknown.", "target_schema": {"name": "string", "age": "integer"}}`

func TestServer_Routes(t *testing.T) {
	mock := providers.NewMockGenerator(`{"name": "Alice", "age": null}`)
	srv := newTestServer(t, extract.NewWithGenerator("key", mock, testutil.DiscardLogger()))
	h := srv.Handler()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"health", http.MethodGet, "/api/health", "", http.StatusOK, `"api_key_configured":true`},
		{"prompt", http.MethodPost, "/api/prompt", aliceRequest, http.StatusOK, `"prompt":`},
		{"extract", http.MethodPost, "/api/extract", aliceRequest, http.StatusOK, `{"name":"Alice","age":null}`},
		{"extract missing text", http.MethodPost, "/api/extract", `{"target_schema": {}}`, http.StatusUnprocessableEntity, `"detail"`},
		{"swagger", http.MethodGet, "/swagger.json", "", http.StatusOK, `"/api/extract"`},
		{"swagger ui", http.MethodGet, "/swagger", "", http.StatusOK, "swagger-ui"},
		{"index", http.MethodGet, "/", "", http.StatusOK, "<html>ui</html>"},
		{"spa fallback", http.MethodGet, "/history", "", http.StatusOK, "<html>ui</html>"},
		{"wrong method", http.MethodGet, "/api/extract", "", http.StatusOK, "<html>ui</html>"},
		{"post to unknown", http.MethodPost, "/nope", "{}", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, tt.method, tt.path, tt.body, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want it to contain %s", rec.Body.String(), tt.wantBody)
			}
		})
	}

	// Only the extract route reaches the generator.
	if mock.RequestCount() != 1 {
		t.Errorf("generator called %d times, want 1", mock.RequestCount())
	}
}

func TestServer_NoAPIKey(t *testing.T) {
	var built bool
	ext := extract.New(extract.Config{
		NewGenerator: func(ctx context.Context, apiKey, model string) (providers.Generator, error) {
			built = true
			return providers.NewMockGenerator("{}"), nil
		},
		Logger: testutil.DiscardLogger(),
	})
	h := newTestServer(t, ext).Handler()

	rec := do(h, http.MethodGet, "/api/health", "", nil)
	var health struct {
		Status           string `json:"status"`
		APIKeyConfigured bool   `json:"api_key_configured"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "healthy" || health.APIKeyConfigured {
		t.Errorf("health = %+v, want healthy without key", health)
	}

	rec = do(h, http.MethodPost, "/api/extract", aliceRequest, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("extract status = %d, want 503", rec.Code)
	}

	rec = do(h, http.MethodPost, "/api/prompt", aliceRequest, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("prompt status = %d, want 200", rec.Code)
	}

	if built {
		t.Error("generator built without an API key")
	}
}

func TestServer_FromSettings(t *testing.T) {
	settings := config.DefaultSettings()
	settings.GoogleAPIKey = "fallback"

	srv, err := New(Config{Settings: settings, Logger: testutil.DiscardLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if srv.Addr() != "127.0.0.1:8000" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8000", srv.Addr())
	}

	rec := do(srv.Handler(), http.MethodGet, "/api/health", "", nil)
	if !strings.Contains(rec.Body.String(), `"api_key_configured":true`) {
		t.Errorf("health = %s, want key configured from fallback", rec.Body.String())
	}

	rec = do(srv.Handler(), http.MethodGet, "/api/settings", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("settings status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "fallback") {
		t.Errorf("settings leaks the API key: %s", rec.Body.String())
	}
	var got struct {
		APIKeyConfigured bool   `json:"api_key_configured"`
		Port             string `json:"port"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("settings body: %v", err)
	}
	if !got.APIKeyConfigured || got.Port != "8000" {
		t.Errorf("settings = %+v", got)
	}
}

func TestMiddleware_RequestID(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := do(h, http.MethodGet, "/api/health", "", nil)
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("request ID not generated")
	}

	rec = do(h, http.MethodGet, "/api/health", "", map[string]string{RequestIDHeader: "caller-id"})
	if got := rec.Header().Get(RequestIDHeader); got != "caller-id" {
		t.Errorf("%s = %q, want caller-id", RequestIDHeader, got)
	}
}

func TestMiddleware_CORS(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	origin := "http://example.com"

	t.Run("preflight", func(t *testing.T) {
		rec := do(h, http.MethodOptions, "/api/extract", "", map[string]string{
			"Origin":                         origin,
			"Access-Control-Request-Method":  http.MethodPost,
			"Access-Control-Request-Headers": "Content-Type, X-Custom",
		})
		if rec.Code < 200 || rec.Code >= 300 {
			t.Fatalf("preflight status = %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != origin {
			t.Errorf("Allow-Origin = %q", got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPost) {
			t.Errorf("Allow-Methods = %q, want POST", got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Headers"); got == "" {
			t.Error("Allow-Headers not set")
		}
		if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("Allow-Credentials = %q, want true", got)
		}
	})

	t.Run("actual request", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/health", "", map[string]string{"Origin": origin})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != origin {
			t.Errorf("Allow-Origin = %q", got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("Allow-Credentials = %q, want true", got)
		}
	})

	for _, method := range []string{"PURGE", "purge", "PROPFIND"} {
		t.Run("preflight "+method, func(t *testing.T) {
			rec := do(h, http.MethodOptions, "/api/extract", "", map[string]string{
				"Origin":                        origin,
				"Access-Control-Request-Method": method,
			})
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != origin {
				t.Errorf("Allow-Origin = %q, want %q", got, origin)
			}
			if got := rec.Header().Get("Access-Control-Allow-Methods"); got != method {
				t.Errorf("Allow-Methods = %q, want %s", got, method)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
				t.Errorf("Allow-Credentials = %q, want true", got)
			}
		})
	}

	t.Run("non-standard actual request", func(t *testing.T) {
		rec := do(h, "PURGE", "/api/health", "", map[string]string{"Origin": origin})
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != origin {
			t.Errorf("Allow-Origin = %q, want %q", got, origin)
		}
	})
}

func TestMiddleware_Recovery(t *testing.T) {
	srv := newTestServer(t, nil)
	h := srv.withRecovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := do(h, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "detail") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestServer_Lifecycle(t *testing.T) {
	cfg := testutil.NewServerConfig(t)

	srv, err := New(Config{
		Host:      cfg.Host,
		Port:      cfg.Port,
		Extractor: extract.New(extract.Config{Logger: cfg.Logger}),
		Logger:    cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	starter := testutil.StartServer{Cancel: cancel}
	defer starter.Stop()

	if err := testutil.WaitForServer(cfg.URL(), 10*time.Second); err != nil {
		t.Fatalf("server did not start: %v", err)
	}
	if !srv.IsRunning() {
		t.Error("IsRunning() = false after start")
	}
	if srv.Addr() != cfg.Host+":"+cfg.Port {
		t.Errorf("Addr() = %q", srv.Addr())
	}

	if err := srv.Start(ctx); err == nil {
		t.Error("second Start() should fail while running")
	}

	cancel()
	if err := testutil.WaitForShutdown(done, 10*time.Second); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}

func TestServer_StartAfterShutdown(t *testing.T) {
	srv := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	select {
	case <-srv.Ready():
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server never became ready")
	}
	cancel()
	if err := testutil.WaitForShutdown(done, 10*time.Second); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}

	err := srv.Start(context.Background())
	if !errors.Is(err, ErrServerStopped) {
		t.Fatalf("Start() after shutdown error = %v, want ErrServerStopped", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after refused restart")
	}
}

func TestServer_StartAfterListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	host, port, _ := net.SplitHostPort(ln.Addr().String())

	srv, err := New(Config{Host: host, Port: port, Logger: testutil.DiscardLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := srv.Start(context.Background()); err == nil {
		t.Fatal("Start() on a bound port should fail")
	}
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	select {
	case <-srv.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("retry after listen failure: Start() = %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server never became ready")
	}
	cancel()
	if err := testutil.WaitForShutdown(done, 10*time.Second); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestServer_EphemeralPort(t *testing.T) {
	srv := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	select {
	case <-srv.Ready():
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server never became ready")
	}

	if strings.HasSuffix(srv.Addr(), ":0") {
		t.Errorf("Addr() = %q, want bound port", srv.Addr())
	}
	if err := testutil.WaitForServer("http://"+srv.Addr(), 5*time.Second); err != nil {
		t.Errorf("server not reachable: %v", err)
	}

	cancel()
	if err := testutil.WaitForShutdown(done, 10*time.Second); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
