package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// isolated returns options that never touch the developer's real config or .env.
func isolated(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{
		EnvFile:     filepath.Join(dir, ".env"),
		SearchPaths: []string{dir},
	}
}

func clearKeys(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
}

func TestSettings_APIKey(t *testing.T) {
	tests := []struct {
		name   string
		gemini string
		google string
		want   string
	}{
		{name: "neither set", want: ""},
		{name: "only primary", gemini: "g-primary", want: "g-primary"},
		{name: "only fallback", google: "g-fallback", want: "g-fallback"},
		{name: "both set", gemini: "g-primary", google: "g-fallback", want: "g-primary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearKeys(t)
			if tt.gemini != "" {
				t.Setenv("GEMINI_API_KEY", tt.gemini)
			}
			if tt.google != "" {
				t.Setenv("GOOGLE_API_KEY", tt.google)
			}

			mgr, err := NewManager(isolated(t))
			if err != nil {
				t.Fatalf("NewManager() error = %v", err)
			}
			if got := mgr.Get().APIKey(); got != tt.want {
				t.Errorf("APIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewManager_Defaults(t *testing.T) {
	clearKeys(t)

	mgr, err := NewManager(isolated(t))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	cfg := mgr.Get()
	if cfg.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", cfg.Model, DefaultModel)
	}
	if cfg.Addr() != "127.0.0.1:8000" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8000", cfg.Addr())
	}
	if cfg.APIKey() != "" {
		t.Errorf("APIKey() = %q, want empty", cfg.APIKey())
	}
	if mgr.ConfigFileUsed() != "" {
		t.Errorf("ConfigFileUsed() = %q, want empty", mgr.ConfigFileUsed())
	}
}

func TestNewManager_EnvFile(t *testing.T) {
	clearKeys(t)
	opts := isolated(t)

	content := "GOOGLE_API_KEY=from-dotenv\nTEXTJSON_MODEL=gemini-2.5-pro\nUNRELATED_THING=ignored\n"
	if err := os.WriteFile(opts.EnvFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	mgr, err := NewManager(opts)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	cfg := mgr.Get()
	if cfg.APIKey() != "from-dotenv" {
		t.Errorf("APIKey() = %q, want from-dotenv", cfg.APIKey())
	}
	if cfg.Model != "gemini-2.5-pro" {
		t.Errorf("Model = %q, want gemini-2.5-pro", cfg.Model)
	}
	if _, ok := os.LookupEnv("UNRELATED_THING"); ok {
		t.Error("env file must not modify the process environment")
	}
}

func TestNewManager_EnvOverridesEnvFile(t *testing.T) {
	clearKeys(t)
	t.Setenv("GEMINI_API_KEY", "from-env")
	opts := isolated(t)

	if err := os.WriteFile(opts.EnvFile, []byte("GEMINI_API_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	mgr, err := NewManager(opts)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if got := mgr.Get().APIKey(); got != "from-env" {
		t.Errorf("APIKey() = %q, want from-env", got)
	}
}

func TestNewManager_ConfigFile(t *testing.T) {
	clearKeys(t)
	t.Setenv("TEST_TEXTJSON_KEY", "resolved-key")
	opts := isolated(t)
	opts.ConfigFile = filepath.Join(t.TempDir(), "textjson.yaml")

	configContent := `
google_api_key: "${TEST_TEXTJSON_KEY}"
port: "9090"
log_level: debug
`
	if err := os.WriteFile(opts.ConfigFile, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(opts)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	cfg := mgr.Get()
	if cfg.APIKey() != "resolved-key" {
		t.Errorf("APIKey() = %q, want resolved-key", cfg.APIKey())
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}
	if mgr.ConfigFileUsed() != opts.ConfigFile {
		t.Errorf("ConfigFileUsed() = %q, want %q", mgr.ConfigFileUsed(), opts.ConfigFile)
	}
}

func TestNewManager_MissingExplicitConfigFile(t *testing.T) {
	opts := isolated(t)
	opts.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := NewManager(opts); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "secret123")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestEnvName(t *testing.T) {
	tests := map[string]string{
		"gemini_api_key": "GEMINI_API_KEY",
		"google_api_key": "GOOGLE_API_KEY",
		"model":          "TEXTJSON_MODEL",
		"static_dir":     "TEXTJSON_STATIC_DIR",
	}
	for key, want := range tests {
		if got := EnvName(key); got != want {
			t.Errorf("EnvName(%q) = %q, want %q", key, got, want)
		}
	}
}
