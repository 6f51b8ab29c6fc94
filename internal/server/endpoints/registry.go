package endpoints

import (
	"io/fs"

	"github.com/jackzampolin/textjson/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	// StaticFS serves the front-end; nil uses the embedded assets.
	StaticFS fs.FS
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		&HealthEndpoint{},
		&SettingsEndpoint{},

		// Extraction endpoints
		&PromptEndpoint{},
		&ExtractEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},

		// Static files (catch-all, must be last)
		&StaticEndpoint{FS: cfg.StaticFS},
	}
}
