package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/textjson/internal/api"
	"github.com/jackzampolin/textjson/internal/config"
	"github.com/jackzampolin/textjson/internal/svcctx"
)

// SettingsResponse is the effective server configuration. API keys are
// reported only as present or absent.
type SettingsResponse struct {
	APIKeyConfigured bool   `json:"api_key_configured" yaml:"api_key_configured"`
	Model            string `json:"model" yaml:"model"`
	Host             string `json:"host" yaml:"host"`
	Port             string `json:"port" yaml:"port"`
	StaticDir        string `json:"static_dir,omitempty" yaml:"static_dir,omitempty"`
	LogLevel         string `json:"log_level" yaml:"log_level"`
}

// NewSettingsResponse redacts s into a SettingsResponse.
func NewSettingsResponse(s *config.Settings) SettingsResponse {
	return SettingsResponse{
		APIKeyConfigured: s.APIKey() != "",
		Model:            s.Model,
		Host:             s.Host,
		Port:             s.Port,
		StaticDir:        s.StaticDir,
		LogLevel:         s.LogLevel,
	}
}

// SettingsEndpoint handles GET /api/settings.
type SettingsEndpoint struct{}

var _ api.Endpoint = (*SettingsEndpoint)(nil)

func (e *SettingsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings", e.handler
}

// handler godoc
//
//	@Summary		Show settings
//	@Description	Get the effective server configuration with API keys redacted
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	SettingsResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/settings [get]
func (e *SettingsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	settings := svcctx.SettingsFrom(r.Context())
	if settings == nil {
		writeError(w, http.StatusInternalServerError, "settings not available")
		return
	}
	writeJSON(w, http.StatusOK, NewSettingsResponse(settings))
}

func (e *SettingsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Show the server's effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SettingsResponse
			if err := client.Get(cmd.Context(), "/api/settings", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
