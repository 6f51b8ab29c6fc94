package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/textjson/internal/api"
	"github.com/jackzampolin/textjson/internal/extract"
	"github.com/jackzampolin/textjson/internal/svcctx"
)

// PromptResponse is the response for POST /api/prompt.
type PromptResponse struct {
	Prompt string `json:"prompt"`
}

// PromptEndpoint handles POST /api/prompt.
type PromptEndpoint struct{}

var _ api.Endpoint = (*PromptEndpoint)(nil)

func (e *PromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/prompt", e.handler
}

// handler godoc
//
//	@Summary		Preview the extraction prompt
//	@Description	Returns the exact prompt that would be sent for extraction. Never calls Gemini.
//	@Tags			extraction
//	@Accept			json
//	@Produce		json
//	@Param			request	body		extract.Request	true	"Extraction request"
//	@Success		200		{object}	PromptResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/prompt [post]
func (e *PromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeExtractionRequest(w, r)
	if !ok {
		return
	}

	ext := svcctx.ExtractorFrom(r.Context())
	if ext == nil {
		ext = extract.New(extract.Config{})
	}

	prompt, err := ext.Prompt(req)
	if err != nil {
		svcctx.LoggerFrom(r.Context()).Error("failed to build prompt", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build prompt: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, PromptResponse{Prompt: prompt})
}

func (e *PromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	var flags requestFlags
	var raw bool
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Preview the prompt the server would send",
		Example: `  textjson api prompt --text "Alice is 30" --schema '{"name":"string","age":"integer"}'
  textjson api prompt --text-file note.txt --schema-file schema.json --raw`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}

			client := api.NewClient(getServerURL())
			var resp PromptResponse
			if err := client.Post(cmd.Context(), "/api/prompt", req, &resp); err != nil {
				return err
			}

			if raw {
				fmt.Fprint(cmd.OutOrStdout(), resp.Prompt)
				return nil
			}
			return api.Output(resp)
		},
	}
	flags.bind(cmd)
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the prompt text without structured output")
	return cmd
}
