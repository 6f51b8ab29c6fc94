package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/textjson/internal/api"
	"github.com/jackzampolin/textjson/internal/extract"
	"github.com/jackzampolin/textjson/internal/svcctx"
)

// ExtractEndpoint handles POST /api/extract.
type ExtractEndpoint struct{}

var _ api.Endpoint = (*ExtractEndpoint)(nil)

func (e *ExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/extract", e.handler
}

// handler godoc
//
//	@Summary		Extract structured JSON from text
//	@Description	Sends the text and target schema to Gemini and returns the JSON it produced
//	@Tags			extraction
//	@Accept			json
//	@Produce		json
//	@Param			request	body		extract.Request	true	"Extraction request"
//	@Success		200		{object}	object
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Failure		504		{object}	ErrorResponse
//	@Router			/api/extract [post]
func (e *ExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeExtractionRequest(w, r)
	if !ok {
		return
	}

	logger := svcctx.LoggerFrom(r.Context())
	ext := svcctx.ExtractorFrom(r.Context())
	if ext == nil {
		writeExtractionError(w, logger, &extract.Error{Kind: extract.KindConfiguration, Err: extract.ErrNotConfigured})
		return
	}

	result, err := ext.Extract(extract.WithLogger(r.Context(), logger), req)
	if err != nil {
		writeExtractionError(w, logger, err)
		return
	}

	writeRawJSON(w, http.StatusOK, result)
}

func (e *ExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	var flags requestFlags
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract structured JSON from text",
		Example: `  textjson api extract --text "Alice is 30" --schema '{"name":"string","age":"integer"}'
  textjson api extract --text-file note.txt --schema-file schema.json -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}

			client := api.NewClient(getServerURL())
			var result json.RawMessage
			if err := client.Post(cmd.Context(), "/api/extract", req, &result); err != nil {
				return err
			}
			return api.Output(result)
		},
	}
	flags.bind(cmd)
	return cmd
}
