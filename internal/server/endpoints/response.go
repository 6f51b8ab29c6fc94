package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/textjson/internal/extract"
)

// maxBodyBytes caps request bodies read by the API.
const maxBodyBytes = 10 << 20

// extractionRequestSchema describes a well-formed ExtractionRequest body.
const extractionRequestSchema = `{
  "type": "object",
  "required": ["text_content", "target_schema"],
  "properties": {
    "text_content": {"type": "string"},
    "target_schema": {"type": "object"}
  }
}`

var requestSchema = jsonschema.MustCompileString("extraction_request.json", extractionRequestSchema)

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeRawJSON writes an already encoded JSON document.
func writeRawJSON(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(raw)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Detail: msg})
}

// decodeExtractionRequest reads and validates an ExtractionRequest body.
// Any failure is reported as a 422 before application logic runs.
func decodeExtractionRequest(w http.ResponseWriter, r *http.Request) (extract.Request, bool) {
	var req extract.Request

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("failed to read request body: %v", err))
		return req, false
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid JSON body: %v", err))
		return req, false
	}

	if err := requestSchema.Validate(doc); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationDetail(err))
		return req, false
	}

	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid request body: %v", err))
		return req, false
	}
	return req, true
}

// validationDetail flattens a schema validation error into one line.
func validationDetail(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}

	var msgs []string
	var walk func(*jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			loc := v.InstanceLocation
			if loc == "" {
				loc = "body"
			} else {
				loc = "body" + loc
			}
			msgs = append(msgs, loc+": "+v.Message)
			return
		}
		for _, c := range v.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(msgs, "; ")
}

// writeExtractionError maps an extraction failure to its HTTP status.
func writeExtractionError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, detail := extractionErrorStatus(err)
	logger.Error("extraction failed", "status", status, "kind", extract.KindOf(err).String(), "error", err)
	writeError(w, status, detail)
}

func extractionErrorStatus(err error) (int, string) {
	switch extract.KindOf(err) {
	case extract.KindConfiguration:
		return http.StatusServiceUnavailable, "Gemini API Key is not configured."
	case extract.KindRemote:
		if extract.IsTimeout(err) {
			return http.StatusGatewayTimeout, fmt.Sprintf("Gemini API timed out: %v", err)
		}
		return http.StatusBadGateway, fmt.Sprintf("Gemini API request failed: %v", err)
	case extract.KindParse:
		return http.StatusInternalServerError, fmt.Sprintf("Gemini returned invalid JSON: %v", err)
	default:
		return http.StatusInternalServerError, fmt.Sprintf("An error occurred during extraction: %v", err)
	}
}
