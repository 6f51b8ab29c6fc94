package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/textjson/internal/extract"
)

// requestFlags collects an ExtractionRequest from CLI flags.
type requestFlags struct {
	text       string
	textFile   string
	schema     string
	schemaFile string
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.text, "text", "", "Text to extract from")
	cmd.Flags().StringVar(&f.textFile, "text-file", "", "Read text from file")
	cmd.Flags().StringVar(&f.schema, "schema", "", "Target schema as JSON")
	cmd.Flags().StringVar(&f.schemaFile, "schema-file", "", "Read target schema from file")
	cmd.MarkFlagsMutuallyExclusive("text", "text-file")
	cmd.MarkFlagsMutuallyExclusive("schema", "schema-file")
}

func (f *requestFlags) request() (extract.Request, error) {
	var req extract.Request

	switch {
	case f.textFile != "":
		data, err := os.ReadFile(f.textFile)
		if err != nil {
			return req, fmt.Errorf("failed to read text file: %w", err)
		}
		req.TextContent = string(data)
	default:
		req.TextContent = f.text
	}

	schema := []byte(f.schema)
	if f.schemaFile != "" {
		data, err := os.ReadFile(f.schemaFile)
		if err != nil {
			return req, fmt.Errorf("failed to read schema file: %w", err)
		}
		schema = data
	}
	if len(schema) == 0 {
		return req, errors.New("--schema or --schema-file is required")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(schema, &obj); err != nil {
		return req, fmt.Errorf("schema must be a JSON object: %w", err)
	}
	req.TargetSchema = json.RawMessage(schema)
	return req, nil
}
