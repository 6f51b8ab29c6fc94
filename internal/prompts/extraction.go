package prompts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ExtractionKey identifies the extraction prompt in logs.
const ExtractionKey = "extract.system"

// ExtractionTemplate is the instruction block sent verbatim to the model.
// Trailing spaces on some lines are intentional; the output must stay
// byte-identical for identical inputs.
const ExtractionTemplate = `
Role: 
You are an information extraction and normalization engine.

Task: 
I will provide you with raw text copied from a website. The text may be incomplete, inconsistently formatted, duplicated, or poorly structured.
Your task is to extract and normalize the content into a clean, structured format using the schema defined below.

Instructions:
- Analyze the provided text carefully. 
- Extract the information into the specific JSON fields defined below.
- Handle Missing Data: If a specific field is not mentioned in the text, return the value as null. Do not guess.
- Clean Content: Remove any HTML tags or tracking URLs from the text, but keep the formatting (like bullet points) within the description strings using standard newline characters.

Rules

- Do not invent or infer information that is not explicitly present in the text.
- If a field is missing, return it as null.
- Preserve original wording as much as possible; do not rewrite unless needed for clarity.
- Lists must be returned as arrays.
- Dates must be returned in ISO 8601 format (YYYY-MM-DD) when possible.
- Output valid JSON only. No commentary or explanations.

Text Content:
{{.TextContent}}

Target JSON Schema:
{{.TargetSchema}}

Return the JSON ONLY.
`

var extractionTmpl = mustTemplate(ExtractionKey, ExtractionTemplate, ExtractionData{})

// ErrEmptySchema is returned when no target schema is supplied.
var ErrEmptySchema = errors.New("target schema is empty")

// ExtractionData is the template input for ExtractionTemplate.
type ExtractionData struct {
	TextContent  string
	TargetSchema string
}

// Build renders the extraction prompt for the given text and schema.
// The schema is re-indented with two spaces and keeps the caller's key order.
func Build(textContent string, targetSchema json.RawMessage) (string, error) {
	schemaText, err := FormatSchema(targetSchema)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := extractionTmpl.Execute(&buf, ExtractionData{
		TextContent:  textContent,
		TargetSchema: schemaText,
	}); err != nil {
		return "", fmt.Errorf("failed to render extraction prompt: %w", err)
	}
	return buf.String(), nil
}

// FormatSchema compacts and re-indents a JSON document with two-space indentation.
func FormatSchema(raw json.RawMessage) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", ErrEmptySchema
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return "", fmt.Errorf("invalid target schema: %w", err)
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, compact.Bytes(), "", "  "); err != nil {
		return "", fmt.Errorf("invalid target schema: %w", err)
	}
	return indented.String(), nil
}
