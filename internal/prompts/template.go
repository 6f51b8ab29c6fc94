package prompts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"text/template"
)

// fieldRef matches {{.Field}} references, with or without inner spaces.
var fieldRef = regexp.MustCompile(`\{\{\s*\.([a-zA-Z_][a-zA-Z0-9_.]*)\s*\}\}`)

// TemplateFields returns the sorted, de-duplicated fields a template reads.
func TemplateFields(text string) []string {
	var fields []string
	for _, m := range fieldRef.FindAllStringSubmatch(text, -1) {
		if !slices.Contains(fields, m[1]) {
			fields = append(fields, m[1])
		}
	}
	slices.Sort(fields)
	return fields
}

// dataFields returns the sorted exported field names of a struct value.
func dataFields(data any) []string {
	t := reflect.TypeOf(data)
	var fields []string
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.IsExported() {
			fields = append(fields, f.Name)
		}
	}
	slices.Sort(fields)
	return fields
}

// CheckFields reports an error unless the template reads exactly the
// exported fields of data. A field the template never renders is as much a
// bug as a reference the data cannot satisfy.
func CheckFields(text string, data any) error {
	used, have := TemplateFields(text), dataFields(data)
	if !slices.Equal(used, have) {
		return fmt.Errorf("template fields %v do not match %T fields %v", used, data, have)
	}
	return nil
}

// mustTemplate parses text and panics if its fields drift from data.
func mustTemplate(name, text string, data any) *template.Template {
	if err := CheckFields(text, data); err != nil {
		panic(fmt.Sprintf("prompts: %s: %v", name, err))
	}
	return template.Must(template.New(name).Parse(text))
}

// HashText returns a SHA256 hash of the text. Used to correlate rendered
// prompts in logs without logging the caller's text.
func HashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
