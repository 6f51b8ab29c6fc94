// Package docs provides generated OpenAPI documentation.
//
// textjson API
//
//	@title			textjson API
//	@version		1.0
//	@description	Extracts structured JSON from unstructured text using Gemini.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/textjson
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/textjson/serve.go -o ./swagger --parseDependency --parseInternal
