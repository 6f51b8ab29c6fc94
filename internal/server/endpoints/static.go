package endpoints

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/textjson/internal/api"
	"github.com/jackzampolin/textjson/web"
)

// StaticEndpoint serves front-end assets.
// It handles SPA routing by serving index.html for unknown paths.
type StaticEndpoint struct {
	// FS overrides the embedded assets, e.g. with a configured static_dir.
	FS fs.FS
}

var _ api.Endpoint = (*StaticEndpoint)(nil)

func (e *StaticEndpoint) Route() (string, string, http.HandlerFunc) {
	// Use Go 1.22 wildcard pattern to catch all unmatched GET requests
	return "GET", "/{path...}", e.handler
}

func (e *StaticEndpoint) Command(_ func() string) *cobra.Command {
	return nil // No CLI command for static files
}

func (e *StaticEndpoint) assets() (fs.FS, error) {
	if e.FS != nil {
		return e.FS, nil
	}
	return web.DistFS()
}

func (e *StaticEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	assets, err := e.assets()
	if err != nil {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	filePath := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if filePath != "" && filePath != "index.html" {
		if info, err := fs.Stat(assets, filePath); err == nil && !info.IsDir() {
			http.FileServer(http.FS(assets)).ServeHTTP(w, r)
			return
		}
	}

	// Root, directories, and unknown paths get index.html so client-side
	// routes resolve.
	index, err := fs.ReadFile(assets, "index.html")
	if err != nil {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(index)
}
