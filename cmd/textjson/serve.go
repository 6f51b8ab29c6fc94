package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/textjson/internal/server"
)

var (
	serveHost      string
	servePort      string
	serveStaticDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the textjson server",
	Long: `Start the textjson HTTP server.

The server provides:
  - POST /api/extract  - Extract JSON from text
  - POST /api/prompt   - Preview the prompt without calling Gemini
  - GET  /api/health   - Health check, reports whether an API key is set
  - GET  /swagger      - API documentation
  - GET  /             - Web front-end

Examples:
  textjson serve                          # Start on 127.0.0.1:8000
  textjson serve --port 3000              # Start on custom port
  textjson serve --host 0.0.0.0           # Bind to all interfaces
  textjson serve --static-dir ./frontend  # Serve a different front-end`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := loadSettings()
		if err != nil {
			return err
		}
		settings := mgr.Get()

		if cmd.Flags().Changed("host") {
			settings.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			settings.Port = servePort
		}
		if cmd.Flags().Changed("static-dir") {
			settings.StaticDir = serveStaticDir
		}

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: settings.SlogLevel(),
		}))
		slog.SetDefault(logger)

		if used := mgr.ConfigFileUsed(); used != "" {
			logger.Info("loaded config file", "path", used)
		}

		var staticFS fs.FS
		if settings.StaticDir != "" {
			info, err := os.Stat(settings.StaticDir)
			if err != nil {
				return fmt.Errorf("static directory: %w", err)
			}
			if !info.IsDir() {
				return fmt.Errorf("static directory %s is not a directory", settings.StaticDir)
			}
			staticFS = os.DirFS(settings.StaticDir)
		}

		// Create server
		srv, err := server.New(server.Config{
			Settings: settings,
			StaticFS: staticFS,
			Logger:   logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8000", "Port to listen on")
	serveCmd.Flags().StringVar(&serveStaticDir, "static-dir", "", "Serve front-end files from this directory instead of the embedded ones")

	rootCmd.AddCommand(serveCmd)
}
